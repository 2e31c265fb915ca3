package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File names of the three persisted tables.
const (
	ProductsFile = "products.json"
	OrdersFile   = "orders.json"
	UsersFile    = "users.json"
)

// ErrStorage marks an I/O failure on the persistence layer. Callers
// must not retry automatically; the request fails with a 500.
var ErrStorage = errors.New("storage failure")

// Store persists each table as a single JSON array on local disk,
// fully rewritten on every mutation. A store-wide RW mutex serializes
// all writers: this is the single-writer critical section that keeps
// a naive read-mutate-rewrite cycle from losing updates under
// concurrent requests.
type Store struct {
	mu     sync.RWMutex
	dir    string
	logger *zap.Logger
}

// New creates the data directory if needed and ensures the three
// table files exist as empty arrays.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrStorage, err)
	}

	s := &Store{dir: dir, logger: logger}

	for _, name := range []string{ProductsFile, OrdersFile, UsersFile} {
		path := s.path(name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := writeAtomic(path, []byte("[]\n")); err != nil {
				return nil, err
			}
			logger.Info("Initialized empty table", zap.String("file", name))
		} else if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %v", ErrStorage, name, err)
		}
	}

	return s, nil
}

// Health reports per-table existence and size for the health endpoint.
func (s *Store) Health() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := map[string]any{"status": "ok"}
	for _, name := range []string{ProductsFile, OrdersFile, UsersFile} {
		info, err := os.Stat(s.path(name))
		if err != nil {
			health["status"] = "degraded"
			health[name] = "missing"
			continue
		}
		health[name] = info.Size()
	}
	return health
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Read returns the decoded contents of a table under the read lock.
// Display-path reads go through here without blocking each other.
func Read[T any](s *Store, name string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readLocked[T](s, name)
}

// Write replaces a table's contents under the write lock.
func Write[T any](s *Store, name string, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeLocked(s, name, items)
}

// Mutate applies fn to a table's contents as one critical section:
// read, transform, rewrite, all under the write lock. If fn returns an
// error nothing is written. Check-and-decrement style updates must go
// through here rather than Read followed by Write.
func Mutate[T any](s *Store, name string, fn func([]T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readLocked[T](s, name)
	if err != nil {
		return err
	}

	updated, err := fn(items)
	if err != nil {
		return err
	}

	return writeLocked(s, name, updated)
}

func readLocked[T any](s *Store, name string) ([]T, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, name, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorage, name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func writeLocked[T any](s *Store, name string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorage, name, err)
	}
	return writeAtomic(s.path(name), append(data, '\n'))
}

// writeAtomic writes to a temp file in the same directory and renames
// it over the target so a crash mid-write never leaves a truncated
// table behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace table file: %v", ErrStorage, err)
	}
	return nil
}
