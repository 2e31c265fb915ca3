package service

import (
	"sync"

	"github.com/llanos33/Petmatch-sub000/internal/repository"
)

// EntitlementStore reconciles the two representations of the premium
// flag: the authoritative boolean on the user record, and a per-email
// override cache that papers over propagation delay between a
// subscription and the next profile fetch. The cache is for display
// only and is never consulted when pricing an order.
type EntitlementStore struct {
	mu    sync.Mutex
	cache map[string]bool
}

// NewEntitlementStore creates an empty EntitlementStore.
func NewEntitlementStore() *EntitlementStore {
	return &EntitlementStore{cache: make(map[string]bool)}
}

// MarkPremium primes the override cache so a profile read immediately
// after subscribing shows premium even if it races the record update.
func (e *EntitlementStore) MarkPremium(email string) {
	email = repository.NormalizeEmail(email)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[email] = true
}

// Reconcile applies the server-wins rule and returns the effective
// display value: a premium server record forces the cache premium,
// and a stale premium cache entry is corrected when the server says
// otherwise. Between corrections the displayed value is the OR of
// both, a transient optimistic read only.
func (e *EntitlementStore) Reconcile(email string, serverPremium bool) bool {
	email = repository.NormalizeEmail(email)

	e.mu.Lock()
	defer e.mu.Unlock()

	if serverPremium {
		e.cache[email] = true
		return true
	}
	if e.cache[email] {
		delete(e.cache, email)
	}
	return false
}

// Cached reports the current override cache entry, for optimistic
// reads between requests.
func (e *EntitlementStore) Cached(email string) bool {
	email = repository.NormalizeEmail(email)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache[email]
}
