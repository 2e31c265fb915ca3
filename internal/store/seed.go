package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/llanos33/Petmatch-sub000/internal/domain"

	"go.uber.org/zap"
)

// SeedProducts loads an initial catalog from seedPath into the product
// table, but only when the table is still empty. Re-running with a
// populated table is a no-op so restarts never clobber live stock.
func SeedProducts(s *Store, seedPath string, logger *zap.Logger) error {
	if seedPath == "" {
		return nil
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("%w: read seed file: %v", ErrStorage, err)
	}

	var seed []domain.Product
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("%w: decode seed file: %v", ErrStorage, err)
	}

	return Mutate(s, ProductsFile, func(products []domain.Product) ([]domain.Product, error) {
		if len(products) > 0 {
			logger.Debug("Catalog already populated, skipping seed")
			return products, nil
		}
		logger.Info("Seeding catalog", zap.Int("products", len(seed)))
		return seed, nil
	})
}
