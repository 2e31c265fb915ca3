package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/store"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines data access over the product table,
// including the inventory ledger operations used by order commits.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)

	// ValidateAvailability checks that every line references an
	// existing product with enough stock. It mutates nothing.
	ValidateAvailability(ctx context.Context, items []domain.CartItem) error

	// CommitDecrement subtracts the ordered quantities from stock as
	// one all-or-nothing mutation. Availability is re-checked inside
	// the critical section, so a stale earlier validation can never
	// drive stock negative.
	CommitDecrement(ctx context.Context, items []domain.CartItem) error
}

type productRepository struct {
	store *store.Store
}

// NewProductRepository creates a new instance of ProductRepository
// backed by the JSON file store.
func NewProductRepository(s *store.Store) ProductRepository {
	return &productRepository{store: s}
}

// Create assigns the next free id and appends the product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return store.Mutate(r.store, store.ProductsFile, func(products []domain.Product) ([]domain.Product, error) {
		maxID := 0
		for _, p := range products {
			if p.ID > maxID {
				maxID = p.ID
			}
		}
		product.ID = maxID + 1
		product.CreatedAt = time.Now()
		product.UpdatedAt = product.CreatedAt
		return append(products, *product), nil
	})
}

// Update replaces the stored product with the same id.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	return store.Mutate(r.store, store.ProductsFile, func(products []domain.Product) ([]domain.Product, error) {
		for i, p := range products {
			if p.ID == product.ID {
				product.CreatedAt = p.CreatedAt
				product.UpdatedAt = time.Now()
				products[i] = *product
				return products, nil
			}
		}
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, product.ID)
	})
}

func (r *productRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	products, err := store.Read[domain.Product](r.store, store.ProductsFile)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	return store.Read[domain.Product](r.store, store.ProductsFile)
}

func (r *productRepository) ValidateAvailability(ctx context.Context, items []domain.CartItem) error {
	products, err := store.Read[domain.Product](r.store, store.ProductsFile)
	if err != nil {
		return err
	}
	return checkAvailability(products, items)
}

func (r *productRepository) CommitDecrement(ctx context.Context, items []domain.CartItem) error {
	return store.Mutate(r.store, store.ProductsFile, func(products []domain.Product) ([]domain.Product, error) {
		// Re-validate against current stock before touching anything:
		// either every line decrements or none do.
		if err := checkAvailability(products, items); err != nil {
			return nil, err
		}
		for _, item := range items {
			for i := range products {
				if products[i].ID == item.ProductID {
					products[i].Stock -= item.Quantity
					products[i].UpdatedAt = time.Now()
					break
				}
			}
		}
		return products, nil
	})
}

func checkAvailability(products []domain.Product, items []domain.CartItem) error {
	byID := make(map[int]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// A cart may list the same product on several lines, so stock is
	// compared against the summed quantity per product, not per line.
	requested := make(map[int]int, len(items))
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	for id, quantity := range requested {
		p := byID[id]
		if p.Stock < quantity {
			return fmt.Errorf("%w: %q (id %d) has %d left, %d requested",
				ErrInsufficientStock, p.Name, p.ID, p.Stock, quantity)
		}
	}
	return nil
}
