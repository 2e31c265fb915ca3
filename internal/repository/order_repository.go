package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/store"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access. Orders
// are append-only: once persisted a record is never rewritten.
type OrderRepository interface {
	// Create assigns a new unique, monotonically increasing id and
	// appends the order. Ids are never reused, even if older orders
	// were removed out of band.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

type orderRepository struct {
	store *store.Store
}

// NewOrderRepository creates a new instance of OrderRepository backed
// by the JSON file store.
func NewOrderRepository(s *store.Store) OrderRepository {
	return &orderRepository{store: s}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return store.Mutate(r.store, store.OrdersFile, func(orders []domain.Order) ([]domain.Order, error) {
		maxID := 0
		for _, o := range orders {
			if o.ID > maxID {
				maxID = o.ID
			}
		}
		order.ID = maxID + 1
		return append(orders, *order), nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	orders, err := store.Read[domain.Order](r.store, store.OrdersFile)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int) ([]domain.Order, error) {
	orders, err := store.Read[domain.Order](r.store, store.OrdersFile)
	if err != nil {
		return nil, err
	}
	own := []domain.Order{}
	for _, o := range orders {
		if o.UserID == userID {
			own = append(own, o)
		}
	}
	return own, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return store.Read[domain.Order](r.store, store.OrdersFile)
}
