package service

import (
	"context"
	"sync"
	"testing"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/pricing"
	"github.com/llanos33/Petmatch-sub000/internal/repository"
	"github.com/llanos33/Petmatch-sub000/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	service  OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	st, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	f := &orderFixture{
		products: repository.NewProductRepository(st),
		orders:   repository.NewOrderRepository(st),
		users:    repository.NewUserRepository(st),
	}
	f.service = NewOrderService(f.products, f.orders, f.users, pricing.DefaultStandardShipping, zap.NewNop())
	return f
}

func (f *orderFixture) addUser(t *testing.T, email string, premium bool) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, IsPremium: premium}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *orderFixture) addProduct(t *testing.T, p domain.Product) *domain.Product {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), &p))
	return &p
}

func validCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    "Carla Ríos",
		Email:   "carla@example.com",
		Phone:   "555-0101",
		Address: "Av. Los Pinos 123",
	}
}

func TestCreateOrder_ComputesServerTotals(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	// Product 1 carries the 15% automatic catalog discount.
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 5})

	order, warning, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 2}},
		validCustomer(), ClientClaims{})
	require.NoError(t, err)
	assert.Empty(t, warning)

	assert.Equal(t, 76500, order.ItemsTotal)
	assert.Equal(t, 0, order.PremiumDiscount)
	assert.Equal(t, 8000, order.ShippingCost)
	assert.Equal(t, 84500, order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 38250, order.Items[0].UnitPrice)

	// Stock decremented exactly once by the ordered quantity.
	p, err := f.products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestCreateOrder_PremiumPricingAndFreeShipping(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "premium@example.com", true)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 5})

	order, _, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 1}},
		validCustomer(), ClientClaims{})
	require.NoError(t, err)

	// 45000 -> 38250 (catalog) -> 34425 (premium layer).
	assert.Equal(t, 34425, order.Items[0].UnitPrice)
	assert.Equal(t, 34425, order.ItemsTotal)
	assert.Equal(t, 3443, order.PremiumDiscount)
	assert.Equal(t, 0, order.ShippingCost)
	assert.Equal(t, order.ItemsTotal-order.PremiumDiscount+order.ShippingCost, order.Total)
}

func TestCreateOrder_ClientTotalsAreAdvisoryOnly(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 5})

	lowball := 1
	order, warning, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 2, Price: 10}},
		validCustomer(), ClientClaims{Total: &lowball})
	require.NoError(t, err)

	// The stored order carries server-computed values regardless of
	// the client's claims; the mismatch only produces a warning.
	assert.Equal(t, 84500, order.Total)
	assert.NotEmpty(t, warning)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 84500, stored.Total)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	user := f.addUser(t, "carla@example.com", false)

	_, _, err := f.service.CreateOrder(context.Background(), user.ID, nil, validCustomer(), ClientClaims{})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateOrder_MissingCustomerFields(t *testing.T) {
	f := newOrderFixture(t)
	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 5})
	items := []domain.CartItem{{ProductID: 1, Quantity: 1}}

	tests := []struct {
		name string
		info domain.CustomerInfo
	}{
		{"missing name", domain.CustomerInfo{Email: "a@b.com", Address: "x"}},
		{"missing email", domain.CustomerInfo{Name: "a", Address: "x"}},
		{"missing address", domain.CustomerInfo{Name: "a", Email: "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.service.CreateOrder(context.Background(), user.ID, items, tt.info, ClientClaims{})
			assert.ErrorIs(t, err, ErrMissingCustomerInfo)
		})
	}
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	f := newOrderFixture(t)
	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 5})

	_, _, err := f.service.CreateOrder(context.Background(), user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 0}}, validCustomer(), ClientClaims{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateOrder_OutOfStockLeavesEverythingUntouched(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 1})
	f.addProduct(t, domain.Product{Name: "Correa", Price: 15000, Stock: 10})

	_, _, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{
			{ProductID: 2, Quantity: 3},
			{ProductID: 1, Quantity: 2},
		},
		validCustomer(), ClientClaims{})
	require.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Alimento")

	// No order persisted, no stock mutated on any line.
	orders, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	for id, want := range map[int]int{1: 1, 2: 10} {
		p, err := f.products.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Stock)
	}
}

// A cart that splits one product across several lines must be checked
// against the summed quantity: two lines of 1 against stock 1 is an
// oversell, not two valid lines.
func TestCreateOrder_DuplicateLinesCannotOversell(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 1})

	_, _, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 1},
		},
		validCustomer(), ClientClaims{})
	require.ErrorIs(t, err, repository.ErrInsufficientStock)

	orders, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	p, err := f.products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestCreateOrder_DuplicateLinesWithinStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 3})

	order, _, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
		validCustomer(), ClientClaims{})
	require.NoError(t, err)

	// Both lines priced, stock down by the sum.
	assert.Equal(t, 3*38250, order.ItemsTotal)
	p, err := f.products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newOrderFixture(t)
	user := f.addUser(t, "carla@example.com", false)

	_, _, err := f.service.CreateOrder(context.Background(), user.ID,
		[]domain.CartItem{{ProductID: 77, Quantity: 1}}, validCustomer(), ClientClaims{})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

// Stock monotonicity under concurrency: after N successful checkouts
// of k units each, stock dropped by exactly N*k and never went
// negative.
func TestCreateOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 10})

	const (
		workers  = 25
		perOrder = 1
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.service.CreateOrder(ctx, user.ID,
				[]domain.CartItem{{ProductID: 1, Quantity: perOrder}},
				validCustomer(), ClientClaims{})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, err := f.products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, p.Stock)

	// Ids of the committed orders are strictly increasing and unique.
	orders, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, succeeded)
	seen := map[int]bool{}
	for _, o := range orders {
		assert.False(t, seen[o.ID])
		seen[o.ID] = true
		assert.Equal(t, o.ItemsTotal-o.PremiumDiscount+o.ShippingCost, o.Total)
	}
}

// raceProductRepo triggers a side effect once, just before the stock
// decrement runs, simulating an admin catalog write landing between
// availability validation and the commit.
type raceProductRepo struct {
	repository.ProductRepository
	once sync.Once
	race func()
}

func (r *raceProductRepo) CommitDecrement(ctx context.Context, items []domain.CartItem) error {
	r.once.Do(r.race)
	return r.ProductRepository.CommitDecrement(ctx, items)
}

// When the decrement fails after the order record was written, the
// caller must see a distinct server-side inconsistency, never an
// ordinary out-of-stock rejection (the order exists; retrying would
// double-order).
func TestCreateOrder_CommitFailureIsNotARejection(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	product := f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 2})

	racing := &raceProductRepo{
		ProductRepository: f.products,
		race: func() {
			product.Stock = 0
			require.NoError(t, f.products.Update(ctx, product))
		},
	}
	svc := NewOrderService(racing, f.orders, f.users, pricing.DefaultStandardShipping, zap.NewNop())

	_, _, err := svc.CreateOrder(ctx, user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 1}}, validCustomer(), ClientClaims{})
	require.ErrorIs(t, err, ErrStockCommitFailed)
	assert.NotErrorIs(t, err, repository.ErrInsufficientStock)

	// The order record was persisted before the commit failed.
	orders, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, user.ID, orders[0].UserID)

	// Stock was not driven negative by the failed commit.
	p, err := f.products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestListOrders_AdminSeesAll(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	buyer := f.addUser(t, "carla@example.com", false)
	other := f.addUser(t, "otro@example.com", false)
	admin := &domain.User{Email: "admin@example.com", IsAdmin: true}
	require.NoError(t, f.users.Create(ctx, admin))

	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 10})
	items := []domain.CartItem{{ProductID: 1, Quantity: 1}}

	_, _, err := f.service.CreateOrder(ctx, buyer.ID, items, validCustomer(), ClientClaims{})
	require.NoError(t, err)
	_, _, err = f.service.CreateOrder(ctx, other.ID, items, validCustomer(), ClientClaims{})
	require.NoError(t, err)

	all, err := f.service.ListOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.service.ListOrders(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, buyer.ID, own[0].UserID)
}

func TestGetOrder_OwnOrAdminOnly(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	buyer := f.addUser(t, "carla@example.com", false)
	stranger := f.addUser(t, "otro@example.com", false)
	f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 10})

	order, _, err := f.service.CreateOrder(ctx, buyer.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 1}}, validCustomer(), ClientClaims{})
	require.NoError(t, err)

	got, err := f.service.GetOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.service.GetOrder(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

// The price snapshot on a committed order must not move when the
// catalog price changes afterwards.
func TestCreateOrder_PriceSnapshotIsImmutable(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := f.addUser(t, "carla@example.com", false)
	product := f.addProduct(t, domain.Product{Name: "Alimento", Price: 45000, Stock: 10})

	order, _, err := f.service.CreateOrder(ctx, user.ID,
		[]domain.CartItem{{ProductID: 1, Quantity: 1}}, validCustomer(), ClientClaims{})
	require.NoError(t, err)

	product.Price = 90000
	require.NoError(t, f.products.Update(ctx, product))

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 38250, stored.Items[0].UnitPrice)
}
