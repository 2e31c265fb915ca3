package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/pricing"
	"github.com/llanos33/Petmatch-sub000/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrEmptyOrder          = errors.New("order has no items")
	ErrMissingCustomerInfo = errors.New("missing required customer field")
	ErrInvalidQuantity     = errors.New("item quantity must be at least 1")
	ErrForbidden           = errors.New("not allowed to access this order")

	// ErrStockCommitFailed means the order record was persisted but the
	// stock decrement did not go through. This is a server-side
	// inconsistency, not a rejected checkout: it must never surface as
	// an ordinary validation failure.
	ErrStockCommitFailed = errors.New("order recorded but stock update failed")
)

// ClientClaims carries the totals the storefront computed locally.
// They are advisory only: the server recomputes every monetary field
// and reports a mismatch back as a warning instead of trusting them.
type ClientClaims struct {
	ShippingCost    *int `json:"shippingCost,omitempty"`
	PremiumDiscount *int `json:"premiumDiscount,omitempty"`
	Total           *int `json:"total,omitempty"`
}

// OrderService is the transactional core of checkout: it turns a
// client cart into a priced, stock-validated, persisted order.
type OrderService interface {
	CreateOrder(ctx context.Context, userID int, items []domain.CartItem, info domain.CustomerInfo, claims ClientClaims) (*domain.Order, string, error)

	// ListOrders returns all orders for admins and the user's own
	// orders for everyone else.
	ListOrders(ctx context.Context, user *domain.User) ([]domain.Order, error)

	// GetOrder returns a single order, own-or-admin only.
	GetOrder(ctx context.Context, user *domain.User, orderID int) (*domain.Order, error)
}

type orderService struct {
	// checkout serializes the whole validate-price-persist-decrement
	// sequence. Without it two concurrent checkouts could both pass
	// validation on the same stale stock snapshot.
	checkout sync.Mutex

	productRepo      repository.ProductRepository
	orderRepo        repository.OrderRepository
	userRepo         repository.UserRepository
	standardShipping int
	logger           *zap.Logger
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	standardShipping int,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		productRepo:      productRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		standardShipping: standardShipping,
		logger:           logger,
	}
}

// CreateOrder executes the checkout transaction. The returned warning
// is non-empty when the client-submitted totals disagree with the
// server-computed ones; the stored order always carries the server
// values.
func (s *orderService) CreateOrder(ctx context.Context, userID int, items []domain.CartItem, info domain.CustomerInfo, claims ClientClaims) (*domain.Order, string, error) {
	if len(items) == 0 {
		return nil, "", ErrEmptyOrder
	}
	if err := validateCustomerInfo(info); err != nil {
		return nil, "", err
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, "", fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
	}

	s.checkout.Lock()
	defer s.checkout.Unlock()

	// Premium comes from the current user record, never from any
	// client claim: the client's cached flag can lag or lie.
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if err := s.productRepo.ValidateAvailability(ctx, items); err != nil {
		return nil, "", err
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	itemsTotal := 0
	for _, item := range items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, "", err
		}
		unit := pricing.ResolveForMember(*product, user.IsPremium).DiscountedPrice
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
		})
		itemsTotal += unit * item.Quantity
	}

	totals := pricing.ComputeTotals(itemsTotal, user.IsPremium, s.standardShipping)

	order := &domain.Order{
		UserID:          user.ID,
		Items:           orderItems,
		CustomerInfo:    info,
		ItemsTotal:      totals.ItemsTotal,
		PremiumDiscount: totals.PremiumDiscount,
		ShippingCost:    totals.ShippingCost,
		Total:           totals.Total,
		Status:          domain.OrderStatusPending,
		Date:            time.Now(),
	}

	// Persist the order before decrementing stock: a crash in between
	// leaves an order with no stock effect, which is detectable and
	// correctable, instead of invisible stock loss.
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, "", err
	}

	if err := s.productRepo.CommitDecrement(ctx, items); err != nil {
		s.logger.Error("Order persisted but stock decrement failed, manual reconciliation needed",
			zap.Int("order_id", order.ID),
			zap.Error(err),
		)
		// Deliberately hides the underlying sentinel: a persisted order
		// with no stock effect is not a client-correctable rejection.
		return nil, "", fmt.Errorf("%w: order %d: %v", ErrStockCommitFailed, order.ID, err)
	}

	s.logger.Info("Order created",
		zap.Int("order_id", order.ID),
		zap.Int("user_id", user.ID),
		zap.Int("total", order.Total),
		zap.Bool("premium", user.IsPremium),
	)

	return order, claimsMismatch(claims, totals), nil
}

func (s *orderService) ListOrders(ctx context.Context, user *domain.User) ([]domain.Order, error) {
	if user.IsAdmin {
		return s.orderRepo.ListAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, user.ID)
}

func (s *orderService) GetOrder(ctx context.Context, user *domain.User, orderID int) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && order.UserID != user.ID {
		return nil, ErrForbidden
	}
	return order, nil
}

func validateCustomerInfo(info domain.CustomerInfo) error {
	for field, value := range map[string]string{
		"name":    info.Name,
		"email":   info.Email,
		"address": info.Address,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingCustomerInfo, field)
		}
	}
	return nil
}

// claimsMismatch compares client-submitted totals against the server
// result and describes the first material disagreement.
func claimsMismatch(claims ClientClaims, totals pricing.Totals) string {
	if claims.Total != nil && *claims.Total != totals.Total {
		return fmt.Sprintf("submitted total %d differs from charged total %d", *claims.Total, totals.Total)
	}
	if claims.ShippingCost != nil && *claims.ShippingCost != totals.ShippingCost {
		return fmt.Sprintf("submitted shipping %d differs from charged shipping %d", *claims.ShippingCost, totals.ShippingCost)
	}
	if claims.PremiumDiscount != nil && *claims.PremiumDiscount != totals.PremiumDiscount {
		return fmt.Sprintf("submitted premium discount %d differs from applied discount %d", *claims.PremiumDiscount, totals.PremiumDiscount)
	}
	return ""
}
