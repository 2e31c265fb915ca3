package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/middleware"
	"github.com/llanos33/Petmatch-sub000/internal/repository"
	"github.com/llanos33/Petmatch-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateOrderRequest is the checkout payload. The price, shipping and
// total fields are client hints only; the server recomputes all of
// them before anything is stored.
type CreateOrderRequest struct {
	Items           []domain.CartItem   `json:"items" validate:"required,min=1,dive"`
	CustomerInfo    domain.CustomerInfo `json:"customerInfo"`
	ShippingCost    *int                `json:"shippingCost,omitempty"`
	PremiumDiscount *int                `json:"premiumDiscount,omitempty"`
	Total           *int                `json:"total,omitempty"`
}

// CreateOrderResponse wraps the persisted order. Warning is set when
// the client-submitted totals disagreed with the computed ones.
type CreateOrderResponse struct {
	domain.Order
	Warning string `json:"warning,omitempty"`
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes; every one requires auth.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

// Create handles checkout.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := service.ClientClaims{
		ShippingCost:    req.ShippingCost,
		PremiumDiscount: req.PremiumDiscount,
		Total:           req.Total,
	}

	order, warning, err := h.orderService.CreateOrder(r.Context(), user.ID, req.Items, req.CustomerInfo, claims)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CreateOrderResponse{Order: *order, Warning: warning})
}

// List returns the caller's orders, or every order for admins.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get returns a single order, own-or-admin.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), user, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, service.ErrForbidden) {
			// Same response either way: whether the order exists is
			// not leaked to non-owners.
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to load order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// respondOrderError maps checkout errors to status codes. Business
// rule violations name the offending product or field; storage faults
// stay generic.
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrMissingCustomerInfo),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrInsufficientStock):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrStockCommitFailed):
		// The order exists but stock was not adjusted. Never a 400: the
		// client did nothing wrong and retrying would double-order.
		h.logger.Error("Order in inconsistent state", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "order could not be finalized, contact support")
	default:
		h.logger.Error("Order creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order")
	}
}
