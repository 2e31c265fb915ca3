package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/middleware"
	"github.com/llanos33/Petmatch-sub000/internal/pricing"
	"github.com/llanos33/Petmatch-sub000/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest is the admin payload for creating or updating a
// catalog product. The sale override feeds the discount resolver, so
// a sale price above the base price is rejected here rather than
// silently ignored downstream.
type ProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	PetType     string `json:"petType" validate:"required,oneof=perro gato ambos"`
	Price       int    `json:"price" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	IsOnSale    bool   `json:"isOnSale"`
	SalePrice   int    `json:"salePrice" validate:"gte=0"`
	Exclusive   bool   `json:"exclusive"`
}

// ProductView is a catalog product plus its display price breakdown,
// resolved with the same rules the checkout path uses.
type ProductView struct {
	domain.Product
	Pricing pricing.Breakdown `json:"pricing"`
}

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productRepo repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productRepo: productRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers all catalog routes. Reads are public with
// optional auth (premium viewers also see exclusive products); writes
// are admin-only.
func (h *ProductHandler) RegisterRoutes(r chi.Router, optionalAuth, authMiddleware, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(requireAdmin)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
		})
	})
}

// List returns the catalog with display pricing.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	premiumViewer := isPremiumViewer(r)
	views := []ProductView{}
	for _, p := range products {
		if p.Exclusive && !premiumViewer {
			continue
		}
		views = append(views, ProductView{Product: p, Pricing: pricing.Resolve(p)})
	}

	middleware.RespondWithJSON(w, http.StatusOK, views)
}

// Get returns a single product with display pricing.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productRepo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	if product.Exclusive && !isPremiumViewer(r) {
		// Indistinguishable from a missing product on purpose.
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductView{Product: *product, Pricing: pricing.Resolve(*product)})
}

// Create adds a catalog product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product := req.toProduct()
	if err := h.productRepo.Create(r.Context(), &product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int("product_id", product.ID), zap.String("name", product.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update replaces a catalog product, including its sale override.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product := req.toProduct()
	product.ID = id
	if err := h.productRepo.Update(r.Context(), &product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.Int("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if req.IsOnSale && req.SalePrice >= req.Price {
		middleware.RespondWithError(w, http.StatusBadRequest, "sale price must be below the base price")
		return nil, false
	}

	return &req, true
}

func (req *ProductRequest) toProduct() domain.Product {
	return domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PetType:     domain.PetType(req.PetType),
		Price:       req.Price,
		Stock:       req.Stock,
		IsOnSale:    req.IsOnSale,
		SalePrice:   req.SalePrice,
		Exclusive:   req.Exclusive,
	}
}

func isPremiumViewer(r *http.Request) bool {
	user, ok := middleware.GetUser(r.Context())
	return ok && (user.IsPremium || user.IsAdmin)
}
