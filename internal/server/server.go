package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/llanos33/Petmatch-sub000/internal/config"
	custommiddleware "github.com/llanos33/Petmatch-sub000/internal/middleware"
	"github.com/llanos33/Petmatch-sub000/internal/repository"
	"github.com/llanos33/Petmatch-sub000/internal/service"
	"github.com/llanos33/Petmatch-sub000/internal/store"
	"github.com/llanos33/Petmatch-sub000/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

// NewServer wires the store, repositories, services and handlers into
// a chi router. redisClient may be nil, disabling rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, st *store.Store, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, st.Health())
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(st)
	orderRepo := repository.NewOrderRepository(st)
	userRepo := repository.NewUserRepository(st)
	refreshTokenRepo := repository.NewRefreshTokenRepository()

	// Initialize services
	entitlements := service.NewEntitlementStore()
	userService := service.NewUserService(userRepo, refreshTokenRepo, entitlements, cfg.JWT.Secret)
	orderService := service.NewOrderService(productRepo, orderRepo, userRepo, cfg.Shipping.StandardCost, logger)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(userService, logger)
	productHandler := transport.NewProductHandler(productRepo, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Create auth middleware: tokens carry only the user id; the
	// current user record is loaded per request.
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, userRepo, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, userRepo, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	// Rate limit the auth surface when redis is available.
	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 30,
			Window:            time.Minute,
			KeyPrefix:         "rate_limit:auth",
		}, logger)
	}

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware, rateLimit)
	productHandler.RegisterRoutes(router, optionalAuth, authMiddleware, requireAdmin)
	orderHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
