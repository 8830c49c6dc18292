package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/loyalty-ledger/internal/auth"
	"github.com/hongminglow/loyalty-ledger/internal/config"
	"github.com/hongminglow/loyalty-ledger/internal/http/handlers"
	"github.com/hongminglow/loyalty-ledger/internal/metrics"
	"github.com/hongminglow/loyalty-ledger/internal/middleware"
	"github.com/hongminglow/loyalty-ledger/internal/models"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, ledger handlers.Ledger, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, ledger, m, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewRouter builds the HTTP handler tree.
func NewRouter(cfg config.Config, ledger handlers.Ledger, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	staff := auth.NewStaffDirectory(cfg.StaffUsers)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst,
		cfg.RateLimit.TrustedProxies...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger, m))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		handlers.NewAuthHandler(staff, tokens, logger).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff(tokens))
			customers := handlers.NewCustomerHandler(ledger, m, logger)
			customers.Register(r, middleware.RequireRole(models.RoleAdmin))
		})
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
