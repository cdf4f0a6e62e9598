package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/kodbank-be/internal/account"
	"github.com/hongminglow/kodbank-be/internal/config"
	"github.com/hongminglow/kodbank-be/internal/http/handlers"
	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/metrics"
	"github.com/hongminglow/kodbank-be/internal/middleware"
	"github.com/hongminglow/kodbank-be/internal/session"
)

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Accounts *account.Service
	Sessions *session.Service
	Engine   *ledger.Engine
	Metrics  *metrics.Metrics
	Health   map[string]handlers.Pinger
	Logger   *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.OperationTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(deps.Logger.Handler(), slog.LevelError),
	}
	return &Server{inner: httpServer}
}

// Handler builds the routed handler chain without binding a listener.
func Handler(cfg config.Config, deps Deps) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), deps.Health).Register(mux)
	handlers.NewAuthHandler(deps.Accounts, deps.Sessions, deps.Logger).Register(mux)
	handlers.NewBankingHandler(deps.Engine, deps.Sessions, cfg.CurrencySymbol, deps.Logger).Register(mux)

	var observer middleware.RequestObserver
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
		observer = deps.Metrics
	}

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(deps.Logger, observer, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
