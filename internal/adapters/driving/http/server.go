package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/ports/driving"
)

// Pinger is implemented by session backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the shopgate HTTP front end.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	logger     *slog.Logger
	now        func() time.Time

	authService driving.AuthorizationService
	sessions    *SessionManager

	// Infrastructure
	sessionBackend Pinger // optional readiness check
	staticDir      string
	allowedOrigins []string
}

// Config is the listener and static-asset configuration.
type Config struct {
	Host string
	Port int

	// StaticDir, when set, is served at / with a single-page-app fallback.
	StaticDir string

	// AllowedOrigins lists CORS origins. Empty allows only same-origin requests.
	AllowedOrigins []string
}

// DefaultConfig listens on 0.0.0.0:4000 with no static directory.
func DefaultConfig() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 4000,
	}
}

// NewServer wires the routes. sessionBackend backs /ready.
func NewServer(
	cfg Config,
	authService driving.AuthorizationService,
	sessions *SessionManager,
	sessionBackend Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:         http.NewServeMux(),
		logger:         logger,
		now:            time.Now,
		authService:    authService,
		sessions:       sessions,
		sessionBackend: sessionBackend,
		staticDir:      cfg.StaticDir,
		allowedOrigins: cfg.AllowedOrigins,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the server-wide middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	withSession := s.sessions.Load
	guard := NewAuthMiddleware(s.authService).RequireAuthenticated

	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)

	// OAuth flow endpoints
	s.router.Handle("GET /auth/login", withSession(http.HandlerFunc(s.handleLogin)))
	s.router.Handle("GET /auth/callback", withSession(http.HandlerFunc(s.handleCallback)))
	s.router.Handle("POST /auth/refresh", withSession(http.HandlerFunc(s.handleRefresh)))
	s.router.Handle("POST /auth/logout", withSession(http.HandlerFunc(s.handleLogout)))
	s.router.Handle("GET /auth/status", withSession(http.HandlerFunc(s.handleStatus)))

	// Marketplace data endpoints (require an authorized session)
	s.router.Handle("GET /api/me/shops",
		withSession(guard(http.HandlerFunc(s.handleListMyShops))))
	s.router.Handle("GET /api/shops/{shopId}/listings/active",
		withSession(guard(http.HandlerFunc(s.handleListActiveListings))))
	s.router.Handle("POST /api/shops/{shopId}/listings/draft",
		withSession(guard(http.HandlerFunc(s.handleCreateDraftListing))))
	s.router.Handle("GET /api/shops/{shopId}/receipts",
		withSession(guard(http.HandlerFunc(s.handleListReceipts))))

	if s.staticDir != "" {
		s.router.Handle("GET /", newSPAHandler(s.staticDir))
	}
}

// Start serves until SIGINT or SIGTERM, then drains for up to 30s.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
