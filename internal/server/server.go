package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sundayezeilo/teenyurl/internal/config"
	"github.com/sundayezeilo/teenyurl/internal/httpx"
	"github.com/sundayezeilo/teenyurl/internal/shortener"
)

// Server represents the HTTP server with all dependencies.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	handler *shortener.Handler
	server  *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, handler *shortener.Handler) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger,
		handler: handler,
	}
	s.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Handler returns the fully wired router wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting http server",
			"addr", ln.Addr().String(),
			"env", s.config.App.Environment,
		)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// setupRoutes configures all HTTP routes. Fixed paths are registered before
// the catch-all key route.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/x/health", s.healthCheckHandler).Methods(http.MethodGet)
	if s.config.Observability.MetricsEnabled {
		r.Handle(s.config.Observability.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/urls", s.handler.ListLinks).Methods(http.MethodGet)
	r.HandleFunc("/urls", s.handler.CreateLink).Methods(http.MethodPost)
	r.HandleFunc("/urls/{id}", s.handler.GetLink).Methods(http.MethodGet)
	r.HandleFunc("/urls/{id}", s.handler.UpdateLink).Methods(http.MethodPut)
	r.HandleFunc("/urls/{id}", s.handler.DeleteLink).Methods(http.MethodDelete)

	r.HandleFunc("/{key}", s.handler.ResolveLink).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such route", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path), nil)
	})

	return r
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger), // Outermost: catch panics
		httpx.RequestID,          // Add request ID
		httpx.Logger(s.logger),   // Log requests
		httpx.CORS(nil),          // CORS headers (allow all)
	)(handler)
}

// healthCheckHandler handles health check requests.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.Observability.ServiceName,
		"version": s.config.Observability.ServiceVersion,
		"storage": s.config.Storage.Driver,
	})
}

// Shutdown gracefully shuts down the server, forcing connections closed when
// ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}
	return nil
}
