// Package server assembles the netmap HTTP server: middleware, the API,
// static assets and operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// UIPrefix is where the browser UI and its assets are served.
const UIPrefix = "/networkmap"

// RouteRegistrar registers routes on the router. Implemented by *api.API.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Options configures the server
type Options struct {
	Addr          string
	IconsDir      string // served at /networkmap/icons
	InterfacesDir string // served at /networkmap/configs
	DistDir       string // built UI served at /networkmap with index.html fallback
	Logger        *zap.Logger
}

// Server is the netmap HTTP server
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
}

// New creates a server with middleware, operational endpoints, the routes
// of every registrar and the static asset mounts.
func New(opts Options, registrars ...RouteRegistrar) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger, []string{"/healthz", "/metrics"}))

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	for _, reg := range registrars {
		reg.RegisterRoutes(r)
	}

	if opts.IconsDir != "" {
		r.Handle(UIPrefix+"/icons/*", http.StripPrefix(UIPrefix+"/icons", staticDir(opts.IconsDir)))
	}
	if opts.InterfacesDir != "" {
		r.Handle(UIPrefix+"/configs/*", http.StripPrefix(UIPrefix+"/configs", staticDir(opts.InterfacesDir)))
	}
	if opts.DistDir != "" {
		spa := http.StripPrefix(UIPrefix, newSPAHandler(opts.DistDir))
		r.Handle(UIPrefix, spa)
		r.Handle(UIPrefix+"/*", spa)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, UIPrefix+"/", http.StatusFound)
		})
	}

	return &Server{
		router: r,
		logger: logger,
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz is a liveness probe
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}
