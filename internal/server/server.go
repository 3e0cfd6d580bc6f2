// package server contains middleware & handlers for the playlist migration web service
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, identity resolution, CORS, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the migration service.
// Implementations handle specific endpoints (migrate, disconnect, oauth).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	// Use adds middleware to the router's middleware stack.
	Use(middleware ...Middleware)
	// Handle registers a handler for a "METHOD /path" pattern.
	Handle(pattern string, handler http.Handler)
	// Handler registers a custom Handler implementation under its routes.
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Server bundles the configured router with the HTTP listener.
type Server struct {
	router Router
	addr   string
	logger *log.Logger
}

// ServerOpts contains the handlers and config for assembling a [Server].
type ServerOpts struct {
	Config     shared.ServerConfig
	Logger     *log.Logger
	Migration  *MigrationHandler
	Playlists  *PlaylistHandler
	Disconnect *DisconnectHandler
	Auth       *AuthHandler
}

// New assembles the full route table with logging and identity middleware.
func New(opts ServerOpts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(opts.Logger), UserMiddleware())

	router.Handle("GET /health", http.HandlerFunc(healthHandler))
	if opts.Migration != nil {
		router.Handler(opts.Migration)
	}
	if opts.Playlists != nil {
		router.Handler(opts.Playlists)
	}
	if opts.Disconnect != nil {
		router.Handler(opts.Disconnect)
	}
	if opts.Auth != nil {
		router.Handler(opts.Auth)
	}

	return &Server{
		router: router,
		addr:   fmt.Sprintf("%s:%d", opts.Config.Host, opts.Config.Port),
		logger: opts.Logger,
	}
}

// Router exposes the assembled router, mainly for tests.
func (s *Server) Router() Router {
	return s.router
}

// ListenAndServe runs the HTTP server until the context is cancelled, then
// shuts down gracefully with a short drain window.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeResponse serializes a JSON body with the given status code.
func writeResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError serializes the standard error envelope.
func writeError(w http.ResponseWriter, status int, err error) {
	writeResponse(w, status, map[string]string{"error": err.Error()})
}
