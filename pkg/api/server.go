package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/exp/slog"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxConcurrent int
	CORSOrigin    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:          addr,
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
		MaxConcurrent: runtime.NumCPU() * 2,
		CORSOrigin:    "",
	}
}

// NewRouter registers every route with the shared middleware.
func NewRouter(cfg ServerConfig, handlers *Handlers, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	r := mux.NewRouter()
	r.Use(middleware(make(chan struct{}, cfg.MaxConcurrent), cfg, logger))

	// POST routes also answer OPTIONS so browsers can preflight JSON bodies.
	post := []string{http.MethodPost, http.MethodOptions}
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/route", handlers.HandleRoute).Methods(post...)
	v1.HandleFunc("/route/from-location", handlers.HandleRouteFromLocation).Methods(post...)
	v1.HandleFunc("/closest", handlers.HandleClosest).Methods(post...)
	v1.HandleFunc("/search", handlers.HandleSearch).Methods(http.MethodGet)
	v1.HandleFunc("/declutter", handlers.HandleDeclutter).Methods(post...)
	v1.HandleFunc("/health", handlers.HandleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/stats", handlers.HandleStats).Methods(http.MethodGet)

	r.NotFoundHandler = withHeaders(cfg, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowedHandler = withHeaders(cfg, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return r
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, handlers, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// setHeaders writes the security and CORS headers every response carries.
func setHeaders(w http.ResponseWriter, cfg ServerConfig) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Cache-Control", "no-store")
	if cfg.CORSOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
	}
}

// withHeaders wraps handlers that mux calls without running middleware.
func withHeaders(cfg ServerConfig, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setHeaders(w, cfg)
		h(w, r)
	})
}

// preflight answers a CORS OPTIONS request with the methods of the matched
// route.
func preflight(w http.ResponseWriter, r *http.Request, cfg ServerConfig) {
	if cfg.CORSOrigin != "" {
		if route := mux.CurrentRoute(r); route != nil {
			if methods, err := route.GetMethods(); err == nil {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "600")
	}
	w.WriteHeader(http.StatusNoContent)
}

// middleware adds logging, recovery, security headers, CORS preflight and
// concurrency limiting to every route.
func middleware(sem chan struct{}, cfg ServerConfig, logger *slog.Logger) mux.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setHeaders(w, cfg)
			if r.Method == http.MethodOptions {
				preflight(w, r, cfg)
				return
			}

			// Concurrency limiter.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "service_unavailable", "")
				return
			}

			// Recovery.
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic", "recovered", rec, "path", r.URL.Path)
					writeError(w, http.StatusInternalServerError, "internal_error", "")
				}
			}()

			// Request timeout.
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start).Round(time.Microsecond))
		})
	}
}
