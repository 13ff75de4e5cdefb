// Package api exposes the node registry over HTTP. It is thin transport: it
// deserializes requests, delegates to the registry store, and maps store
// results onto status codes. The one non-obvious mapping is publish conflict
// to 409.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/health"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/metric"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

// ServerConfig holds the HTTP API server settings
type ServerConfig struct {
	Port           int
	EnableCORS     bool
	CORSOrigins    []string
	MaxRequestSize int64
	ServiceName    string
	ServiceVersion string
}

// ServerOptions holds everything needed to construct a Server
type ServerOptions struct {
	Config ServerConfig
	Store  *registry.Store
	// Notifier receives an event after each successful publish; optional
	Notifier event.Notifier
	// Metrics records operation counters and request durations; optional
	Metrics *metric.Metrics
	// Monitor aggregates component health for /v1/health; optional
	Monitor *health.Monitor
	// WatchHandler serves GET /v1/node-types/watch when set
	WatchHandler http.Handler
	Logger       *slog.Logger
}

// Server is the registry's HTTP API server
type Server struct {
	config   ServerConfig
	store    *registry.Store
	notifier event.Notifier
	metrics  *metric.Metrics
	monitor  *health.Monitor
	watch    http.Handler
	logger   *slog.Logger

	server  *http.Server
	running atomic.Bool
}

// NewServer creates the API server from options
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Server", "NewServer", "registry store is required")
	}
	if opts.Config.Port == 0 {
		opts.Config.Port = 8080
	}
	if opts.Config.MaxRequestSize <= 0 {
		opts.Config.MaxRequestSize = 1 << 20
	}
	if opts.Config.ServiceName == "" {
		opts.Config.ServiceName = "arp-node-registry"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		config:   opts.Config,
		store:    opts.Store,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		monitor:  opts.Monitor,
		watch:    opts.WatchHandler,
		logger:   opts.Logger.With("component", "api"),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler (used by tests)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// registerRoutes wires the v1 API surface
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/node-types", s.instrument("/v1/node-types", s.handlePublish))
	mux.HandleFunc("GET /v1/node-types", s.instrument("/v1/node-types", s.handleList))
	mux.HandleFunc("GET /v1/node-types/{node_type_id}", s.instrument("/v1/node-types/{node_type_id}", s.handleGet))
	mux.HandleFunc("GET /v1/health", s.instrument("/v1/health", s.handleHealth))
	mux.HandleFunc("GET /v1/version", s.instrument("/v1/version", s.handleVersion))

	if s.watch != nil {
		mux.Handle("GET /v1/node-types/watch", s.watch)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, CodeRouteNotFound, "no such route")
	})
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	if s.running.Load() {
		return errors.WrapInternal(errors.ErrAlreadyStarted,
			"Server", "Start", "server already running")
	}
	s.running.Store(true)

	if s.monitor != nil {
		s.monitor.UpdateHealthy("api", "serving")
	}
	s.logger.Info("API server listening", "port", s.config.Port)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.running.Store(false)
		if s.monitor != nil {
			s.monitor.UpdateUnhealthy("api", "listener failed")
		}
		return errors.WrapInternal(err, "Server", "Start",
			fmt.Sprintf("listen on port %d", s.config.Port))
	}

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	if s.monitor != nil {
		s.monitor.UpdateUnhealthy("api", "shutting down")
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.WrapInternal(err, "Server", "Stop", "graceful shutdown")
	}
	return nil
}

// instrument wraps a handler with request ID, CORS and duration recording
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := getOrGenerateRequestID(r)
		w.Header().Set("X-Request-ID", requestID)

		if s.config.EnableCORS {
			s.applyCORS(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
		}
	}
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// getOrGenerateRequestID extracts the request ID from headers or generates
// a new one for tracing across services
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// applyCORS applies CORS headers to the response
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}

	if allowed {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")
	}
}
