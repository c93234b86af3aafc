// Package server provides the HTTP API for Tessera.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hyperjump/tessera/internal/config"
	"github.com/hyperjump/tessera/internal/metrics"
	"github.com/hyperjump/tessera/internal/mosaic"
	"github.com/hyperjump/tessera/internal/nn"
	"github.com/hyperjump/tessera/internal/storage"
)

// loadedIndex is an index together with where and when it was loaded.
type loadedIndex struct {
	index    nn.Index
	path     string
	loadedAt time.Time
}

// Server is the HTTP server for the Tessera API.
type Server struct {
	current   atomic.Pointer[loadedIndex]
	renderer  *mosaic.Renderer
	storage   storage.Storage
	config    *config.Config
	logger    *zap.Logger
	collector metrics.Collector
	metrics   http.Handler
	renders   *semaphore.Weighted
	limiter   *rate.Limiter
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics in p and serves them on /metrics.
func WithMetrics(p *metrics.Prometheus) Option {
	return func(s *Server) {
		s.collector = p
		s.metrics = p.Handler()
	}
}

// NewServer creates a server with the given dependencies. storage may be nil, in which case
// the status endpoint omits corpus and build information.
func NewServer(
	cfg *config.Config,
	renderer *mosaic.Renderer,
	store storage.Storage,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		renderer:  renderer,
		storage:   store,
		config:    cfg,
		logger:    logger,
		collector: metrics.NoopCollector{},
		renders:   semaphore.NewWeighted(int64(max(1, cfg.Server.MaxConcurrentRenders))),
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), max(1, cfg.Server.RateBurst))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIndex atomically replaces the served index. In-flight renders keep the index they
// started with.
func (s *Server) SetIndex(idx nn.Index, path string) {
	s.current.Store(&loadedIndex{index: idx, path: path, loadedAt: time.Now().UTC()})
	s.collector.RecordIndexLoad(idx.Type(), idx.Size(), nil)
	s.logger.Info("index loaded",
		zap.String("type", idx.Type()),
		zap.Int("size", idx.Size()),
		zap.Int("tile_side", idx.TileSide()),
		zap.String("path", path))
}

// Reload loads the index artifact at path and serves it. On failure the current index is kept.
func (s *Server) Reload(path string) error {
	idx, err := nn.Load(path)
	if err != nil {
		s.collector.RecordIndexLoad("", 0, err)
		s.logger.Error("index reload failed", zap.String("path", path), zap.Error(err))
		return err
	}
	s.SetIndex(idx, path)
	return nil
}

// Index returns the served index, or nil before one is loaded.
func (s *Server) Index() nn.Index {
	if cur := s.current.Load(); cur != nil {
		return cur.index
	}
	return nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{s.config.Server.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			ExposedHeaders:   []string{"Content-Range", "X-Content-Range"},
			AllowCredentials: true,
			MaxAge:           int(s.config.Server.CORSMaxAge / time.Second),
		}))
		r.Get("/health", s.handleHealth)
		r.Post("/create-mosaic", s.handleCreateMosaic)
		r.Get("/v1/status", s.handleStatus)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
