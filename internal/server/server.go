// Package server provides the HTTP API and the reader-facing pages of thoreau.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/thoreau/internal/comments"
	"github.com/hyperjump/thoreau/internal/config"
	"github.com/hyperjump/thoreau/internal/importer"
	"github.com/hyperjump/thoreau/internal/metrics"
	"github.com/hyperjump/thoreau/internal/pages"
	"github.com/hyperjump/thoreau/internal/search"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/pkg/utils"
	"go.uber.org/zap"
)

// DirectoryLister reports the directories watched for content changes.
type DirectoryLister interface {
	Directories() []string
}

// Server is the HTTP server for the thoreau edition.
type Server struct {
	engine     *search.Engine
	importer   *importer.Importer
	storage    storage.Storage
	aggregator *comments.Aggregator
	resolver   *pages.Resolver
	metrics    *metrics.Metrics
	watch      DirectoryLister
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records page views and serves the metrics endpoint when enabled.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithWatcher reports the watched directories in the status endpoint.
func WithWatcher(w DirectoryLister) Option {
	return func(s *Server) {
		s.watch = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = utils.OrNop(l)
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	imp *importer.Importer,
	storage storage.Storage,
	aggregator *comments.Aggregator,
	resolver *pages.Resolver,
	cfg *config.Config,
	opts ...Option,
) *Server {
	s := &Server{
		engine:     engine,
		importer:   imp,
		storage:    storage,
		aggregator: aggregator,
		resolver:   resolver,
		config:     cfg,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the request router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleIndex)
	r.Get("/search", s.handleSearchPage)
	r.Get("/pages/{slug}", s.handlePage)
	r.Get("/health", s.handleHealth)
	if s.config.Metrics.Enabled {
		r.Method(http.MethodGet, s.config.Metrics.Path, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
		r.Post("/reindex", s.handleReindex)

		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleSaveDocument)
		r.Get("/documents/{id:[0-9]+}", s.handleGetDocument)
		r.Delete("/documents/{id:[0-9]+}", s.handleDeleteDocument)

		r.Get("/comments/{kind:(?:featured|liked)}", s.handleCommentListing)
		r.Post("/comments", s.handleSaveComment)
		r.Get("/comments/{id:[0-9]+}", s.handleGetComment)
		r.Delete("/comments/{id:[0-9]+}", s.handleDeleteComment)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
