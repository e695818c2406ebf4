// Package search parses search phrases, ranks and restricts searches, and
// renders highlighted titles, excerpts and pages.
package search

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/thoreau/internal/config"
	"github.com/hyperjump/thoreau/internal/metrics"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pipeline"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// maxSuggestions caps the alternatives offered when nothing matched.
const maxSuggestions = 3

// Analyzer derives search terms from a query phrase.
type Analyzer interface {
	Analyze(q *models.SearchQuery)
}

// Suggester offers alternative phrases for a search that found nothing.
type Suggester interface {
	Suggestions(phrase string, n int) []string
}

// Engine runs searches through the pipeline against the store.
type Engine struct {
	store     storage.Storage
	pipeline  *pipeline.Pipeline
	analyzer  Analyzer
	suggester Suggester
	metrics   *metrics.Metrics
	config    *config.SearchConfig
	baseURL   string
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSuggester enables spelling suggestions for empty results.
func WithSuggester(s Suggester) EngineOption {
	return func(e *Engine) {
		e.suggester = s
	}
}

// WithMetrics records search metrics.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithBaseURL prefixes permalinks.
func WithBaseURL(u string) EngineOption {
	return func(e *Engine) {
		e.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = utils.OrNop(l)
	}
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Storage, p *pipeline.Pipeline, analyzer Analyzer, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	e := &Engine{
		store:    store,
		pipeline: p,
		analyzer: analyzer,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Permalink returns the link of doc.
func (e *Engine) Permalink(doc *models.Document) string {
	return e.baseURL + "/pages/" + doc.Slug
}

func (e *Engine) applyLimits(q *models.SearchQuery) {
	if q.Limit <= 0 && e.config.DefaultLimit > 0 {
		q.Limit = e.config.DefaultLimit
	}
	if e.config.MaxLimit > 0 && q.Limit > e.config.MaxLimit {
		q.Limit = e.config.MaxLimit
	}
}

// Search runs req.Query and renders each hit inside the search loop.
func (e *Engine) Search(ctx context.Context, req *pipeline.Request) (*models.SearchResponse, error) {
	start := time.Now()
	if req == nil || req.Query == nil {
		return nil, fmt.Errorf("search phrase cannot be empty")
	}
	q := req.Query
	e.applyLimits(q)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	e.analyzer.Analyze(q)
	req.IsSearch = true

	desc := &models.QueryDescriptor{IsSearch: true, IsAdmin: req.IsAdmin, Query: q}
	e.pipeline.BeforeQuery(ctx, req, desc)
	order := e.pipeline.SearchOrder(ctx, desc)

	docs, total, err := e.store.SearchDocuments(ctx, storage.SearchSpec{
		Terms:      q.Terms,
		PostType:   desc.PostType,
		ExcludeIDs: desc.ExcludeIDs,
		Order:      order,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var hidden []int64
	if !req.IsAdmin {
		hidden = req.Pages.Aggregation(ctx)
	}
	response := &models.SearchResponse{
		Results: make([]*models.SearchResult, 0, len(docs)),
		Total:   total,
		Query:   q.Phrase,
		Terms:   q.Terms,
	}
	for _, doc := range docs {
		if utils.ContainsID(hidden, doc.ID) {
			response.Total--
			continue
		}
		response.Results = append(response.Results, e.renderResult(ctx, req, doc, q.Offset+len(response.Results)+1))
	}

	if response.Total == 0 && e.suggester != nil && e.config.SuggestionsOrDefault() {
		response.Suggestions = e.suggester.Suggestions(q.Phrase, maxSuggestions)
		if len(response.Suggestions) > 0 {
			e.metrics.Suggested()
		}
	}

	elapsed := time.Since(start)
	response.QueryTime = elapsed.Milliseconds()
	e.metrics.ObserveSearch(elapsed, response.Total)
	e.logger.Debug("search",
		zap.String("request_id", req.ID),
		zap.String("phrase", q.Phrase),
		zap.Strings("terms", q.Terms),
		zap.String("order", order.String()),
		zap.Int("total", response.Total),
		zap.Duration("elapsed", elapsed))
	return response, nil
}

func (e *Engine) renderResult(ctx context.Context, req *pipeline.Request, doc *models.Document, rank int) *models.SearchResult {
	item := req.WithDocument(doc)
	item.InLoop = true
	return &models.SearchResult{
		Document:  doc,
		Title:     e.pipeline.RenderTitle(ctx, item, html.EscapeString(doc.Title)),
		Excerpt:   e.pipeline.RenderContent(ctx, item, doc.Content),
		Permalink: e.pipeline.RenderPermalink(ctx, item, e.Permalink(doc)),
		Rank:      rank,
	}
}

// RenderedPage is a document rendered for display.
type RenderedPage struct {
	Title   string
	Content string
	// Highlighted is set when at least one search match was wrapped.
	Highlighted bool
}

// RenderPage renders doc as a single page. When req carries a search phrase
// the content filters highlight it.
func (e *Engine) RenderPage(ctx context.Context, req *pipeline.Request, doc *models.Document) RenderedPage {
	page := req.WithDocument(doc)
	page.IsPage = true
	page.InLoop = false
	page.Highlights = 0
	if page.Query != nil && page.Query.Terms == nil {
		e.analyzer.Analyze(page.Query)
	}
	content := e.pipeline.RenderContent(ctx, page, doc.Content)
	return RenderedPage{
		Title:       e.pipeline.RenderTitle(ctx, page, html.EscapeString(doc.Title)),
		Content:     content,
		Highlighted: page.Highlights > 0,
	}
}
