package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/thoreau/internal/config"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pipeline"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// PageHighlightPriority runs page highlighting after every other content filter.
const PageHighlightPriority = 10000

// Modifier restricts and orders searches and highlights their results.
// Build one in main and Register it on the pipeline.
type Modifier struct {
	terms          *StopwordSet
	body           *StopwordSet
	extraReserved  []string
	excerpter      *Excerpter
	class          string
	cols           Columns
	titleTierLimit int
	logger         *zap.Logger
}

// ModifierOption configures a Modifier.
type ModifierOption func(*Modifier)

// WithModifierLogger sets the logger.
func WithModifierLogger(l *zap.Logger) ModifierOption {
	return func(m *Modifier) {
		m.logger = utils.OrNop(l)
	}
}

// WithColumns overrides the column names used in order expressions.
func WithColumns(cols Columns) ModifierOption {
	return func(m *Modifier) {
		m.cols = cols
	}
}

// WithStopwords replaces the linguistic stopword set.
func WithStopwords(set *StopwordSet) ModifierOption {
	return func(m *Modifier) {
		if set != nil {
			m.terms = set
		}
	}
}

// NewModifier builds a modifier from search settings. A nil cfg uses the defaults.
func NewModifier(cfg *config.SearchConfig, opts ...ModifierOption) *Modifier {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	m := &Modifier{
		terms:          StopwordSource(cfg.StopwordSource),
		extraReserved:  cfg.ExtraReservedWords,
		excerpter:      NewExcerpter(cfg.ExcerptWords, cfg.PrecedingWords, cfg.HighlightClass),
		class:          cfg.HighlightClass,
		cols:           DefaultColumns,
		titleTierLimit: cfg.TitleTierLimit,
		logger:         zap.NewNop(),
	}
	if m.class == "" {
		m.class = DefaultHighlightClass
	}
	for _, opt := range opts {
		opt(m)
	}
	m.body = m.terms.WithReserved(m.extraReserved...)
	return m
}

// Register installs the modifier's hooks. Stopword hooks registered before
// this call contribute to the body-highlight stopwords.
func (m *Modifier) Register(p *pipeline.Pipeline) {
	p.OnStopwords(func(base []string) []string {
		return append(append(base, ReservedWords...), m.extraReserved...)
	})
	m.body = m.terms.With(p.Stopwords(m.terms.Words())...).WithReserved(m.extraReserved...)

	p.OnBeforeQuery(m.restrict)
	p.OnSearchOrder(m.order)
	p.OnRenderTitle(pipeline.DefaultPriority, m.highlightTitle)
	p.OnRenderContent(pipeline.DefaultPriority, m.excerpt)
	p.OnRenderContent(PageHighlightPriority, m.highlightPage)
	p.OnRenderPermalink(pipeline.DefaultPriority, m.permalink)
}

// Analyze derives the terms of q with the linguistic stopwords.
func (m *Modifier) Analyze(q *models.SearchQuery) {
	Analyze(q, m.terms)
}

// BodyStopwords returns the set filtered out of page highlighting.
func (m *Modifier) BodyStopwords() *StopwordSet {
	return m.body
}

func (m *Modifier) restrict(ctx context.Context, req *pipeline.Request, desc *models.QueryDescriptor) {
	if desc.IsAdmin || !desc.IsSearch {
		return
	}
	var ids []int64
	if req != nil {
		ids = req.Pages.Aggregation(ctx)
	}
	Restrict(desc, ids)
}

func (m *Modifier) order(_ context.Context, desc *models.QueryDescriptor, current models.OrderExpr) models.OrderExpr {
	if desc.IsAdmin || !desc.IsSearch || desc.Query == nil {
		return current
	}
	return OrderClause(desc.Query, m.cols, m.titleTierLimit)
}

func inSearchLoop(req *pipeline.Request) bool {
	return req != nil && req.IsSearch && req.InLoop && !req.IsAdmin && req.Phrase() != ""
}

func (m *Modifier) highlightTitle(_ context.Context, req *pipeline.Request, text string) string {
	if !inSearchLoop(req) {
		return text
	}
	// Titles are highlighted with every term, stopwords included.
	return NewHighlighter(BuildPattern(ExtractTerms(req.Query)), m.class).Highlight(text)
}

func (m *Modifier) excerpt(_ context.Context, req *pipeline.Request, text string) string {
	if !inSearchLoop(req) {
		return text
	}
	ex := m.excerpter.Build(text, req.Query.Phrase, BuildPattern(ExtractTerms(req.Query)))
	if req.Document != nil {
		m.logger.Debug("excerpt built",
			zap.String("request_id", req.ID),
			zap.Int64("document_id", req.Document.ID),
			zap.String("source", string(ex.Source)))
	}
	return ex.HTML
}

func (m *Modifier) highlightPage(_ context.Context, req *pipeline.Request, text string) string {
	if req == nil || !req.IsPage || req.InLoop || req.Phrase() == "" {
		return text
	}
	if req.Document != nil && req.Document.PostType != models.PostTypePage {
		return text
	}
	if req.Query.Terms == nil {
		m.Analyze(req.Query)
	}
	clean := FilterReserved(ExtractTerms(req.Query), m.body)
	pattern := BuildPattern(clean)
	if pattern == nil {
		return text
	}
	out, n := NewHighlighter(pattern, m.class).HighlightCount(text)
	req.Highlights += n
	return out
}

func (m *Modifier) permalink(_ context.Context, req *pipeline.Request, link string) string {
	if !inSearchLoop(req) {
		return link
	}
	return AddSearchArg(link, req.Query.Phrase)
}
