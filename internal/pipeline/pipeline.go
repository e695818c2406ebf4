// Package pipeline composes the named extension points that shape a search
// query and the rendering of its results.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperjump/thoreau/internal/models"
)

// DefaultPriority is the priority of filters registered without one.
const DefaultPriority = 10

// TextFilter rewrites rendered text for a request.
type TextFilter func(ctx context.Context, req *Request, text string) string

// QueryHook adjusts a query before it runs.
type QueryHook func(ctx context.Context, req *Request, desc *models.QueryDescriptor)

// OrderHook replaces the order expression of a query.
type OrderHook func(ctx context.Context, desc *models.QueryDescriptor, current models.OrderExpr) models.OrderExpr

// StopwordHook extends the base stopword list.
type StopwordHook func(base []string) []string

type textEntry struct {
	priority int
	seq      int
	filter   TextFilter
}

type textChain struct {
	entries []textEntry
}

func (c *textChain) add(priority, seq int, f TextFilter) {
	c.entries = append(c.entries, textEntry{priority: priority, seq: seq, filter: f})
	sort.SliceStable(c.entries, func(i, j int) bool {
		if c.entries[i].priority != c.entries[j].priority {
			return c.entries[i].priority < c.entries[j].priority
		}
		return c.entries[i].seq < c.entries[j].seq
	})
}

func (c *textChain) run(ctx context.Context, req *Request, text string) string {
	for _, e := range c.entries {
		text = e.filter(ctx, req, text)
	}
	return text
}

// Pipeline holds the registered hooks. Register at startup; running is safe
// for concurrent requests.
type Pipeline struct {
	mu        sync.RWMutex
	seq       int
	before    []QueryHook
	order     []OrderHook
	stopwords []StopwordHook
	content   textChain
	title     textChain
	permalink textChain
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// OnBeforeQuery registers a hook run before a query executes.
func (p *Pipeline) OnBeforeQuery(h QueryHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.before = append(p.before, h)
}

// OnSearchOrder registers an order hook. Hooks run in registration order,
// each receiving the previous result.
func (p *Pipeline) OnSearchOrder(h OrderHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append(p.order, h)
}

// OnStopwords registers a stopword hook.
func (p *Pipeline) OnStopwords(h StopwordHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopwords = append(p.stopwords, h)
}

// OnRenderContent registers a document content filter. Lower priorities run first.
func (p *Pipeline) OnRenderContent(priority int, f TextFilter) {
	p.addText(&p.content, priority, f)
}

// OnRenderTitle registers a title filter.
func (p *Pipeline) OnRenderTitle(priority int, f TextFilter) {
	p.addText(&p.title, priority, f)
}

// OnRenderPermalink registers a permalink filter.
func (p *Pipeline) OnRenderPermalink(priority int, f TextFilter) {
	p.addText(&p.permalink, priority, f)
}

func (p *Pipeline) addText(c *textChain, priority int, f TextFilter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	c.add(priority, p.seq, f)
}

// BeforeQuery runs the before-query hooks on desc.
func (p *Pipeline) BeforeQuery(ctx context.Context, req *Request, desc *models.QueryDescriptor) {
	p.mu.RLock()
	hooks := p.before
	p.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, req, desc)
	}
}

// SearchOrder folds the order hooks over an empty expression.
func (p *Pipeline) SearchOrder(ctx context.Context, desc *models.QueryDescriptor) models.OrderExpr {
	p.mu.RLock()
	hooks := p.order
	p.mu.RUnlock()
	var expr models.OrderExpr
	for _, h := range hooks {
		expr = h(ctx, desc, expr)
	}
	return expr
}

// Stopwords folds the stopword hooks over base.
func (p *Pipeline) Stopwords(base []string) []string {
	p.mu.RLock()
	hooks := p.stopwords
	p.mu.RUnlock()
	words := append([]string(nil), base...)
	for _, h := range hooks {
		words = h(words)
	}
	return words
}

// RenderContent runs the content filters.
func (p *Pipeline) RenderContent(ctx context.Context, req *Request, text string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.content.run(ctx, req, text)
}

// RenderTitle runs the title filters.
func (p *Pipeline) RenderTitle(ctx context.Context, req *Request, text string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.title.run(ctx, req, text)
}

// RenderPermalink runs the permalink filters.
func (p *Pipeline) RenderPermalink(ctx context.Context, req *Request, link string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.permalink.run(ctx, req, link)
}
