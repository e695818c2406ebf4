package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pages"
)

// Request carries per-request rendering state.
type Request struct {
	ID string
	// Query is the active search, nil when the request is not a search.
	Query *models.SearchQuery
	// IsSearch is set on search result requests.
	IsSearch bool
	// IsAdmin is set for administrative API calls, which are never rewritten.
	IsAdmin bool
	// IsPage is set when a single page is rendered.
	IsPage bool
	// InLoop is set while result items of a search are rendered.
	InLoop bool
	// Document is the document being rendered, if any.
	Document *models.Document
	// Pages memoizes aggregation page lookups for this request.
	Pages *pages.Memo
	// Highlights counts the matches content filters wrapped on a page.
	Highlights int
}

// NewRequest returns a request with a fresh ID.
func NewRequest(memo *pages.Memo) *Request {
	return &Request{ID: uuid.NewString(), Pages: memo}
}

// Phrase returns the search phrase, or "" when there is none.
func (r *Request) Phrase() string {
	if r == nil || r.Query == nil {
		return ""
	}
	return r.Query.Phrase
}

// WithDocument returns a shallow copy of r rendering doc.
func (r *Request) WithDocument(doc *models.Document) *Request {
	cp := *r
	cp.Document = doc
	return &cp
}

type requestKey struct{}

// NewContext returns ctx carrying req.
func NewContext(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// FromContext returns the request carried by ctx, if any.
func FromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey{}).(*Request)
	return req, ok && req != nil
}
