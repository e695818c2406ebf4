// Package keyword keeps a Bleve term dictionary of the corpus and suggests
// spelling corrections for searches that match nothing.
package keyword

import "context"

// TermIndex indexes document text by document ID.
type TermIndex interface {
	Index(ctx context.Context, id int64, title, text string) error
	Delete(ctx context.Context, id int64) error
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary provides access to the indexed terms for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of documents containing the term.
	GetTermFrequency(term string) (int, error)
}
