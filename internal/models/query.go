package models

import (
	"fmt"
	"strings"
)

// SearchQuery represents a search request. Terms and TermCount are derived
// from Phrase and are not accepted from clients.
type SearchQuery struct {
	Phrase    string   `json:"s"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	Terms     []string `json:"-"`
	TermCount int      `json:"-"`
}

// Validate trims the phrase and applies limit defaults. The upper bound on
// Limit belongs to the configured search engine.
// Returns an error if the phrase is empty.
func (q *SearchQuery) Validate() error {
	q.Phrase = strings.TrimSpace(q.Phrase)
	if q.Phrase == "" {
		return fmt.Errorf("search phrase cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// IsMultiWord reports whether the raw phrase holds more than one space-separated word.
func (q *SearchQuery) IsMultiWord() bool {
	return len(strings.Split(q.Phrase, " ")) > 1
}

// QueryDescriptor is the mutable description of a query handed to the
// before-query extension point.
type QueryDescriptor struct {
	IsSearch   bool
	IsAdmin    bool
	PostType   string
	ExcludeIDs []int64
	Query      *SearchQuery
}

// OrderExpr is an ORDER BY expression with its bound arguments, in the
// order the placeholders appear.
type OrderExpr struct {
	SQL  string
	Args []any
}

// String renders the expression with arguments inlined as quoted literals,
// for logs and debugging. Never execute the result.
func (o OrderExpr) String() string {
	var b strings.Builder
	args := o.Args
	for i := 0; i < len(o.SQL); i++ {
		if o.SQL[i] == '?' && len(args) > 0 {
			b.WriteString("'" + strings.ReplaceAll(fmt.Sprint(args[0]), "'", "''") + "'")
			args = args[1:]
			continue
		}
		b.WriteByte(o.SQL[i])
	}
	return b.String()
}
