package search

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// ReservedWords collide with class names, attributes and element names used in
// the edition's markup. They are never highlighted in page content.
var ReservedWords = []string{
	// HTML attributes
	"class", "lass", "ass", "as",
	// <span>
	"span", "spa", "pan", "an",
	// <cite>
	"cite",
	// .do-not-break
	"do", "not", "break",
	// .blockquote-in-para
	"blockquote", "block", "lock", "bloc", "quote", "in", "para",
	// .bq-indent-none
	"bq", "indent", "none", "non",
	// .bq-line-indent
	"line",
	// .leaders
	"leaders", "lead", "ad",
	// .table-item
	"table", "able", "tab", "item",
	// .table-item-indented
	"indented", "dented", "dent", "ted",
	// .tweaked-item
	"tweaked", "tweak", "weak",
	// .clearfix
	"clearfix", "clear", "fix", "ear",
	// .beanfield-2
	"beanfield", "field", "bean",
}

// WordPressStopwords is the default linguistic list used when parsing search terms.
var WordPressStopwords = []string{
	"about", "an", "are", "as", "at", "be", "by", "com", "for", "from", "how",
	"in", "is", "it", "of", "on", "or", "that", "the", "this", "to", "was",
	"what", "when", "where", "who", "will", "with", "www",
}

// Stopword sources selectable in configuration.
const (
	SourceWordPress = "wordpress"
	SourceSnowball  = "snowball"
)

// StopwordSet is a case-insensitive set of words. An optional predicate
// extends the set beyond its explicit members.
type StopwordSet struct {
	words     map[string]struct{}
	ordered   []string
	predicate func(string) bool
}

// NewStopwordSet builds a set from words; duplicates are kept once.
func NewStopwordSet(words ...string) *StopwordSet {
	s := &StopwordSet{words: make(map[string]struct{}, len(words))}
	s.Add(words...)
	return s
}

// NewSnowballStopwordSet returns a set backed by the Snowball English stopword list.
func NewSnowballStopwordSet() *StopwordSet {
	s := NewStopwordSet()
	s.predicate = english.IsStopWord
	return s
}

// StopwordSource returns the base linguistic set for a configured source name.
// Unknown names fall back to the WordPress list.
func StopwordSource(name string) *StopwordSet {
	if strings.EqualFold(name, SourceSnowball) {
		return NewSnowballStopwordSet()
	}
	return NewStopwordSet(WordPressStopwords...)
}

// Add inserts words that are not yet present.
func (s *StopwordSet) Add(words ...string) {
	for _, w := range words {
		lw := strings.ToLower(strings.TrimSpace(w))
		if lw == "" {
			continue
		}
		if _, ok := s.words[lw]; ok {
			continue
		}
		s.words[lw] = struct{}{}
		s.ordered = append(s.ordered, lw)
	}
}

// Contains reports whether w is a member, ignoring case.
func (s *StopwordSet) Contains(w string) bool {
	if s == nil {
		return false
	}
	lw := strings.ToLower(w)
	if _, ok := s.words[lw]; ok {
		return true
	}
	return s.predicate != nil && s.predicate(lw)
}

// Words returns the explicit members in insertion order.
func (s *StopwordSet) Words() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ordered...)
}

// With returns a copy of s that also contains words.
func (s *StopwordSet) With(words ...string) *StopwordSet {
	out := NewStopwordSet(s.Words()...)
	if s != nil {
		out.predicate = s.predicate
	}
	out.Add(words...)
	return out
}

// WithReserved returns a copy of s that also contains ReservedWords and extra.
func (s *StopwordSet) WithReserved(extra ...string) *StopwordSet {
	return s.With(append(append([]string(nil), ReservedWords...), extra...)...)
}

// FilterReserved drops terms that are members of set. Empty input yields an empty slice.
func FilterReserved(terms []string, set *StopwordSet) []string {
	clean := make([]string, 0, len(terms))
	for _, t := range terms {
		if set.Contains(t) {
			continue
		}
		clean = append(clean, t)
	}
	return clean
}
