package search

import (
	"strings"

	"github.com/hyperjump/thoreau/internal/models"
)

// maxParsedTerms is the term count above which the whole phrase is searched as a sentence.
const maxParsedTerms = 9

func isTermSep(c byte) bool {
	return c == '\t' || c == ' ' || c == '"' || c == ',' || c == '+'
}

// tokenize splits a phrase into quoted groups and runs of characters other
// than tab, space, double quote, comma and plus.
func tokenize(phrase string) []string {
	var tokens []string
	for i := 0; i < len(phrase); {
		c := phrase[i]
		switch {
		case c == '"':
			end := strings.IndexByte(phrase[i+1:], '"')
			if end < 0 {
				tokens = append(tokens, phrase[i:])
				i = len(phrase)
			} else {
				tokens = append(tokens, phrase[i:i+end+2])
				i += end + 2
			}
		case isTermSep(c):
			i++
		default:
			j := i
			for j < len(phrase) && !isTermSep(phrase[j]) {
				j++
			}
			tokens = append(tokens, phrase[i:j])
			i = j
		}
	}
	return tokens
}

// ParseTerms returns the searchable terms of phrase with stopwords, single
// letters and lone dashes removed, in phrase order.
func ParseTerms(phrase string, stopwords *StopwordSet) []string {
	var terms []string
	for _, tok := range tokenize(phrase) {
		term := strings.Trim(tok, "\"' ")
		if term == "" {
			continue
		}
		if len(term) == 1 && (isASCIILetter(term[0]) || term[0] == '-') {
			continue
		}
		if stopwords.Contains(term) {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Analyze fills the derived Terms and TermCount of q. TermCount is the number
// of raw tokens before filtering. When filtering leaves nothing, or leaves too
// many terms, the phrase itself is the only term.
func Analyze(q *models.SearchQuery, stopwords *StopwordSet) {
	q.Phrase = strings.NewReplacer("\r", "", "\n", "").Replace(q.Phrase)
	tokens := tokenize(q.Phrase)
	q.TermCount = len(tokens)
	if q.TermCount == 0 {
		q.Terms = []string{q.Phrase}
		return
	}
	terms := ParseTerms(q.Phrase, stopwords)
	if len(terms) == 0 || len(terms) > maxParsedTerms {
		terms = []string{q.Phrase}
	}
	q.Terms = terms
}

// ExtractTerms returns the highlight alternatives for q in priority order.
// A multi-word phrase comes first so whole-phrase matches win over single terms.
func ExtractTerms(q *models.SearchQuery) []string {
	keys := make([]string, 0, len(q.Terms)+1)
	if q.IsMultiWord() {
		keys = append(keys, q.Phrase)
	}
	return append(keys, q.Terms...)
}
