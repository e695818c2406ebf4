package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Suggestion is a dictionary term close to a misspelled one.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
	Score     float64
}

// Correction is the outcome of checking a search phrase.
type Correction struct {
	Original   string
	Corrected  string
	Misspelled []string
}

// Changed reports whether any word was replaced.
func (c Correction) Changed() bool {
	return len(c.Misspelled) > 0 && c.Corrected != c.Original
}

// SpellChecker suggests corrections from a term dictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	minLength      int
	maxSuggestions int

	mu    sync.RWMutex
	terms []string
	set   map[string]struct{}
	valid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer documents.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions per word.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		minLength:      3,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached dictionary; the next check reloads it.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Refresh reloads the cached dictionary.
func (s *SpellChecker) Refresh() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}

	s.mu.Lock()
	s.terms = terms
	s.set = set
	s.valid = true
	s.mu.Unlock()
	return nil
}

func (s *SpellChecker) ensure() error {
	s.mu.RLock()
	valid := s.valid
	s.mu.RUnlock()
	if valid {
		return nil
	}
	return s.Refresh()
}

// Known reports whether word is in the dictionary.
func (s *SpellChecker) Known(word string) bool {
	if err := s.ensure(); err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[strings.ToLower(word)]
	return ok
}

// Suggest returns dictionary terms within the edit distance of word, best first.
func (s *SpellChecker) Suggest(word string) []Suggestion {
	if err := s.ensure(); err != nil {
		return nil
	}
	word = strings.ToLower(word)

	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	var out []Suggestion
	for _, term := range terms {
		if term == word {
			continue
		}
		diff := len(term) - len(word)
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		d := EditDistance(word, term)
		if d > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(term)
		if err != nil || freq < s.minFreq {
			continue
		}
		out = append(out, Suggestion{
			Term:      term,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// Correct replaces each unknown word of phrase with its best suggestion.
// Short words, numbers and words without suggestions are kept.
func (s *SpellChecker) Correct(phrase string) Correction {
	c := Correction{Original: phrase}
	words := strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	corrected := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < s.minLength || isNumeric(w) || s.Known(w) {
			corrected = append(corrected, w)
			continue
		}
		sugg := s.Suggest(w)
		if len(sugg) == 0 {
			corrected = append(corrected, w)
			continue
		}
		c.Misspelled = append(c.Misspelled, w)
		corrected = append(corrected, sugg[0].Term)
	}
	c.Corrected = strings.Join(corrected, " ")
	return c
}

// Suggestions returns up to n alternative phrases for phrase.
func (s *SpellChecker) Suggestions(phrase string, n int) []string {
	if n <= 0 {
		return nil
	}
	c := s.Correct(phrase)
	if !c.Changed() {
		return nil
	}
	out := []string{c.Corrected}
	// Single-word queries can offer runners-up too.
	if len(c.Misspelled) == 1 && len(strings.Fields(c.Corrected)) == 1 {
		for _, sg := range s.Suggest(c.Misspelled[0])[1:] {
			if len(out) >= n {
				break
			}
			out = append(out, sg.Term)
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
