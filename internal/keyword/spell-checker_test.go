package keyword

import (
	"errors"
	"testing"
)

// mockTermDictionary is a TermDictionary backed by a map of term frequencies.
type mockTermDictionary struct {
	terms  map[string]int
	allErr error
	loads  int
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	m.loads++
	if m.allErr != nil {
		return nil, m.allErr
	}
	out := make([]string, 0, len(m.terms))
	for t := range m.terms {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	return m.terms[term], nil
}

func newTestChecker(opts ...SpellCheckerOption) (*SpellChecker, *mockTermDictionary) {
	dict := &mockTermDictionary{terms: map[string]int{
		"walden":   12,
		"pond":     30,
		"ponds":    4,
		"solitude": 3,
		"beans":    5,
		"rare":     0,
	}}
	return NewSpellChecker(dict, opts...), dict
}

func TestSpellChecker_Options(t *testing.T) {
	sc, _ := newTestChecker(WithMaxDistance(3), WithMinFrequency(5), WithMaxSuggestions(1))
	if sc.maxDistance != 3 || sc.minFreq != 5 || sc.maxSuggestions != 1 {
		t.Errorf("options not applied: %+v", sc)
	}
	sc, _ = newTestChecker(WithMaxDistance(0), WithMinFrequency(-1), WithMaxSuggestions(0))
	if sc.maxDistance != 2 || sc.minFreq != 1 || sc.maxSuggestions != 5 {
		t.Errorf("invalid options should keep defaults: %+v", sc)
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	sc, _ := newTestChecker()
	got := sc.Suggest("pondd")
	if len(got) < 2 {
		t.Fatalf("expected at least 2 suggestions, got %+v", got)
	}
	if got[0].Term != "pond" {
		t.Errorf("best suggestion = %q, want pond (most frequent)", got[0].Term)
	}
	for _, s := range got {
		if s.Term == "rare" {
			t.Error("terms below min frequency must not be suggested")
		}
	}
	if got := sc.Suggest("xyzzyq"); len(got) != 0 {
		t.Errorf("unexpected suggestions: %+v", got)
	}
}

func TestSpellChecker_Correct(t *testing.T) {
	sc, _ := newTestChecker()
	tests := []struct {
		phrase      string
		want        string
		wantChanged bool
	}{
		{"wladen pond", "walden pond", true},
		{"Walden", "walden", false},
		{"soltude", "solitude", true},
		{"an 1854 qqqqqq", "an 1854 qqqqqq", false},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			c := sc.Correct(tt.phrase)
			if c.Corrected != tt.want {
				t.Errorf("Corrected = %q, want %q", c.Corrected, tt.want)
			}
			if c.Changed() != tt.wantChanged {
				t.Errorf("Changed() = %v, want %v", c.Changed(), tt.wantChanged)
			}
		})
	}
}

func TestSpellChecker_Suggestions(t *testing.T) {
	sc, _ := newTestChecker()
	got := sc.Suggestions("pondd", 3)
	if len(got) == 0 || got[0] != "pond" {
		t.Fatalf("Suggestions = %v", got)
	}
	if len(got) > 3 {
		t.Errorf("more than n suggestions: %v", got)
	}
	if got := sc.Suggestions("walden", 3); got != nil {
		t.Errorf("known words need no suggestion, got %v", got)
	}
	if got := sc.Suggestions("pondd", 0); got != nil {
		t.Errorf("n=0 should return nil, got %v", got)
	}
}

func TestSpellChecker_CacheAndInvalidate(t *testing.T) {
	sc, dict := newTestChecker()
	sc.Known("pond")
	sc.Known("walden")
	if dict.loads != 1 {
		t.Errorf("dictionary loaded %d times, want 1", dict.loads)
	}
	dict.terms["thoreau"] = 2
	if sc.Known("thoreau") {
		t.Error("stale cache should not know new term")
	}
	sc.Invalidate()
	if !sc.Known("thoreau") {
		t.Error("new term should be known after Invalidate")
	}
}

func TestSpellChecker_DictionaryError(t *testing.T) {
	dict := &mockTermDictionary{allErr: errors.New("boom")}
	sc := NewSpellChecker(dict)
	if sc.Known("pond") {
		t.Error("Known should be false when the dictionary fails")
	}
	if got := sc.Suggestions("pondd", 2); got != nil {
		t.Errorf("Suggestions on failure = %v", got)
	}
}
