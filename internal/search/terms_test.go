package search

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/thoreau/internal/models"
)

func TestParseTerms(t *testing.T) {
	stop := NewStopwordSet(WordPressStopwords...)
	tests := []struct {
		name   string
		phrase string
		want   []string
	}{
		{"plain words", "walden pond", []string{"walden", "pond"}},
		{"quoted group kept whole", `"walden pond" the woods`, []string{"walden pond", "woods"}},
		{"separators", "walden,pond+woods", []string{"walden", "pond", "woods"}},
		{"single letters and dashes dropped", "a - b woods", []string{"woods"}},
		{"unclosed quote", `"walden`, []string{"walden"}},
		{"quote after word", `woods"deep pond"`, []string{"woods", "deep pond"}},
		{"stopwords ignore case", "The Pond", []string{"Pond"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTerms(tt.phrase, stop); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTerms(%q) = %q, want %q", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	stop := NewStopwordSet(WordPressStopwords...)
	tests := []struct {
		name      string
		phrase    string
		wantTerms []string
		wantCount int
	}{
		{"two terms", "walden pond", []string{"walden", "pond"}, 2},
		{"count includes stopwords", "the pond", []string{"pond"}, 2},
		{"all filtered falls back to phrase", "a - b c", []string{"a - b c"}, 4},
		{"line breaks removed", "walden\r\n pond", []string{"walden", "pond"}, 2},
		{"only separators", ",,", []string{",,"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.SearchQuery{Phrase: tt.phrase}
			Analyze(q, stop)
			if !reflect.DeepEqual(q.Terms, tt.wantTerms) {
				t.Errorf("Terms = %q, want %q", q.Terms, tt.wantTerms)
			}
			if q.TermCount != tt.wantCount {
				t.Errorf("TermCount = %d, want %d", q.TermCount, tt.wantCount)
			}
		})
	}
}

func TestAnalyze_TooManyTerms(t *testing.T) {
	phrase := "one two three four five six seven eight nine ten"
	q := &models.SearchQuery{Phrase: phrase}
	Analyze(q, NewStopwordSet())
	if len(q.Terms) != 1 || q.Terms[0] != phrase {
		t.Errorf("expected the sentence as sole term, got %q", q.Terms)
	}
	if q.TermCount != 10 {
		t.Errorf("TermCount = %d", q.TermCount)
	}

	nine := strings.Join(strings.Fields(phrase)[:9], " ")
	q = &models.SearchQuery{Phrase: nine}
	Analyze(q, NewStopwordSet())
	if len(q.Terms) != 9 {
		t.Errorf("nine terms should be kept, got %q", q.Terms)
	}
}

func TestExtractTerms(t *testing.T) {
	multi := &models.SearchQuery{Phrase: "walden pond", Terms: []string{"walden", "pond"}}
	if got := ExtractTerms(multi); !reflect.DeepEqual(got, []string{"walden pond", "walden", "pond"}) {
		t.Errorf("multi-word = %q", got)
	}
	if got := ExtractTerms(multi); got[0] != multi.Phrase {
		t.Error("first alternative must be the phrase")
	}

	single := &models.SearchQuery{Phrase: "pond", Terms: []string{"pond"}}
	if got := ExtractTerms(single); !reflect.DeepEqual(got, []string{"pond"}) {
		t.Errorf("single word = %q", got)
	}
}
