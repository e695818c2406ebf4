package search

import (
	"strings"
	"testing"

	"github.com/hyperjump/thoreau/internal/models"
)

var benchPage = strings.Repeat(`<p>The pond rises and falls, and whether regularly or not, and within what period,
nobody knows. <a href="/pages/the-ponds" title="pond">Walden Pond</a> is a clear and deep green well.</p>
<script>var pond = 1;</script>`, 50)

func BenchmarkHighlight(b *testing.B) {
	h := NewHighlighter(BuildPattern([]string{"walden pond", "walden", "pond"}), DefaultHighlightClass)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Highlight(benchPage)
	}
}

func BenchmarkExcerpt(b *testing.B) {
	ex := NewExcerpter(0, 0, "")
	text := StripMarkup(benchPage)
	pattern := BuildPattern([]string{"deep green", "deep", "green"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ex.Build(text, "deep green", pattern)
	}
}

func BenchmarkAnalyzeAndOrder(b *testing.B) {
	stopwords := StopwordSource("wordpress")
	for i := 0; i < b.N; i++ {
		q := &models.SearchQuery{Phrase: `"walden pond" the ice in winter`}
		Analyze(q, stopwords)
		_ = OrderClause(q, DefaultColumns, 10)
	}
}
