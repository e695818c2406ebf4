package search

import (
	"strings"
	"testing"
)

func TestBuildPattern(t *testing.T) {
	re := BuildPattern([]string{"walden pond", " walden ", "pond"})
	if re == nil {
		t.Fatal("expected a pattern")
	}
	if got := re.String(); got != `(?i)(walden pond|walden|pond)` {
		t.Errorf("pattern = %s", got)
	}
	if m := re.FindString("the Walden Pond shore"); m != "Walden Pond" {
		t.Errorf("phrase should win over single terms, matched %q", m)
	}
	if BuildPattern([]string{" ", ""}) != nil {
		t.Error("blank terms should give no pattern")
	}
	if BuildPattern(nil) != nil {
		t.Error("no terms should give no pattern")
	}

	literal := BuildPattern([]string{"a.b"})
	if literal.MatchString("axb") || !literal.MatchString("A.B") {
		t.Error("terms should match literally and ignore case")
	}
}

func TestHighlighter_HighlightText(t *testing.T) {
	h := NewHighlighter(BuildPattern([]string{"walden pond", "pond"}), "")
	got := h.HighlightText("Walden Pond & pond")
	want := `<span class="search_highlight">Walden Pond</span> &amp; <span class="search_highlight">pond</span>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	plain := NewHighlighter(nil, "").HighlightText("a < b")
	if plain != "a &lt; b" {
		t.Errorf("nil pattern should only escape, got %s", plain)
	}
}

func TestHighlighter_Highlight(t *testing.T) {
	h := NewHighlighter(BuildPattern([]string{"pond"}), "")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"attributes untouched",
			`<p class="pond">Walden <a href="/pond">pond</a></p>`,
			`<p class="pond">Walden <a href="/pond"><span class="search_highlight">pond</span></a></p>`,
		},
		{
			"script and style bodies untouched",
			`<script>var pond = 1;</script><style>.pond{}</style><p>pond</p>`,
			`<script>var pond = 1;</script><style>.pond{}</style><p><span class="search_highlight">pond</span></p>`,
		},
		{
			"entities re-escaped",
			`<p>Thoreau &amp; pond</p>`,
			`<p>Thoreau &amp; <span class="search_highlight">pond</span></p>`,
		},
		{
			"no match",
			`<p>woods</p>`,
			`<p>woods</p>`,
		},
		{
			"empty",
			``,
			``,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Highlight(tt.in); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestHighlighter_Idempotent(t *testing.T) {
	inputs := []string{
		`<p>Walden Pond and the pond</p>`,
		`search span highlight`,
		`<blockquote class="bq-indent-none">deep <em>pond</em> water</blockquote>`,
	}
	h := NewHighlighter(BuildPattern([]string{"walden pond", "pond", "search", "span", "highlight"}), "")
	for _, in := range inputs {
		once := h.Highlight(in)
		twice := h.Highlight(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce  %s\ntwice %s", in, once, twice)
		}
		if !strings.Contains(once, h.Marker()) {
			t.Errorf("expected a marker in %s", once)
		}
	}
}

func TestHighlighter_NilPattern(t *testing.T) {
	in := `<p>pond</p>`
	if got := NewHighlighter(nil, "").Highlight(in); got != in {
		t.Errorf("nil pattern changed the fragment: %s", got)
	}
}

func TestHighlighter_CustomClass(t *testing.T) {
	h := NewHighlighter(BuildPattern([]string{"pond"}), "hit")
	if got := h.HighlightText("pond"); got != `<span class="hit">pond</span>` {
		t.Errorf("got %s", got)
	}
}

func TestHighlighter_HighlightCount(t *testing.T) {
	h := NewHighlighter(BuildPattern([]string{"pond"}), "")
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"escaped text without a match", `<p>Thoreau's "cabin" &amp; woods</p>`, 0},
		{"two matches", `<p>pond</p><em>Pond</em>`, 2},
		{"already marked", `<span class="search_highlight">pond</span> and pond`, 1},
		{"attribute only", `<a title="pond">woods</a>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, n := h.HighlightCount(tt.in); n != tt.want {
				t.Errorf("HighlightCount(%q) = %d, want %d", tt.in, n, tt.want)
			}
		})
	}
}
