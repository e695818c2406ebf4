package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/thoreau/pkg/utils"
)

func numbered(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return strings.Join(words, " ")
}

func TestExcerpter_PhraseWindow(t *testing.T) {
	doc := "<p>" + numbered("w", 20) + " walden pond " + numbered("x", 60) + "</p>"
	pattern := BuildPattern([]string{"walden pond", "walden", "pond"})

	ex := NewExcerpter(0, 0, "").Build(doc, "walden pond", pattern)
	if ex.Source != SourcePhrase {
		t.Errorf("Source = %s", ex.Source)
	}
	if n := utils.WordCount(ex.Text); n != DefaultExcerptWords {
		t.Errorf("word count = %d, want %d", n, DefaultExcerptWords)
	}
	if !strings.HasPrefix(ex.Text, "w11 w12") {
		t.Errorf("window should start ten words before the phrase: %q", ex.Text)
	}
	if !strings.HasSuffix(ex.Text, "x43") {
		t.Errorf("window should end at word 55: %q", ex.Text)
	}
	if !strings.Contains(ex.HTML, `w20 <span class="search_highlight">walden pond</span> x1`) {
		t.Errorf("phrase not highlighted: %s", ex.HTML)
	}
	if !strings.HasPrefix(ex.HTML, "&hellip;") || !strings.HasSuffix(ex.HTML, "&hellip;") {
		t.Errorf("excerpt should be wrapped in ellipses: %s", ex.HTML)
	}
}

func TestExcerpter_MatchInsideWord(t *testing.T) {
	ex := NewExcerpter(0, 0, "").Build("<p>near unwalden pond</p>", "walden", BuildPattern([]string{"walden"}))
	if ex.Text != "near unwalden pond" {
		t.Errorf("no space should be inserted inside a word: %q", ex.Text)
	}
}

func TestExcerpter_TermFallback(t *testing.T) {
	doc := "<p>Most men lead lives of quiet desperation. The pond is deep.</p>"
	ex := NewExcerpter(0, 0, "").Build(doc, "deep lake", BuildPattern([]string{"deep lake", "deep", "lake"}))
	if ex.Source != SourceTerm {
		t.Errorf("Source = %s", ex.Source)
	}
	if ex.Text != "Most men lead lives of quiet desperation. The pond is deep." {
		t.Errorf("Text = %q", ex.Text)
	}
	if !strings.Contains(ex.HTML, `<span class="search_highlight">deep</span>.`) {
		t.Errorf("term not highlighted: %s", ex.HTML)
	}
}

func TestExcerpter_LeadFallback(t *testing.T) {
	doc := "<p>" + numbered("w", 70) + "</p>"
	tests := []struct {
		name    string
		phrase  string
		pattern []string
	}{
		{"no match", "zzz", []string{"zzz"}},
		{"no pattern", "zzz", nil},
		{"markup only query", "span", []string{"span"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExcerpter(0, 0, "").Build(`<span class="x">`+doc+`</span>`, tt.phrase, BuildPattern(tt.pattern))
			if ex.Source != SourceLead {
				t.Errorf("Source = %s", ex.Source)
			}
			if ex.Text != numbered("w", 55) {
				t.Errorf("Text = %q", ex.Text)
			}
			if strings.Contains(ex.HTML, "<span") {
				t.Errorf("lead excerpt should carry no highlight: %s", ex.HTML)
			}
		})
	}
}

func TestExcerpter_NeverExceedsWordLimit(t *testing.T) {
	docs := []string{
		"",
		"pond",
		"<p>" + numbered("w", 200) + " pond</p>",
		"pond " + numbered("w", 200),
		numbered("w", 5) + " walden pond " + numbered("w", 5),
		"<div>" + strings.Repeat("pond ", 120) + "</div>",
		"<script>pond()</script>",
		"<p unterminated",
	}
	phrases := []string{"pond", "walden pond", "w3", "", "<p>", "(", "w199 pond"}
	ex := NewExcerpter(0, 0, "")
	for _, d := range docs {
		for _, p := range phrases {
			got := ex.Build(d, p, BuildPattern(append([]string{p}, strings.Fields(p)...)))
			if n := utils.WordCount(got.Text); n > DefaultExcerptWords {
				t.Errorf("doc %.20q phrase %q: %d words", d, p, n)
			}
		}
	}
}

func TestExcerpter_CustomSizes(t *testing.T) {
	doc := numbered("w", 30) + " pond " + numbered("x", 30)
	ex := NewExcerpter(5, 2, "").Build(doc, "pond", BuildPattern([]string{"pond"}))
	if ex.Text != "w29 w30 pond x1 x2" {
		t.Errorf("Text = %q", ex.Text)
	}
}

func TestExcerpter_Escaping(t *testing.T) {
	ex := NewExcerpter(0, 0, "").Build("<p>Fish &amp; chips ]]> by the pond</p>", "pond", BuildPattern([]string{"pond"}))
	want := `&hellip;Fish &amp; chips ]]&gt; by the <span class="search_highlight">pond</span>&hellip;`
	if ex.HTML != want {
		t.Errorf("got  %s\nwant %s", ex.HTML, want)
	}
}

func TestStripShortcodes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`[caption id="1" align="left"]Picture of the pond[/caption]Walden`, "Walden"},
		{`[gallery ids="1,2"/] text`, " text"},
		{`[embed]`, ""},
		{`[[gallery]] stays`, "[gallery] stays"},
		{`[see below] and [1]`, "[see below] and [1]"},
		{`[gallery ids="1,2"]Walden Pond[caption id="c1"]Ice[/caption] in winter`, "Walden Pond in winter"},
		{`[video src="a.mp4"]Loon[/video] and [audio]`, " and "},
	}
	for _, tt := range tests {
		if got := StripShortcodes(tt.in); got != tt.want {
			t.Errorf("StripShortcodes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpter_SelfClosingShortcodeBeforeEnclosing(t *testing.T) {
	doc := `[gallery ids="1,2"]<p>Walden Pond lies in the woods.</p>[caption id="c1"]<img src="a.jpg"> Ice[/caption]`
	if got := StripMarkup(doc); got != "Walden Pond lies in the woods." {
		t.Fatalf("StripMarkup = %q", got)
	}
	ex := NewExcerpter(0, 0, "").Build(doc, "walden", BuildPattern([]string{"walden"}))
	if ex.Source != SourcePhrase {
		t.Errorf("source = %s, want %s", ex.Source, SourcePhrase)
	}
	want := `&hellip;<span class="search_highlight">Walden</span> Pond lies in the woods.&hellip;`
	if ex.HTML != want {
		t.Errorf("got  %s\nwant %s", ex.HTML, want)
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("  <p>I went to the <em>woods</em></p><script>alert(1)</script><style>p{}</style>  ")
	if got != "I went to the woods" {
		t.Errorf("StripTags = %q", got)
	}
}
