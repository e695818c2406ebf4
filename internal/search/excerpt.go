package search

import (
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/hyperjump/thoreau/pkg/utils"
)

// Excerpt window defaults.
const (
	DefaultExcerptWords   = 55
	DefaultPrecedingWords = 10
	ellipsis              = "&hellip;"
)

// ExcerptSource says how an excerpt window was anchored.
type ExcerptSource string

const (
	// SourcePhrase means the literal phrase was found.
	SourcePhrase ExcerptSource = "phrase"
	// SourceTerm means the window starts at the first highlighted term.
	SourceTerm ExcerptSource = "term"
	// SourceLead means nothing matched and the excerpt is the document lead.
	SourceLead ExcerptSource = "lead"
)

// Excerpt is a bounded window of a document.
type Excerpt struct {
	// Text is the plain-text window, at most the configured word count.
	Text string
	// HTML is Text escaped and highlighted, wrapped in ellipses.
	HTML   string
	Source ExcerptSource
}

// Excerpter builds excerpts around search matches.
type Excerpter struct {
	words     int
	preceding int
	class     string
}

// NewExcerpter returns an excerpter. Non-positive sizes take the defaults.
func NewExcerpter(words, preceding int, class string) *Excerpter {
	if words <= 0 {
		words = DefaultExcerptWords
	}
	if preceding <= 0 {
		preceding = DefaultPrecedingWords
	}
	return &Excerpter{words: words, preceding: preceding, class: class}
}

// Build returns the excerpt of document for phrase, highlighting with pattern.
func (e *Excerpter) Build(document, phrase string, pattern *regexp.Regexp) Excerpt {
	text := StripMarkup(document)
	h := NewHighlighter(pattern, e.class)

	if loc := findPhrase(text, phrase); loc != nil {
		joined := e.join(text[:loc[0]], text[loc[0]:])
		return e.wrap(joined, h.HighlightText(joined), SourcePhrase)
	}
	if pattern != nil {
		if loc := firstMatch(pattern, text); loc != nil {
			joined := e.join(text[:loc[0]], text[loc[0]:])
			return e.wrap(joined, h.HighlightText(joined), SourceTerm)
		}
	}
	// The query may target markup rather than visible text.
	lead := utils.TrimWords(text, e.words)
	return e.wrap(lead, NewHighlighter(nil, e.class).HighlightText(lead), SourceLead)
}

func (e *Excerpter) wrap(text, highlighted string, src ExcerptSource) Excerpt {
	return Excerpt{Text: text, HTML: ellipsis + highlighted + ellipsis, Source: src}
}

// join keeps up to the configured number of words before the match and trims
// the result. A space is kept between them only when the match starts a word.
func (e *Excerpter) join(preceding, subsequent string) string {
	sep := ""
	if utils.EndsWithSpace(preceding) {
		sep = " "
	}
	previous := utils.LastWords(preceding, e.preceding)
	return utils.TrimWords(previous+sep+subsequent, e.words)
}

func findPhrase(text, phrase string) []int {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
	if err != nil {
		return nil
	}
	return re.FindStringIndex(text)
}

func firstMatch(pattern *regexp.Regexp, text string) []int {
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[1] > loc[0] {
			return loc
		}
	}
	return nil
}

// DefaultShortcodes are the shortcode names removed before excerpting.
var DefaultShortcodes = []string{"audio", "caption", "embed", "gallery", "playlist", "video", "wp_caption"}

var defaultShortcodeRe = ShortcodePattern(DefaultShortcodes...)

// ShortcodePattern matches the named shortcodes: self-closing and lone
// opening tags, and enclosing pairs with their content. An opening tag only
// pairs with a closing tag of the same name.
func ShortcodePattern(names ...string) *regexp.Regexp {
	branches := make([]string, len(names))
	for i, n := range names {
		q := regexp.QuoteMeta(n)
		branches[i] = `\[\[?` + q + `(?:\s[^\]]*)?\](?:.*?\[/` + q + `\])?\]?`
	}
	return regexp.MustCompile(`(?s)(?:` + strings.Join(branches, "|") + `)`)
}

// StripShortcodes removes registered shortcodes, including the content of
// enclosing ones. Escaped forms such as [[gallery]] lose one pair of brackets.
func StripShortcodes(s string) string {
	return defaultShortcodeRe.ReplaceAllStringFunc(s, func(m string) string {
		if strings.HasPrefix(m, "[[") && strings.HasSuffix(m, "]]") {
			return m[1 : len(m)-1]
		}
		return ""
	})
}

// StripTags returns the decoded text of an HTML fragment, dropping script
// and style bodies, trimmed of surrounding whitespace.
func StripTags(fragment string) string {
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		switch tt {
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case xhtml.StartTagToken:
			if name, _ := z.TagName(); isRawElement(string(name)) {
				skip++
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); isRawElement(string(name)) && skip > 0 {
				skip--
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func isRawElement(tag string) bool {
	return tag == "script" || tag == "style"
}

// StripMarkup prepares document content for excerpting. The close-CDATA
// sequence "]]>" survives as text and is escaped on output like any other ">".
func StripMarkup(document string) string {
	return StripTags(StripShortcodes(document))
}
