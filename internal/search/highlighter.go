package search

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// DefaultHighlightClass is the class of the span wrapped around matched terms.
const DefaultHighlightClass = "search_highlight"

// BuildPattern compiles terms into one case-insensitive alternation, in the
// given order. Terms are trimmed and matched literally. Returns nil when no
// usable term remains.
func BuildPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// Highlighter wraps pattern matches in a marker span.
type Highlighter struct {
	pattern *regexp.Regexp
	class   string
	open    string
}

// NewHighlighter returns a highlighter for pattern. A nil pattern highlights nothing.
func NewHighlighter(pattern *regexp.Regexp, class string) *Highlighter {
	if class == "" {
		class = DefaultHighlightClass
	}
	return &Highlighter{
		pattern: pattern,
		class:   class,
		open:    `<span class="` + html.EscapeString(class) + `">`,
	}
}

// Marker returns the opening tag placed before each match.
func (h *Highlighter) Marker() string {
	return h.open
}

// HighlightText escapes plain text for HTML and wraps every match.
func (h *Highlighter) HighlightText(text string) string {
	out, _ := h.highlightText(text)
	return out
}

func (h *Highlighter) highlightText(text string) (string, int) {
	if h.pattern == nil {
		return html.EscapeString(text), 0
	}
	var b strings.Builder
	last, n := 0, 0
	for _, loc := range h.pattern.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString(h.open)
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString("</span>")
		last = loc[1]
		n++
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String(), n
}

// Highlight wraps matches found in the text nodes of an HTML fragment. Tags,
// attributes, script and style bodies, and text already inside a marker span
// are copied through unchanged, so applying it twice gives the same result.
func (h *Highlighter) Highlight(fragment string) string {
	out, _ := h.HighlightCount(fragment)
	return out
}

// HighlightCount is Highlight that also reports how many matches it wrapped.
func (h *Highlighter) HighlightCount(fragment string) (string, int) {
	if h.pattern == nil || fragment == "" {
		return fragment, 0
	}
	n := 0
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	markedDepth := 0 // span nesting inside a marker span; 0 means outside
	rawDepth := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// io.EOF or malformed input; both end the fragment
			break
		}
		raw := string(z.Raw())
		switch tt {
		case xhtml.TextToken:
			if markedDepth > 0 || rawDepth > 0 {
				b.WriteString(raw)
				continue
			}
			out, k := h.highlightText(string(z.Text()))
			b.WriteString(out)
			n += k
			continue
		case xhtml.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				rawDepth++
			case tag == "span" && markedDepth > 0:
				markedDepth++
			case tag == "span" && hasAttr && h.isMarker(z):
				markedDepth = 1
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case (tag == "script" || tag == "style") && rawDepth > 0:
				rawDepth--
			case tag == "span" && markedDepth > 0:
				markedDepth--
			}
		}
		b.WriteString(raw)
	}
	return b.String(), n
}

func (h *Highlighter) isMarker(z *xhtml.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			for _, c := range strings.Fields(string(val)) {
				if c == h.class {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}
