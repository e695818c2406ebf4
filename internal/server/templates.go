package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hyperjump/thoreau/internal/models"
	"go.uber.org/zap"
)

// Rendered titles, excerpts and listings are built escaped by the search and
// comments packages; the templates mark them with safe.
var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"safe": func(s string) template.HTML { return template.HTML(s) },
	"searchURL": func(phrase string) string {
		return "/search?s=" + url.QueryEscape(phrase)
	},
}).Parse(`
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.}} | Walden</title>
</head>
<body>
<header class="site_header">
<a class="site_title" href="/">Walden</a>
<form role="search" method="get" class="search_form" action="/search">
<input type="search" name="s" aria-label="Search for">
<input type="submit" value="Search">
</form>
</header>
<main id="content">
{{end}}

{{define "footer"}}</main>
</body>
</html>
{{end}}

{{define "index"}}{{template "header" "Contents"}}
<h1 class="page_title">Contents</h1>
<ul class="contents">
{{range .}}<li><a href="/pages/{{.Slug}}">{{.Title}}</a></li>
{{end}}</ul>
{{template "footer"}}{{end}}

{{define "search"}}{{template "header" (printf "Search Results for %q" .Query)}}
{{if .Results}}<h1 class="page_title">Search Results for: <span>{{.Query}}</span></h1>
{{range .Results}}<article class="search_result" id="post-{{.Document.ID}}">
<h2 class="entry_title"><a href="{{.Permalink}}" rel="bookmark">{{safe .Title}}</a></h2>
<div class="entry_summary">{{safe .Excerpt}}</div>
</article>
{{end}}<nav class="pagination">
{{with .Newer}}<a class="newer" href="{{.}}">Newer results</a>{{end}}
{{with .Older}}<a class="older" href="{{.}}">Older results</a>{{end}}
</nav>
{{else}}<h1 class="page_title">Nothing Found</h1>
<p>Sorry, but nothing matched your search terms. Please try again with different keywords.</p>
{{if .Suggestions}}<p class="suggestions">Did you mean:
{{range .Suggestions}}<a href="{{searchURL .}}">{{.}}</a>
{{end}}</p>{{end}}
{{end}}{{template "footer"}}{{end}}

{{define "page"}}{{template "header" .Plain}}
<article class="page" id="post-{{.ID}}">
<h1 class="entry_title">{{safe .Title}}</h1>
<div class="entry_content">{{safe .Content}}</div>
</article>
{{with .Sidebar}}<aside class="sidebar">{{safe .}}</aside>{{end}}
{{template "footer"}}{{end}}

{{define "not_found"}}{{template "header" "Page not found"}}
<h1 class="page_title">Page not found</h1>
<p>It seems we can&rsquo;t find what you&rsquo;re looking for.</p>
{{template "footer"}}{{end}}
`))

// searchView is the search results page.
type searchView struct {
	Query       string
	Results     []*models.SearchResult
	Suggestions []string
	Newer       string
	Older       string
}

// pageView is a single rendered page.
type pageView struct {
	ID      int64
	Plain   string
	Title   string
	Content string
	Sidebar string
}

// pagedURL links to results page n of phrase.
func pagedURL(phrase string, n int) string {
	v := url.Values{"s": {phrase}}
	if n > 1 {
		v.Set("paged", strconv.Itoa(n))
	}
	return "/search?" + v.Encode()
}

func (s *Server) renderHTML(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
