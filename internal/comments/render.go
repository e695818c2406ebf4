package comments

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hyperjump/thoreau/internal/models"
)

const dateLayout = "January 2, 2006"

// Section is one post type's part of a listing page.
type Section struct {
	Heading string
	Groups  []Group
}

// PageTitle returns the heading of a listing page.
func PageTitle(kind Kind) string {
	if kind == KindLiked {
		return "Liked Comments"
	}
	return "Featured Comments"
}

// SectionHeading returns the heading of the section listing postType comments.
func SectionHeading(postType string) string {
	if postType == models.PostTypePost {
		return "Comments on the Blog"
	}
	return "Comments on the Pages"
}

var (
	ugcPolicyOnce sync.Once
	ugcPolicy     *bluemonday.Policy
)

// UGCPolicy returns the shared policy applied to comment bodies.
func UGCPolicy() *bluemonday.Policy {
	ugcPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireNoFollowOnLinks(true)
		ugcPolicy = p
	})
	return ugcPolicy
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

func countSpan(class string, n int, singular, pluralForm string) template.HTML {
	return template.HTML(`<span class="` + class + `">` + strconv.Itoa(n) + `</span> ` + plural(n, singular, pluralForm))
}

const listingTemplates = `
{{define "comment"}}<div class="comment_wrapper" id="comment-{{.Comment.ID}}">
<div class="comment_meta"><a href="{{permalink .Document}}#comment-{{.Comment.ID}}">Comment</a> by <cite class="comment_author">{{.Comment.Author}}</cite> on <span class="comment_date">{{date .Comment.CreatedAt}}</span>{{if .ShowLikes}}<span class="comment_likes">{{likes .Likes}}</span>{{end}}</div>
<div class="comment-content">{{sanitize .Comment.Content}}</div>
</div>
{{end}}

{{define "page"}}<h2 class="post_title">{{.Title}}</h2>

{{range .Sections}}<h3 class="comments_hl">{{.Heading}}</h3>

<ul class="all_comments_listing">

{{range .Groups}}{{$doc := .Document}}<li class="page_li">

<h4>{{$doc.Title}} <span>({{comments .Count}})</span></h4>

<div class="item_body">

<ul class="item_ul">

<li class="item_li">

{{range .Comments}}{{template "comment" item $doc . $.ShowLikes}}{{end}}
</li>

</ul>

</div>

</li>

{{end}}</ul>

{{end}}{{end}}

{{define "activity"}}<h3 class="activity_heading">Most liked comments on this page</h3>

<div class="paragraph_wrapper page_comments_output">
<ol class="comment_activity">

{{range .Comments}}<li>{{template "comment" item $.Document . true}}</li>
{{end}}
</ol>
</div>
{{end}}
`

type commentView struct {
	Document  *models.Document
	Comment   *models.Comment
	Likes     int
	ShowLikes bool
}

type pageView struct {
	Title     string
	ShowLikes bool
	Sections  []Section
}

type activityView struct {
	Document *models.Document
	Comments []models.LikedComment
}

// Renderer writes comment listings as HTML.
type Renderer struct {
	tmpl      *template.Template
	policy    *bluemonday.Policy
	permalink func(*models.Document) string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithPermalink sets how document links are built.
func WithPermalink(f func(*models.Document) string) RendererOption {
	return func(r *Renderer) {
		if f != nil {
			r.permalink = f
		}
	}
}

// WithPolicy replaces the comment body sanitizer.
func WithPolicy(p *bluemonday.Policy) RendererOption {
	return func(r *Renderer) {
		if p != nil {
			r.policy = p
		}
	}
}

// NewRenderer returns a renderer using UGCPolicy and /pages/{slug} links.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		policy:    UGCPolicy(),
		permalink: func(d *models.Document) string { return "/pages/" + d.Slug },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tmpl = template.Must(template.New("listing").Funcs(template.FuncMap{
		"permalink": func(d *models.Document) string { return r.permalink(d) },
		"sanitize":  func(s string) template.HTML { return template.HTML(r.policy.Sanitize(s)) },
		"date":      func(t time.Time) string { return t.Format(dateLayout) },
		"comments": func(n int) template.HTML {
			return countSpan("cp_comment_count", n, "comment", "comments")
		},
		"likes": func(n int) template.HTML {
			return countSpan("cp_comment_likes", n, "like", "likes")
		},
		"item": func(d *models.Document, c models.LikedComment, showLikes bool) commentView {
			return commentView{Document: d, Comment: c.Comment, Likes: c.Likes, ShowLikes: showLikes}
		},
	}).Parse(listingTemplates))
	return r
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Page renders a listing page with its title and sections.
func (r *Renderer) Page(title string, showLikes bool, sections []Section) (string, error) {
	return r.execute("page", pageView{Title: title, ShowLikes: showLikes, Sections: sections})
}

// Activity renders the activity sidebar list for doc.
func (r *Renderer) Activity(doc *models.Document, comments []models.LikedComment) (string, error) {
	return r.execute("activity", activityView{Document: doc, Comments: comments})
}
