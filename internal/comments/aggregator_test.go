package comments

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pages"
	"github.com/hyperjump/thoreau/internal/storage"
)

func TestSortByLikesDescending(t *testing.T) {
	in := []models.LikedComment{
		{Comment: &models.Comment{ID: 1}, Likes: 3},
		{Comment: &models.Comment{ID: 2}, Likes: 5},
		{Comment: &models.Comment{ID: 3}, Likes: 3},
	}
	got := SortByLikesDescending(in)
	want := []int64{2, 1, 3}
	for i, id := range want {
		if got[i].Comment.ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if in[0].Comment.ID != 1 {
		t.Error("input was reordered")
	}
	if len(SortByLikesDescending(nil)) != 0 {
		t.Error("nil input should give an empty result")
	}
}

func ids(list []models.LikedComment) []int64 {
	out := make([]int64, len(list))
	for i, c := range list {
		out[i] = c.Comment.ID
	}
	return out
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("liked"); err != nil || k != KindLiked {
		t.Errorf("ParseKind(liked) = %q, %v", k, err)
	}
	if _, err := ParseKind("popular"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if k, ok := KindForRole(pages.RoleFeatured); !ok || k != KindFeatured {
		t.Errorf("KindForRole(featured) = %q", k)
	}
	if _, ok := KindForRole(pages.RoleContent); ok {
		t.Error("content pages have no listing")
	}
}

type fixture struct {
	store *storage.SQLiteStorage
	docs  map[string]*models.Document
	cmts  map[string]*models.Comment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "comments.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, docs: map[string]*models.Document{}, cmts: map[string]*models.Comment{}}
	for _, in := range []*models.DocumentInput{
		{Title: "Economy"},
		{Title: "Solitude"},
		{Title: "News", PostType: models.PostTypePost},
		{Title: "Featured Comments", Template: pages.DefaultFeaturedTemplate},
	} {
		doc, err := store.SaveDocument(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		f.docs[doc.Slug] = doc
	}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for name, in := range map[string]*models.CommentInput{
		"c1": {PostID: f.docs["economy"].ID, Author: "Emerson", Content: "<p>Great <script>alert(1)</script>chapter</p>", Featured: true, CreatedAt: base.Add(time.Hour)},
		"c2": {PostID: f.docs["economy"].ID, Author: "Alcott", Content: "Agreed", Upvotes: 2, CreatedAt: base.Add(2 * time.Hour)},
		"c3": {PostID: f.docs["solitude"].ID, Author: "Fuller", Content: "Lovely", Featured: true, Upvotes: 5, CreatedAt: base},
		"c4": {PostID: f.docs["solitude"].ID, Author: "Channing", Content: "Hm", Upvotes: 1, CreatedAt: base.Add(3 * time.Hour)},
		"c5": {PostID: f.docs["solitude"].ID, Author: "Hawthorne", Content: "Plain", CreatedAt: base.Add(4 * time.Hour)},
		"c6": {PostID: f.docs["news"].ID, Author: "Greeley", Content: "News!", Featured: true, Upvotes: 1, CreatedAt: base},
	} {
		c, err := store.SaveComment(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		f.cmts[name] = c
	}
	return f
}

func groupSummary(groups []Group) []string {
	var out []string
	for _, g := range groups {
		var names []string
		for _, c := range g.Comments {
			names = append(names, c.Comment.Author)
		}
		out = append(out, g.Document.Slug+":"+strings.Join(names, ","))
	}
	return out
}

func TestAggregator_Featured(t *testing.T) {
	f := newFixture(t)
	groups, err := NewAggregator(f.store).Featured(context.Background(), models.PostTypePage)
	if err != nil {
		t.Fatal(err)
	}
	// Solitude has more comments in total, so it leads.
	want := []string{"solitude:Fuller", "economy:Emerson"}
	if got := groupSummary(groups); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("groups = %v, want %v", got, want)
	}
	for _, g := range groups {
		if g.Count != len(g.Comments) {
			t.Errorf("%s: Count = %d for %d comments", g.Document.Slug, g.Count, len(g.Comments))
		}
	}

	posts, err := NewAggregator(f.store).Featured(context.Background(), models.PostTypePost)
	if err != nil {
		t.Fatal(err)
	}
	if got := groupSummary(posts); len(got) != 1 || got[0] != "news:Greeley" {
		t.Errorf("post groups = %v", got)
	}
}

func TestAggregator_Liked(t *testing.T) {
	f := newFixture(t)
	groups, err := NewAggregator(f.store).Liked(context.Background(), models.PostTypePage)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"solitude:Fuller,Channing", "economy:Alcott"}
	if got := groupSummary(groups); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("groups = %v, want %v", got, want)
	}
	if groups[0].Comments[0].Likes != 5 || groups[0].Count != 2 {
		t.Errorf("first group = %+v", groups[0])
	}
}

func TestAggregator_PageContent(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store)
	ctx := context.Background()

	out, err := agg.PageContent(ctx, KindFeatured, models.PostTypePage)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<h2 class="post_title">Featured Comments</h2>`,
		`<ul class="all_comments_listing">`,
		`<li class="page_li">`,
		`<h4>Solitude <span>(<span class="cp_comment_count">1</span> comment)</span></h4>`,
		`<div class="item_body">`,
		`<ul class="item_ul">`,
		`<li class="item_li">`,
		`href="/pages/solitude#comment-`,
		`<cite class="comment_author">Fuller</cite>`,
		`on <span class="comment_date">March 1, 2024</span>`,
		`chapter`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("comment body not sanitized")
	}
	if strings.Contains(out, "cp_comment_likes") {
		t.Error("featured listing should not show likes")
	}
	pageAt := strings.Index(out, "Comments on the Pages")
	blogAt := strings.Index(out, "Comments on the Blog")
	if pageAt < 0 || blogAt < 0 || pageAt > blogAt {
		t.Errorf("sections out of order: pages at %d, blog at %d", pageAt, blogAt)
	}

	out, err = agg.PageContent(ctx, KindLiked, models.PostTypePost)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, `<h2 class="post_title">Liked Comments</h2>`) {
		t.Errorf("liked page title: %.60s", out)
	}
	if strings.Index(out, "Comments on the Blog") > strings.Index(out, "Comments on the Pages") {
		t.Error("blog section should lead when posts are primary")
	}
	for _, want := range []string{
		`<span class="cp_comment_likes">5</span> likes`,
		`<span class="cp_comment_likes">1</span> like</span>`,
		`<span class="cp_comment_count">2</span> comments`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestAggregator_PageContentOmitsEmptySections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.DeleteDocument(ctx, f.docs["news"].ID); err != nil {
		t.Fatal(err)
	}
	out, err := NewAggregator(f.store).PageContent(ctx, KindFeatured, models.PostTypePage)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Comments on the Blog") {
		t.Error("empty blog section rendered")
	}
	if strings.Count(out, `<h3 class="comments_hl">`) != 1 {
		t.Errorf("expected one section:\n%s", out)
	}
}

func TestAggregator_ActivitySidebar(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, WithRenderer(NewRenderer(WithPermalink(func(d *models.Document) string {
		return "https://walden.example/pages/" + d.Slug
	}))))
	memo := pages.NewResolver(f.store).NewMemo()
	ctx := context.Background()

	out, err := agg.ActivitySidebar(ctx, memo, f.docs["solitude"])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<h3 class="activity_heading">Most liked comments on this page</h3>`) ||
		!strings.Contains(out, `<ol class="comment_activity">`) {
		t.Errorf("sidebar markup:\n%s", out)
	}
	if strings.Index(out, "Fuller") > strings.Index(out, "Channing") {
		t.Error("most liked comment should come first")
	}
	if !strings.Contains(out, `href="https://walden.example/pages/solitude#comment-`) {
		t.Error("custom permalink not used")
	}
	if strings.Contains(out, "Hawthorne") {
		t.Error("comments without likes listed")
	}

	for _, slug := range []string{"featured-comments"} {
		out, err := agg.ActivitySidebar(ctx, memo, f.docs[slug])
		if err != nil || out != "" {
			t.Errorf("aggregation page sidebar = %q, %v", out, err)
		}
	}
	if err := f.store.DeleteComment(ctx, f.cmts["c2"].ID); err != nil {
		t.Fatal(err)
	}
	if out, _ := agg.ActivitySidebar(ctx, memo, f.docs["economy"]); out != "" {
		t.Errorf("page without liked comments: %q", out)
	}
}
