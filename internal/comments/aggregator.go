// Package comments builds the featured and liked comment listings shown on
// the aggregation pages and in the page activity sidebar.
package comments

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pages"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// Kind selects a listing.
type Kind string

const (
	KindFeatured Kind = "featured"
	KindLiked    Kind = "liked"
)

// ParseKind returns the listing kind named by s.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFeatured, KindLiked:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown comment listing %q", s)
}

// KindForRole returns the listing an aggregation page shows.
func KindForRole(r pages.Role) (Kind, bool) {
	switch r {
	case pages.RoleFeatured:
		return KindFeatured, true
	case pages.RoleLiked:
		return KindLiked, true
	}
	return "", false
}

// Store is the subset of storage the aggregator reads.
type Store interface {
	ListComments(ctx context.Context, filter storage.CommentFilter) ([]*models.Comment, error)
	DocumentsByIDs(ctx context.Context, ids []int64) ([]*models.Document, error)
}

// Group is the listed comments of one document.
type Group struct {
	Document *models.Document `json:"document"`
	// Count is the number of listed comments, not the document total.
	Count    int                   `json:"count"`
	Comments []models.LikedComment `json:"comments"`
}

// SortByLikesDescending returns comments ordered by likes, most first. Equal
// counts keep their input order. The input is not modified.
func SortByLikesDescending(comments []models.LikedComment) []models.LikedComment {
	sorted := append([]models.LikedComment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Likes > sorted[j].Likes
	})
	return sorted
}

// Aggregator groups and renders comment listings.
type Aggregator struct {
	store    Store
	renderer *Renderer
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRenderer replaces the listing renderer.
func WithRenderer(r *Renderer) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.renderer = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		a.logger = utils.OrNop(l)
	}
}

// NewAggregator returns an aggregator reading from store.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		renderer: NewRenderer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Featured returns the approved featured comments on documents of postType,
// grouped per document. Comments keep their (post, date) order.
func (a *Aggregator) Featured(ctx context.Context, postType string) ([]Group, error) {
	list, err := a.store.ListComments(ctx, storage.CommentFilter{PostType: postType, Featured: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list featured comments: %w", err)
	}
	return a.group(ctx, postType, models.WithLikes(list))
}

// Liked returns the approved comments with at least one like on documents of
// postType, grouped per document and sorted by likes within each group.
func (a *Aggregator) Liked(ctx context.Context, postType string) ([]Group, error) {
	list, err := a.store.ListComments(ctx, storage.CommentFilter{PostType: postType, MinUpvotes: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to list liked comments: %w", err)
	}
	return a.group(ctx, postType, SortByLikesDescending(models.WithLikes(list)))
}

// Listing returns the groups of kind.
func (a *Aggregator) Listing(ctx context.Context, kind Kind, postType string) ([]Group, error) {
	if kind == KindLiked {
		return a.Liked(ctx, postType)
	}
	return a.Featured(ctx, postType)
}

// group collects comments under their documents. Groups follow the order
// of DocumentsByIDs, which is total comment count, highest first.
func (a *Aggregator) group(ctx context.Context, postType string, comments []models.LikedComment) ([]Group, error) {
	if len(comments) == 0 {
		return nil, nil
	}
	var ids []int64
	byPost := make(map[int64][]models.LikedComment)
	for _, c := range comments {
		id := c.Comment.PostID
		if _, ok := byPost[id]; !ok {
			ids = append(ids, id)
		}
		byPost[id] = append(byPost[id], c)
	}

	docs, err := a.store.DocumentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load commented documents: %w", err)
	}
	groups := make([]Group, 0, len(docs))
	for _, doc := range docs {
		if postType != "" && doc.PostType != postType {
			continue
		}
		listed := byPost[doc.ID]
		groups = append(groups, Group{Document: doc, Count: len(listed), Comments: listed})
	}
	return groups, nil
}

// PageContent renders the listing page of kind. The section for primaryType
// comes first; empty sections are left out.
func (a *Aggregator) PageContent(ctx context.Context, kind Kind, primaryType string) (string, error) {
	if primaryType != models.PostTypePost {
		primaryType = models.PostTypePage
	}
	otherType := models.PostTypePost
	if primaryType == models.PostTypePost {
		otherType = models.PostTypePage
	}

	var sections []Section
	for _, pt := range []string{primaryType, otherType} {
		groups, err := a.Listing(ctx, kind, pt)
		if err != nil {
			return "", err
		}
		if len(groups) == 0 {
			continue
		}
		sections = append(sections, Section{Heading: SectionHeading(pt), Groups: groups})
	}
	a.logger.Debug("comment listing built",
		zap.String("kind", string(kind)),
		zap.String("primary_type", primaryType),
		zap.Int("sections", len(sections)))
	return a.renderer.Page(PageTitle(kind), kind == KindLiked, sections)
}

// ActivitySidebar renders the most liked comments of doc. It is empty for
// aggregation pages and for pages without liked comments.
func (a *Aggregator) ActivitySidebar(ctx context.Context, memo *pages.Memo, doc *models.Document) (string, error) {
	if !memo.IsCommentable(ctx, doc) {
		return "", nil
	}
	list, err := a.store.ListComments(ctx, storage.CommentFilter{PostID: doc.ID, MinUpvotes: 1})
	if err != nil {
		return "", fmt.Errorf("failed to list liked comments: %w", err)
	}
	if len(list) == 0 {
		return "", nil
	}
	return a.renderer.Activity(doc, SortByLikesDescending(models.WithLikes(list)))
}
