// Package pages identifies the aggregation pages that list featured and
// liked comments instead of carrying authored content.
package pages

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// Default display templates of the aggregation pages.
const (
	DefaultFeaturedTemplate = "comments-featured.php"
	DefaultLikedTemplate    = "comments-liked.php"
)

// Role tells what a document is for.
type Role int

const (
	// RoleContent is an ordinary page or post.
	RoleContent Role = iota
	// RoleFeatured lists featured comments.
	RoleFeatured
	// RoleLiked lists liked comments.
	RoleLiked
)

func (r Role) String() string {
	switch r {
	case RoleFeatured:
		return "featured"
	case RoleLiked:
		return "liked"
	default:
		return "content"
	}
}

// TemplateLookup finds documents by display template.
type TemplateLookup interface {
	DocumentIDsByTemplate(ctx context.Context, postType, template string) ([]int64, error)
}

// Resolver looks up aggregation pages in the store.
type Resolver struct {
	store            TemplateLookup
	featuredTemplate string
	likedTemplate    string
	logger           *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTemplates overrides the display templates. Empty names keep the defaults.
func WithTemplates(featured, liked string) Option {
	return func(r *Resolver) {
		if featured != "" {
			r.featuredTemplate = featured
		}
		if liked != "" {
			r.likedTemplate = liked
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = utils.OrNop(l)
	}
}

// NewResolver returns a resolver over store.
func NewResolver(store TemplateLookup, opts ...Option) *Resolver {
	r := &Resolver{
		store:            store,
		featuredTemplate: DefaultFeaturedTemplate,
		likedTemplate:    DefaultLikedTemplate,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FeaturedPages returns the IDs of pages listing featured comments, newest first.
func (r *Resolver) FeaturedPages(ctx context.Context) ([]int64, error) {
	ids, err := r.store.DocumentIDsByTemplate(ctx, models.PostTypePage, r.featuredTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to find featured comments pages: %w", err)
	}
	return ids, nil
}

// LikedPages returns the IDs of pages listing liked comments, newest first.
func (r *Resolver) LikedPages(ctx context.Context) ([]int64, error) {
	ids, err := r.store.DocumentIDsByTemplate(ctx, models.PostTypePage, r.likedTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to find liked comments pages: %w", err)
	}
	return ids, nil
}

// NewMemo returns a request-lifetime cache of the resolver's lookups.
func (r *Resolver) NewMemo() *Memo {
	return &Memo{resolver: r}
}

// Memo caches both lookups for one request. A failed lookup is logged and
// treated as no pages. Safe for concurrent use.
type Memo struct {
	resolver *Resolver

	featuredOnce sync.Once
	featured     []int64
	likedOnce    sync.Once
	liked        []int64
}

// Featured returns the featured comments page IDs.
func (m *Memo) Featured(ctx context.Context) []int64 {
	if m == nil {
		return nil
	}
	m.featuredOnce.Do(func() {
		ids, err := m.resolver.FeaturedPages(ctx)
		if err != nil {
			m.resolver.logger.Warn("aggregation page lookup failed", zap.Error(err))
		}
		m.featured = ids
	})
	return m.featured
}

// Liked returns the liked comments page IDs.
func (m *Memo) Liked(ctx context.Context) []int64 {
	if m == nil {
		return nil
	}
	m.likedOnce.Do(func() {
		ids, err := m.resolver.LikedPages(ctx)
		if err != nil {
			m.resolver.logger.Warn("aggregation page lookup failed", zap.Error(err))
		}
		m.liked = ids
	})
	return m.liked
}

// Aggregation returns the unique union of featured and liked page IDs.
func (m *Memo) Aggregation(ctx context.Context) []int64 {
	return utils.UniqueIDs(m.Featured(ctx), m.Liked(ctx))
}

// RoleOf tells whether doc is an aggregation page, and which.
func (m *Memo) RoleOf(ctx context.Context, doc *models.Document) Role {
	if doc == nil {
		return RoleContent
	}
	switch {
	case utils.ContainsID(m.Featured(ctx), doc.ID):
		return RoleFeatured
	case utils.ContainsID(m.Liked(ctx), doc.ID):
		return RoleLiked
	}
	return RoleContent
}

// IsCommentable reports whether readers may comment on doc. Aggregation
// pages never take comments.
func (m *Memo) IsCommentable(ctx context.Context, doc *models.Document) bool {
	return doc != nil && m.RoleOf(ctx, doc) == RoleContent
}

// ExcludeFromNav appends the aggregation pages to a navigation exclusion list.
func (m *Memo) ExcludeFromNav(ctx context.Context, existing []int64) []int64 {
	return utils.UniqueIDs(existing, m.Aggregation(ctx))
}
