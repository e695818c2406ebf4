// Package storage defines the persistence interface for documents and comments.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/thoreau/internal/models"
)

// ErrNotFound is returned when a document or comment does not exist.
var ErrNotFound = errors.New("not found")

// SearchSpec describes a ranked document search. Every term must occur in the
// title or the content of a matching document.
type SearchSpec struct {
	Terms      []string
	PostType   string
	ExcludeIDs []int64
	Order      models.OrderExpr
	Limit      int
	Offset     int
}

// CommentFilter selects approved comments. Zero fields do not filter.
type CommentFilter struct {
	// PostType is the type of the parent document.
	PostType   string
	PostID     int64
	Featured   bool
	MinUpvotes int
}

// Storage defines document and comment persistence operations.
type Storage interface {
	// Document operations
	SaveDocument(ctx context.Context, in *models.DocumentInput) (*models.Document, error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentBySlug(ctx context.Context, slug string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	DocumentIDsByTemplate(ctx context.Context, postType, template string) ([]int64, error)
	DocumentsByIDs(ctx context.Context, ids []int64) ([]*models.Document, error)

	// Comment operations
	SaveComment(ctx context.Context, in *models.CommentInput) (*models.Comment, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	RecountComments(ctx context.Context) error

	// Search
	SearchDocuments(ctx context.Context, spec SearchSpec) ([]*models.Document, int, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountComments(ctx context.Context) (int64, error)

	Close() error
}
