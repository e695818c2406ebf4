package models

import "time"

// Comment is an approved or pending reader comment on a document.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	Author    string    `json:"author" db:"author"`
	Content   string    `json:"content" db:"content"`
	Approved  bool      `json:"approved" db:"approved"`
	Featured  bool      `json:"featured" db:"featured"`
	Upvotes   int       `json:"upvotes" db:"upvotes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CommentInput is the input for creating a comment.
type CommentInput struct {
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty"`
	PostID    int64     `json:"post_id" yaml:"post_id"`
	Author    string    `json:"author" yaml:"author"`
	Content   string    `json:"content" yaml:"content"`
	Approved  *bool     `json:"approved,omitempty" yaml:"approved,omitempty"`
	Featured  bool      `json:"featured,omitempty" yaml:"featured,omitempty"`
	Upvotes   int       `json:"upvotes,omitempty" yaml:"upvotes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ApprovedOrDefault reports the approval state; comments are approved unless stated otherwise.
func (in *CommentInput) ApprovedOrDefault() bool {
	if in.Approved != nil {
		return *in.Approved
	}
	return true
}

// LikedComment pairs a comment with its like count. It is built from a
// fetched comment and never written back to it.
type LikedComment struct {
	Comment *Comment `json:"comment"`
	Likes   int      `json:"likes"`
}

// WithLikes decorates comments with their upvote counts.
func WithLikes(comments []*Comment) []LikedComment {
	out := make([]LikedComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, LikedComment{Comment: c, Likes: c.Upvotes})
	}
	return out
}
