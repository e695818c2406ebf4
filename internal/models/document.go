// Package models defines core data structures for documents, comments, queries, and search results.
package models

import (
	"time"

	"github.com/gosimple/slug"
)

// Post types understood by the store.
const (
	PostTypePage = "page"
	PostTypePost = "post"
)

// Document is a page or blog post of the edition.
type Document struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Slug         string    `json:"slug" db:"slug"`
	Content      string    `json:"content" db:"content"`
	PostType     string    `json:"post_type" db:"post_type"`
	Template     string    `json:"template,omitempty" db:"template"`
	MenuOrder    int       `json:"menu_order" db:"menu_order"`
	CommentCount int       `json:"comment_count" db:"comment_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentInput is the input for creating or updating a document.
// A zero ID lets the store assign one.
type DocumentInput struct {
	ID        int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Title     string `json:"title" yaml:"title"`
	Slug      string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Content   string `json:"content" yaml:"content"`
	PostType  string `json:"post_type,omitempty" yaml:"type,omitempty"`
	Template  string `json:"template,omitempty" yaml:"template,omitempty"`
	MenuOrder int    `json:"menu_order,omitempty" yaml:"menu_order,omitempty"`
}

// Normalize fills defaults on the input: pages unless stated, and a slug
// derived from the title when none is given.
func (in *DocumentInput) Normalize() {
	if in.PostType == "" {
		in.PostType = PostTypePage
	}
	if in.Slug == "" {
		in.Slug = slug.Make(in.Title)
	} else {
		in.Slug = slug.Make(in.Slug)
	}
}
