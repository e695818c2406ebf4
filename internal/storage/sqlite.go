// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL DEFAULT '',
		post_type TEXT NOT NULL DEFAULT 'page',
		template TEXT NOT NULL DEFAULT '',
		menu_order INTEGER NOT NULL DEFAULT 0,
		comment_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_type_template ON documents(post_type, template);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		approved INTEGER NOT NULL DEFAULT 1,
		featured INTEGER NOT NULL DEFAULT 0,
		upvotes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (post_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post_date ON comments(post_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const documentColumns = `id, title, slug, content, post_type, template, menu_order, comment_count, created_at, updated_at`

const commentColumns = `id, post_id, author, content, approved, featured, upvotes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Content, &doc.PostType, &doc.Template,
		&doc.MenuOrder, &doc.CommentCount, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Author, &c.Content, &c.Approved, &c.Featured, &c.Upvotes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStorage) queryDocuments(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveDocument inserts or updates a document. Inputs with an ID update that
// row; inputs without one update the row holding the same slug, if any.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, in *models.DocumentInput) (*models.Document, error) {
	in.Normalize()
	if in.Slug == "" {
		return nil, fmt.Errorf("document needs a title or slug")
	}
	now := time.Now().UTC()

	if in.ID > 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO documents (id, title, slug, content, post_type, template, menu_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   title = excluded.title, slug = excluded.slug, content = excluded.content,
			   post_type = excluded.post_type, template = excluded.template,
			   menu_order = excluded.menu_order, updated_at = excluded.updated_at`,
			in.ID, in.Title, in.Slug, in.Content, in.PostType, in.Template, in.MenuOrder, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save document %d: %w", in.ID, err)
		}
		return s.GetDocument(ctx, in.ID)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (title, slug, content, post_type, template, menu_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		   title = excluded.title, content = excluded.content,
		   post_type = excluded.post_type, template = excluded.template,
		   menu_order = excluded.menu_order, updated_at = excluded.updated_at`,
		in.Title, in.Slug, in.Content, in.PostType, in.Template, in.MenuOrder, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save document %q: %w", in.Slug, err)
	}
	return s.GetDocumentBySlug(ctx, in.Slug)
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return doc, err
}

// GetDocumentBySlug returns a document by slug.
func (s *SQLiteStorage) GetDocumentBySlug(ctx context.Context, slug string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", slug, ErrNotFound)
	}
	return doc, err
}

// DeleteDocument removes a document and its comments.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListDocuments returns documents by menu order with offset and limit.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY menu_order ASC, id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// DocumentIDsByTemplate returns IDs of documents of postType displayed with template, newest first.
func (s *SQLiteStorage) DocumentIDsByTemplate(ctx context.Context, postType, template string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE post_type = ? AND template = ? ORDER BY created_at DESC, id DESC`,
		postType, template,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DocumentsByIDs returns the documents with the given IDs ordered by comment count, highest first.
func (s *SQLiteStorage) DocumentsByIDs(ctx context.Context, ids []int64) ([]*models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := placeholders(ids)
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+ph+`) ORDER BY comment_count DESC, id ASC`,
		args...,
	)
}

// SaveComment inserts or updates a comment and refreshes its document's comment count.
func (s *SQLiteStorage) SaveComment(ctx context.Context, in *models.CommentInput) (*models.Comment, error) {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	var id int64
	if in.ID > 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO comments (id, post_id, author, content, approved, featured, upvotes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   post_id = excluded.post_id, author = excluded.author, content = excluded.content,
			   approved = excluded.approved, featured = excluded.featured, upvotes = excluded.upvotes`,
			in.ID, in.PostID, in.Author, in.Content, in.ApprovedOrDefault(), in.Featured, in.Upvotes, createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save comment %d: %w", in.ID, err)
		}
		id = in.ID
	} else {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO comments (post_id, author, content, approved, featured, upvotes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.PostID, in.Author, in.Content, in.ApprovedOrDefault(), in.Featured, in.Upvotes, createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save comment: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, err
		}
	}
	if err := s.recount(ctx, in.PostID); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, id)
}

// GetComment returns a comment by ID, approved or not.
func (s *SQLiteStorage) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return c, err
}

// DeleteComment removes a comment and refreshes its document's comment count.
func (s *SQLiteStorage) DeleteComment(ctx context.Context, id int64) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return err
	}
	return s.recount(ctx, c.PostID)
}

// ListComments returns approved comments matching filter ordered by document then date.
func (s *SQLiteStorage) ListComments(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	where := []string{"c.approved = 1"}
	var args []any
	if filter.PostType != "" {
		where = append(where, "d.post_type = ?")
		args = append(args, filter.PostType)
	}
	if filter.PostID > 0 {
		where = append(where, "c.post_id = ?")
		args = append(args, filter.PostID)
	}
	if filter.Featured {
		where = append(where, "c.featured = 1")
	}
	if filter.MinUpvotes > 0 {
		where = append(where, "c.upvotes >= ?")
		args = append(args, filter.MinUpvotes)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.author, c.content, c.approved, c.featured, c.upvotes, c.created_at
		 FROM comments c JOIN documents d ON d.id = c.post_id
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY c.post_id ASC, c.created_at ASC, c.id ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *SQLiteStorage) recount(ctx context.Context, postID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE documents SET comment_count =
		   (SELECT COUNT(*) FROM comments WHERE post_id = documents.id AND approved = 1)
		 WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to recount comments for %d: %w", postID, err)
	}
	return nil
}

// RecountComments refreshes the approved comment count of every document.
func (s *SQLiteStorage) RecountComments(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE documents SET comment_count =
		   (SELECT COUNT(*) FROM comments WHERE post_id = documents.id AND approved = 1)`)
	if err != nil {
		return fmt.Errorf("failed to recount comments: %w", err)
	}
	return nil
}

// SearchDocuments returns one page of documents matching spec in spec.Order,
// and the total number of matches.
func (s *SQLiteStorage) SearchDocuments(ctx context.Context, spec SearchSpec) ([]*models.Document, int, error) {
	var where []string
	var args []any
	for _, t := range spec.Terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		p := utils.LikeContains(t)
		where = append(where, `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}
	if spec.PostType != "" {
		where = append(where, "post_type = ?")
		args = append(args, spec.PostType)
	}
	if len(spec.ExcludeIDs) > 0 {
		ph, idArgs := placeholders(spec.ExcludeIDs)
		where = append(where, "id NOT IN ("+ph+")")
		args = append(args, idArgs...)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	order := spec.Order.SQL
	if order == "" {
		order = "created_at DESC"
	}
	limit := spec.Limit
	if limit <= 0 {
		limit = -1
	}
	queryArgs := append(append(append([]any{}, args...), spec.Order.Args...), limit, spec.Offset)
	docs, err := s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents`+whereSQL+` ORDER BY `+order+`, id ASC LIMIT ? OFFSET ?`,
		queryArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search documents: %w", err)
	}
	return docs, total, nil
}

func placeholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountComments returns the total number of comments.
func (s *SQLiteStorage) CountComments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
