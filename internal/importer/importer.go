// Package importer loads content bundles and markdown pages into the store
// and the keyword index.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/thoreau/internal/keyword"
	"github.com/hyperjump/thoreau/internal/metrics"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/search"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// DefaultExtensions are the file types the importer reads.
var DefaultExtensions = []string{".yaml", ".yml", ".json", ".md"}

// Bundle is an export of documents and their comments.
type Bundle struct {
	Documents []models.DocumentInput `yaml:"documents" json:"documents"`
	Comments  []BundleComment        `yaml:"comments" json:"comments"`
}

// BundleComment is a comment whose parent may be named by slug instead of ID.
type BundleComment struct {
	models.CommentInput `yaml:",inline"`
	PostSlug            string `yaml:"post_slug,omitempty" json:"post_slug,omitempty"`
}

// Result counts what an import wrote.
type Result struct {
	Documents int `json:"documents"`
	Comments  int `json:"comments"`
}

// Add accumulates r2 into r.
func (r *Result) Add(r2 Result) {
	r.Documents += r2.Documents
	r.Comments += r2.Comments
}

// Invalidator drops cached state derived from the keyword index.
type Invalidator interface {
	Invalidate()
}

// Importer writes documents and comments into storage and the keyword index.
type Importer struct {
	store      storage.Storage
	index      keyword.TermIndex
	spell      Invalidator
	metrics    *metrics.Metrics
	markdown   goldmark.Markdown
	extensions []string
	logger     *zap.Logger

	mu    sync.Mutex
	pages map[string]int64 // markdown path -> document ID
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(imp *Importer) { imp.logger = utils.OrNop(l) }
}

// WithMetrics records import counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(imp *Importer) { imp.metrics = m }
}

// WithSpellChecker invalidates the spell checker dictionary after each change.
func WithSpellChecker(inv Invalidator) Option {
	return func(imp *Importer) { imp.spell = inv }
}

// WithExtensions limits the file types read from directories.
func WithExtensions(exts []string) Option {
	return func(imp *Importer) {
		if len(exts) > 0 {
			imp.extensions = exts
		}
	}
}

// NewImporter returns an importer. index may be nil, in which case only the
// store is written.
func NewImporter(store storage.Storage, index keyword.TermIndex, opts ...Option) *Importer {
	imp := &Importer{
		store:      store,
		index:      index,
		markdown:   goldmark.New(),
		extensions: DefaultExtensions,
		logger:     zap.NewNop(),
		pages:      make(map[string]int64),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Extensions returns the file types the importer reads.
func (imp *Importer) Extensions() []string {
	return append([]string(nil), imp.extensions...)
}

// SaveDocument stores a document and indexes its text.
func (imp *Importer) SaveDocument(ctx context.Context, in *models.DocumentInput) (*models.Document, error) {
	doc, err := imp.store.SaveDocument(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if err := imp.indexDocument(ctx, doc); err != nil {
		return nil, err
	}
	imp.invalidate()
	return doc, nil
}

func (imp *Importer) indexDocument(ctx context.Context, doc *models.Document) error {
	if imp.index == nil {
		return nil
	}
	if err := imp.index.Index(ctx, doc.ID, doc.Title, search.StripMarkup(doc.Content)); err != nil {
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	return nil
}

// DeleteDocument removes a document from the keyword index and the store.
func (imp *Importer) DeleteDocument(ctx context.Context, id int64) error {
	imp.logger.Debug("importer deleting document", zap.Int64("id", id))
	if imp.index != nil {
		if err := imp.index.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	if err := imp.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	imp.invalidate()
	return nil
}

func (imp *Importer) invalidate() {
	if imp.spell != nil {
		imp.spell.Invalidate()
	}
}

// ImportBundle writes every document, then every comment, then recomputes
// comment counts.
func (imp *Importer) ImportBundle(ctx context.Context, b *Bundle) (Result, error) {
	var res Result
	for i := range b.Documents {
		doc, err := imp.store.SaveDocument(ctx, &b.Documents[i])
		if err != nil {
			return res, fmt.Errorf("document %d: %w", i, err)
		}
		if err := imp.indexDocument(ctx, doc); err != nil {
			return res, err
		}
		res.Documents++
	}
	if res.Documents > 0 {
		imp.invalidate()
	}
	for i := range b.Comments {
		c := &b.Comments[i]
		if c.PostID == 0 && c.PostSlug != "" {
			parent, err := imp.store.GetDocumentBySlug(ctx, c.PostSlug)
			if err != nil {
				return res, fmt.Errorf("comment %d: parent %q: %w", i, c.PostSlug, err)
			}
			c.PostID = parent.ID
		}
		if _, err := imp.store.SaveComment(ctx, &c.CommentInput); err != nil {
			return res, fmt.Errorf("comment %d: %w", i, err)
		}
		res.Comments++
	}
	if err := imp.store.RecountComments(ctx); err != nil {
		return res, err
	}
	imp.metrics.Imported("document", res.Documents)
	imp.metrics.Imported("comment", res.Comments)
	return res, nil
}

// ImportFile reads one bundle or markdown page. Unchanged content is written
// again; saves are upserts.
func (imp *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	imp.logger.Debug("importer reading file", zap.String("path", path))
	ext := strings.ToLower(filepath.Ext(path))
	if !extensionAllowed(ext, imp.extensions) {
		return Result{}, fmt.Errorf("extension %q not in allowed list", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}

	var b Bundle
	var page *models.DocumentInput
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			imp.metrics.ImportFailed()
			return Result{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".json":
		if err := json.Unmarshal(data, &b); err != nil {
			imp.metrics.ImportFailed()
			return Result{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".md", ".markdown":
		in, err := imp.ParseMarkdown(filepath.Base(path), data)
		if err != nil {
			imp.metrics.ImportFailed()
			return Result{}, err
		}
		b.Documents = []models.DocumentInput{*in}
		page = in
	default:
		return Result{}, fmt.Errorf("unsupported file type %q", ext)
	}

	res, err := imp.ImportBundle(ctx, &b)
	if err != nil {
		imp.metrics.ImportFailed()
		return res, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	if page != nil {
		imp.trackPage(ctx, path, page.Slug)
	}
	imp.logger.Info("imported file",
		zap.String("path", path),
		zap.Int("documents", res.Documents),
		zap.Int("comments", res.Comments))
	return res, nil
}

// ImportDirectory walks dir recursively and imports every file with an
// allowed extension. It stops at the first failing file.
func (imp *Importer) ImportDirectory(ctx context.Context, dir string) (Result, error) {
	var total Result
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return total, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extensionAllowed(filepath.Ext(path), imp.extensions) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, err := imp.ImportFile(ctx, path)
		total.Add(res)
		return err
	})
	return total, err
}

// RemoveFile deletes the page imported from a markdown file. Bundles are
// left in place since their documents may be shared with other files.
// Pages imported by an earlier process are found by the slug their file
// name gives.
func (imp *Importer) RemoveFile(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		imp.logger.Debug("importer ignoring removed bundle", zap.String("path", path))
		return nil
	}
	key := pageKey(path)
	imp.mu.Lock()
	id, ok := imp.pages[key]
	delete(imp.pages, key)
	imp.mu.Unlock()
	if ok {
		return imp.DeleteDocument(ctx, id)
	}
	slug := fileSlug(filepath.Base(path))
	doc, err := imp.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("removed page %q: %w", slug, err)
	}
	return imp.DeleteDocument(ctx, doc.ID)
}

// trackPage remembers which document a markdown file produced.
func (imp *Importer) trackPage(ctx context.Context, path, slug string) {
	doc, err := imp.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		imp.logger.Warn("imported page not found", zap.String("path", path), zap.Error(err))
		return
	}
	imp.mu.Lock()
	imp.pages[pageKey(path)] = doc.ID
	imp.mu.Unlock()
}

func pageKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Reindex rebuilds the keyword index from the store.
func (imp *Importer) Reindex(ctx context.Context) (int, error) {
	if imp.index == nil {
		return 0, nil
	}
	const batch = 100
	n := 0
	for offset := 0; ; offset += batch {
		docs, err := imp.store.ListDocuments(ctx, offset, batch)
		if err != nil {
			return n, err
		}
		for _, doc := range docs {
			if err := imp.indexDocument(ctx, doc); err != nil {
				return n, err
			}
			n++
		}
		if len(docs) < batch {
			break
		}
	}
	imp.invalidate()
	return n, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// ParseMarkdown reads a markdown page with optional YAML front matter. The
// body is rendered to HTML. The file name provides the title and slug when
// the front matter does not.
func (imp *Importer) ParseMarkdown(name string, data []byte) (*models.DocumentInput, error) {
	front, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var in models.DocumentInput
	if len(front) > 0 {
		if err := yaml.Unmarshal(front, &in); err != nil {
			return nil, fmt.Errorf("%s: failed to parse front matter: %w", name, err)
		}
	}
	var buf bytes.Buffer
	if err := imp.markdown.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("%s: failed to render markdown: %w", name, err)
	}
	in.Content = strings.TrimSpace(buf.String())
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if in.Title == "" {
		in.Title = stem
	}
	if in.Slug == "" {
		in.Slug = fileSlug(name)
	}
	in.Normalize()
	return &in, nil
}

func fileSlug(name string) string {
	var in models.DocumentInput
	in.Slug = strings.TrimSuffix(name, filepath.Ext(name))
	in.Normalize()
	return in.Slug
}

// splitFrontMatter separates a leading "---" delimited block from the body.
func splitFrontMatter(data []byte) (front, body []byte, err error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return nil, []byte(text), nil
	}
	rest := text[len("---\n"):]
	lines := strings.SplitAfter(rest, "\n")
	offset := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return []byte(rest[:offset]), []byte(rest[offset+len(line):]), nil
		}
		offset += len(line)
	}
	return nil, nil, fmt.Errorf("unterminated front matter")
}
