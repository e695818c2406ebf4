package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/thoreau/internal/config"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pipeline"
	"go.uber.org/zap"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after phrase are moved first",
			args:     []string{"walden pond", "-limit", "5"},
			expected: []string{"-limit", "5", "walden pond"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "walden pond"},
			expected: []string{"-limit", "5", "walden pond"},
		},
		{
			name:     "phrase only returns unchanged",
			args:     []string{"walden pond"},
			expected: []string{"walden pond"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"walden", "pond", "-output", "json"},
			expected: []string{"-output", "json", "walden", "pond"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchPhrase(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"walden"}, "walden"},
		{"multiple words", []string{"walden", "pond"}, "walden pond"},
		{"single quoted phrase", []string{"walden pond"}, "walden pond"},
		{"quoted group kept", []string{`"walden pond"`, "ice"}, `"walden pond" ice`},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchPhrase(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchPhrase(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func newTestComponents(t *testing.T) (*config.Config, *Components) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Storage.DatabasePath = filepath.Join(dir, "thoreau.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "bleve")
	cfg.Metrics.Enabled = true
	config.ApplyDefaults(cfg)
	c, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return cfg, c
}

func TestInitializeComponents_ImportAndSearch(t *testing.T) {
	cfg, c := newTestComponents(t)
	ctx := context.Background()

	content := filepath.Join(t.TempDir(), "content")
	if err := os.MkdirAll(content, 0755); err != nil {
		t.Fatal(err)
	}
	bundle := `
documents:
  - id: 1
    title: The Ponds
    content: "<p>Walden Pond is a clear and deep green well.</p>"
  - id: 2
    title: Featured Comments
    template: comments-featured.php
    content: "<p>Notes on the pond.</p>"
comments:
  - post_slug: the-ponds
    author: Emerson
    content: A deep pond.
    featured: true
`
	if err := os.WriteFile(filepath.Join(content, "walden.yaml"), []byte(bundle), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := importPath(ctx, c.Importer, content)
	if err != nil {
		t.Fatal(err)
	}
	if res.Documents != 2 || res.Comments != 1 {
		t.Fatalf("imported %+v", res)
	}

	req := pipeline.NewRequest(c.Resolver.NewMemo())
	req.Query = &models.SearchQuery{Phrase: "pond"}
	resp, err := c.Engine.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Document.ID != 1 {
		t.Errorf("search should skip the aggregation page: %+v", resp)
	}

	status, err := localStatus(ctx, cfg, c)
	if err != nil {
		t.Fatal(err)
	}
	if status.Documents != 2 || status.Comments != 1 {
		t.Errorf("status counts: %+v", status)
	}
	if len(status.FeaturedPages) != 1 || status.FeaturedPages[0] != 2 {
		t.Errorf("featured pages: %v", status.FeaturedPages)
	}
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes <= 0 {
		t.Error("disk usage should be measured")
	}

	if _, err := importPath(ctx, c.Importer, filepath.Join(content, "missing.yaml")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestWriteStatus(t *testing.T) {
	size := int64(2048)
	status := &statusResponse{
		Documents:          3,
		Comments:           5,
		FeaturedPages:      []int64{4},
		DiskUsageBytes:     &size,
		WatchedDirectories: []string{"/srv/walden"},
	}

	var buf bytes.Buffer
	if err := writeStatus(&buf, status, "text"); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"documents:          3", "comments:           5", "featured_pages:     [4]", "2.0 KiB", "watching:           /srv/walden"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text status missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := writeStatus(&buf, status, "json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"disk_usage_bytes": 2048`) {
		t.Errorf("json status: %s", buf.String())
	}

	if err := writeStatus(&buf, status, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
