// Package config provides configuration loading and structs for the thoreau server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Pages   PagesConfig   `yaml:"pages"`
	Import  ImportConfig  `yaml:"import"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BaseURL is prefixed to permalinks; empty means site-relative links.
	BaseURL string `yaml:"base_url"`
}

// StorageConfig holds paths for the database and keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// SearchConfig holds excerpt, highlight and ranking settings.
type SearchConfig struct {
	DefaultLimit   int    `yaml:"default_limit"`
	MaxLimit       int    `yaml:"max_limit"`
	ExcerptWords   int    `yaml:"excerpt_words"`
	PrecedingWords int    `yaml:"preceding_words"`
	HighlightClass string `yaml:"highlight_class"`
	// TitleTierLimit is the term count from which the all/any-terms title tiers are skipped.
	TitleTierLimit     int      `yaml:"title_tier_limit"`
	ExtraReservedWords []string `yaml:"extra_reserved_words"`
	// StopwordSource selects the linguistic stopword list: "wordpress" or "snowball".
	StopwordSource     string `yaml:"stopword_source"`
	SuggestionsEnabled *bool  `yaml:"suggestions_enabled"`
}

// SuggestionsOrDefault reports whether spelling suggestions are enabled; defaults to true.
func (s *SearchConfig) SuggestionsOrDefault() bool {
	if s.SuggestionsEnabled != nil {
		return *s.SuggestionsEnabled
	}
	return true
}

// PagesConfig identifies the aggregation pages by display template.
type PagesConfig struct {
	FeaturedTemplate string `yaml:"featured_template"`
	LikedTemplate    string `yaml:"liked_template"`
	// PrimaryPostType decides which listing section comes first ("page" or "post").
	PrimaryPostType string `yaml:"primary_post_type"`
}

// ImportConfig holds content import directory settings.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (i *ImportConfig) RecursiveOrDefault() bool {
	if i.Recursive != nil {
		return *i.Recursive
	}
	return true
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
