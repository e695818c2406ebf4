// Package main is the thoreau CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/thoreau/internal/cli"
	"github.com/hyperjump/thoreau/internal/comments"
	"github.com/hyperjump/thoreau/internal/config"
	"github.com/hyperjump/thoreau/internal/importer"
	"github.com/hyperjump/thoreau/internal/keyword"
	"github.com/hyperjump/thoreau/internal/metrics"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pages"
	"github.com/hyperjump/thoreau/internal/pipeline"
	"github.com/hyperjump/thoreau/internal/search"
	"github.com/hyperjump/thoreau/internal/server"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/internal/watcher"
	"github.com/hyperjump/thoreau/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/thoreau/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("thoreau version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger and components, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (searches, imports, directory changes)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	watchSvc := watcher.NewWatcher(
		cfg.Import.Directories,
		cfg.Import.Extensions,
		cfg.Import.RecursiveOrDefault(),
		components.Importer,
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Importer,
		components.Storage,
		components.Aggregator,
		components.Resolver,
		cfg,
		server.WithMetrics(components.Metrics),
		server.WithWatcher(watchSvc),
		server.WithLogger(logger),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: thoreau search [flags] <phrase>\n\n")
	fmt.Fprintf(fs.Output(), "The phrase is all remaining arguments joined by spaces. Quote words to search for them together.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Pages whose title holds the whole phrase rank first, then titles with every
term, titles with any term, and content holding the whole phrase.

Examples:
  thoreau search walden pond
  thoreau search '"walden pond" ice'
  thoreau search --output compact --limit 20 woods
`)
}

// buildSearchPhrase joins all positional args with spaces so multi-word phrases
// work the same with or without shell quoting.
func buildSearchPhrase(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the phrase
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	offset := fs.Int("offset", 0, "number of results to skip")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	phrase := buildSearchPhrase(fs.Args())
	if phrase == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.SearchQuery{Phrase: phrase, Limit: *limit, Offset: *offset}

	var response *models.SearchResponse
	if *serverURL != "" {
		// The server holds the index lock; go through its API when it runs.
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		_, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		req := pipeline.NewRequest(components.Resolver.NewMemo())
		req.Query = query
		response, err = components.Engine.Search(context.Background(), req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimSuffix(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Documents          int64    `json:"documents"`
	Comments           int64    `json:"comments"`
	FeaturedPages      []int64  `json:"featured_pages"`
	LikedPages         []int64  `json:"liked_pages"`
	DiskUsageBytes     *int64   `json:"disk_usage_bytes,omitempty"`
	WatchedDirectories []string `json:"watched_directories,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		status, err = localStatus(context.Background(), cfg, components)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, c *Components) (*statusResponse, error) {
	docCount, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	commentCount, err := c.Storage.CountComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	memo := c.Resolver.NewMemo()
	status := &statusResponse{
		Documents:     docCount,
		Comments:      commentCount,
		FeaturedPages: memo.Featured(ctx),
		LikedPages:    memo.Liked(ctx),
	}
	if usage, err := storage.DiskUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		total := usage.Total()
		status.DiskUsageBytes = &total
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "documents:          %d   # pages and posts\n", status.Documents)
		fmt.Fprintf(w, "comments:           %d   # stored comments\n", status.Comments)
		fmt.Fprintf(w, "featured_pages:     %v\n", status.FeaturedPages)
		fmt.Fprintf(w, "liked_pages:        %v\n", status.LikedPages)
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage:         %s   # database + keyword index\n", cli.FormatBytes(*status.DiskUsageBytes))
		}
		for _, d := range status.WatchedDirectories {
			fmt.Fprintf(w, "watching:           %s\n", d)
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q; use text or json", format)
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimSuffix(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: thoreau import [flags] <file-or-directory>...")
		os.Exit(1)
	}
	_, _, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	var total importer.Result
	for _, path := range fs.Args() {
		res, err := importPath(ctx, components.Importer, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import of %s failed: %v\n", path, err)
			os.Exit(1)
		}
		total.Add(res)
	}
	fmt.Printf("Imported %d document(s) and %d comment(s)\n", total.Documents, total.Comments)
}

func importPath(ctx context.Context, imp *importer.Importer, path string) (importer.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return importer.Result{}, err
	}
	if info.IsDir() {
		return imp.ImportDirectory(ctx, path)
	}
	return imp.ImportFile(ctx, path)
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	n, err := components.Importer.Reindex(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d document(s)\n", n)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex *keyword.BleveIndex
	Metrics      *metrics.Metrics
	Engine       *search.Engine
	Resolver     *pages.Resolver
	Aggregator   *comments.Aggregator
	Importer     *importer.Importer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	spell := keyword.NewSpellChecker(keywordIndex)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	p := pipeline.New()
	modifier := search.NewModifier(&cfg.Search, search.WithModifierLogger(logger))
	modifier.Register(p)

	engine := search.NewEngine(store, p, modifier, &cfg.Search,
		search.WithSuggester(spell),
		search.WithMetrics(m),
		search.WithBaseURL(cfg.Server.BaseURL),
		search.WithLogger(logger),
	)
	resolver := pages.NewResolver(store,
		pages.WithTemplates(cfg.Pages.FeaturedTemplate, cfg.Pages.LikedTemplate),
		pages.WithLogger(logger),
	)
	aggregator := comments.NewAggregator(store,
		comments.WithRenderer(comments.NewRenderer(comments.WithPermalink(engine.Permalink))),
		comments.WithLogger(logger),
	)
	imp := importer.NewImporter(store, keywordIndex,
		importer.WithSpellChecker(spell),
		importer.WithMetrics(m),
		importer.WithExtensions(cfg.Import.Extensions),
		importer.WithLogger(logger),
	)

	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Metrics:      m,
		Engine:       engine,
		Resolver:     resolver,
		Aggregator:   aggregator,
		Importer:     imp,
	}, nil
}

func printUsage() {
	fmt.Println(`thoreau - search and comment aggregation for a Walden edition

Usage:
  thoreau server [flags]             Start the HTTP server
  thoreau search [flags] <phrase>    Search pages
  thoreau import [flags] <path>...   Import content bundles and markdown pages
  thoreau reindex [flags]            Rebuild the keyword index from storage
  thoreau status [flags]             Show storage and index status
  thoreau version                    Show version
  thoreau help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/thoreau/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to search storage directly.
  --limit int        Number of results (default: 10)
  --offset int       Results to skip (default: 0)
  --output string    Output format: text, compact or json (default: text)

Import Flags:
  --config string    Config file path
  --debug            Enable debug logging

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  thoreau server
  thoreau search walden pond
  thoreau search --output json "walden pond"
  thoreau import ./content
  thoreau status --output json`)
}
