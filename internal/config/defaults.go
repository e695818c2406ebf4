package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/thoreau/data/db/thoreau.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/thoreau/data/indices/bleve"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.ExcerptWords == 0 {
		cfg.Search.ExcerptWords = 55
	}
	if cfg.Search.PrecedingWords == 0 {
		cfg.Search.PrecedingWords = 10
	}
	if cfg.Search.HighlightClass == "" {
		cfg.Search.HighlightClass = "search_highlight"
	}
	if cfg.Search.TitleTierLimit == 0 {
		cfg.Search.TitleTierLimit = 10
	}
	if cfg.Search.StopwordSource == "" {
		cfg.Search.StopwordSource = "wordpress"
	}
	if cfg.Pages.FeaturedTemplate == "" {
		cfg.Pages.FeaturedTemplate = "comments-featured.php"
	}
	if cfg.Pages.LikedTemplate == "" {
		cfg.Pages.LikedTemplate = "comments-liked.php"
	}
	if cfg.Pages.PrimaryPostType == "" {
		cfg.Pages.PrimaryPostType = "page"
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".yaml", ".yml", ".json", ".md"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
