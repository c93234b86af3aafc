package config

import (
	"path/filepath"
	"runtime"
	"time"
)

const (
	defaultDataDir   = "/usr/local/var/tessera/data"
	defaultIndexType = "ward_tree"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = "http://localhost:3000"
	}
	if cfg.Server.MaxImageSize == 0 {
		cfg.Server.MaxImageSize = 16 * 1024 * 1024
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.CORSMaxAge == 0 {
		cfg.Server.CORSMaxAge = 120 * time.Second
	}
	if cfg.Server.MaxConcurrentRenders == 0 {
		cfg.Server.MaxConcurrentRenders = runtime.NumCPU()
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = max(1, int(cfg.Server.RateLimit))
	}
	if cfg.Corpus.DatabasePath == "" {
		cfg.Corpus.DatabasePath = filepath.Join(defaultDataDir, "db", "tiles.db")
	}
	if cfg.Corpus.TileSide == 0 {
		cfg.Corpus.TileSide = 32
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = defaultIndexType
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = filepath.Join(defaultDataDir, "indices", cfg.Index.Type+".idx")
	}
	if cfg.Index.Compression == "" {
		cfg.Index.Compression = "zstd"
	}
	if cfg.Build.NumPoints == 0 {
		cfg.Build.NumPoints = 10000
	}
	if cfg.Build.PartitionSize == 0 {
		cfg.Build.PartitionSize = 40
	}
	if cfg.Build.KMeansIterations == 0 {
		cfg.Build.KMeansIterations = 25
	}
	if cfg.Build.Probe == 0 {
		cfg.Build.Probe = 1
	}
	if cfg.Build.Candidates == 0 {
		cfg.Build.Candidates = 1
	}
	if cfg.Mosaic.Format == "" {
		// The web client only accepts image/jpeg responses.
		cfg.Mosaic.Format = "jpeg"
	}
	if cfg.Mosaic.JPEGQuality == 0 {
		cfg.Mosaic.JPEGQuality = 90
	}
}
