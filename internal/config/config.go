// Package config provides configuration loading and structs for the Tessera server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Corpus CorpusConfig `yaml:"corpus"`
	Index  IndexConfig  `yaml:"index"`
	Build  BuildConfig  `yaml:"build"`
	Mosaic MosaicConfig `yaml:"mosaic"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	FrontendURL string `yaml:"frontend_url"`
	// MaxImageSize caps request bodies in bytes.
	MaxImageSize   int64         `yaml:"max_image_size"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSMaxAge     time.Duration `yaml:"cors_max_age"`
	// MaxConcurrentRenders bounds renders in flight; further requests wait for a slot.
	MaxConcurrentRenders int `yaml:"max_concurrent_renders"`
	// RateLimit is in requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// CorpusConfig holds the tile store location and geometry.
type CorpusConfig struct {
	DatabasePath string `yaml:"database_path"`
	TileSide     int    `yaml:"tile_side"`
}

// IndexConfig selects the index served by the API.
type IndexConfig struct {
	Type        string `yaml:"type"`
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
	Watch       *bool  `yaml:"watch"`
}

// WatchOrDefault returns whether to hot-reload the index artifact; defaults to true when unset.
func (i *IndexConfig) WatchOrDefault() bool {
	if i.Watch != nil {
		return *i.Watch
	}
	return true
}

// BuildConfig holds offline index build settings.
type BuildConfig struct {
	// NumPoints is how many corpus tiles (in import order) an index is built from.
	NumPoints        int   `yaml:"num_points"`
	PartitionSize    int   `yaml:"partition_size"`
	KMeansIterations int   `yaml:"kmeans_iterations"`
	Seed             int64 `yaml:"seed"`
	Probe            int   `yaml:"probe"`
	Candidates       int   `yaml:"candidates"`
}

// MosaicConfig holds render settings.
type MosaicConfig struct {
	// Workers bounds concurrent tile queries per render; 0 means GOMAXPROCS.
	Workers     int    `yaml:"workers"`
	Format      string `yaml:"format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// Load reads and parses the config file at path, applies environment overrides and
// defaults, and expands paths.
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

	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.DatabasePath = expandPath(cfg.Corpus.DatabasePath, configDir)
	cfg.Index.Path = expandPath(cfg.Index.Path, configDir)

	return &cfg, nil
}

// ApplyEnv overrides cfg from the environment variables the mosaic service has always
// honored: ALGORITHM_TYPE, ALGORITHM_FILE, MAX_IMAGE_SIZE, FRONTEND_URL and TESSERA_DEBUG.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("ALGORITHM_TYPE"); v != "" {
		cfg.Index.Type = v
	}
	if v := getenv("ALGORITHM_FILE"); v != "" {
		cfg.Index.Path = v
	}
	if v := getenv("MAX_IMAGE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_IMAGE_SIZE %q", v)
		}
		cfg.Server.MaxImageSize = n
	}
	if v := getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := getenv("TESSERA_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TESSERA_DEBUG %q", v)
		}
		cfg.Debug = debug
	}
	return nil
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
