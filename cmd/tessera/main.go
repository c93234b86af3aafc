// Package main is the Tessera CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tessera/internal/cli"
	"github.com/hyperjump/tessera/internal/config"
	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/fileid"
	"github.com/hyperjump/tessera/internal/metrics"
	"github.com/hyperjump/tessera/internal/models"
	"github.com/hyperjump/tessera/internal/mosaic"
	"github.com/hyperjump/tessera/internal/nn"
	"github.com/hyperjump/tessera/internal/server"
	"github.com/hyperjump/tessera/internal/storage"
	"github.com/hyperjump/tessera/internal/tile"
	"github.com/hyperjump/tessera/internal/watcher"
	"github.com/hyperjump/tessera/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tessera/config.yaml"

// importBatchSize is how many tiles are inserted per transaction.
const importBatchSize = 1000

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When neither exists, the built-in defaults are used so a fresh install works without a config.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
				return nil, "", err
			}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "init":
		runInit()
	case "server":
		runServer()
	case "import":
		runImport()
	case "build":
		runBuild()
	case "render":
		runRender()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tessera version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// mustSetup loads config and creates the logger, exiting on failure.
func mustSetup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing config")
	_ = fs.Parse(os.Args[2:])
	path := defaultConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// writeDefaultConfig writes the built-in defaults to path. Existing files are kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (index reloads, watcher events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	debugMode := cfg.Debug || *debug
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Corpus.DatabasePath)
	if err != nil {
		logger.Warn("corpus store unavailable; status will omit corpus information", zap.Error(err))
		store = nil
	}
	var st storage.Storage
	if store != nil {
		st = store
		defer store.Close()
	}

	collector := metrics.NewPrometheus(nil)
	renderer := mosaic.NewRenderer(
		mosaic.WithWorkers(cfg.Mosaic.Workers),
		mosaic.WithLogger(logger),
		mosaic.WithCollector(collector),
	)
	srv := server.NewServer(cfg, renderer, st, logger, server.WithMetrics(collector))
	if err := srv.Reload(cfg.Index.Path); err != nil {
		logger.Warn("no index loaded; run `tessera build` to create one",
			zap.String("path", cfg.Index.Path), zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Index.WatchOrDefault() {
		opts := []watcher.Option{
			watcher.WithFile(cfg.Index.Path),
			watcher.WithRemoveHandler(func(path string) {
				logger.Warn("index artifact removed; keeping the loaded index", zap.String("path", path))
			}),
		}
		if debugMode {
			opts = append(opts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher([]string{filepath.Dir(cfg.Index.Path)}, func(path string) {
			_ = srv.Reload(path)
		}, opts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("index hot reload disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 0, "maximum tiles per CIFAR batch (0 = all)")
	side := fs.Int("side", 0, "tile side for image directories (default from config)")
	watch := fs.Bool("watch", false, "keep running and import images added to the directory")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 || (fs.Arg(0) != "cifar" && fs.Arg(0) != "dir") {
		fmt.Println("Usage: tessera import [flags] cifar <batch.bin>...")
		fmt.Println("       tessera import [flags] dir <directory>")
		os.Exit(1)
	}
	cfg, _, logger := mustSetup(*configPath, false)
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Corpus.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open corpus store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if fs.Arg(0) == "cifar" {
		n, err := importCIFAR(ctx, store, fs.Args()[1:], *limit, logger)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d tile(s)\n", n)
		return
	}

	tileSide := cfg.Corpus.TileSide
	if *side > 0 {
		tileSide = *side
	}
	root := fs.Arg(1)
	n, err := importImages(ctx, store, root, tileSide, logger)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d tile(s) from %s\n", n, root)
	if !*watch {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := watcher.NewWatcher([]string{root}, func(path string) {
		if _, err := importImages(watchCtx, store, path, tileSide, logger); err != nil {
			logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
		}
	}, watcher.WithRecursive(true), watcher.WithExtensions(corpus.ImageExtensions...), watcher.WithLogger(logger))
	if err := w.Start(watchCtx); err != nil {
		fmt.Printf("Failed to watch %s: %v\n", root, err)
		os.Exit(1)
	}
	defer w.Stop()
	fmt.Printf("Watching %s for new images (Ctrl-C to stop)\n", root)
	waitForSignal()
}

// importCIFAR imports CIFAR-10 batch files. Batches already imported are skipped.
func importCIFAR(ctx context.Context, store storage.Storage, paths []string, limit int, logger *zap.Logger) (int, error) {
	total := 0
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return total, err
		}
		source := fileid.BatchSourceID(abs)
		seen, err := store.HasSource(ctx, source)
		if err != nil {
			return total, err
		}
		if seen {
			logger.Info("batch already imported", zap.String("path", abs))
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			return total, err
		}
		entries, err := corpus.ReadCIFAR(f, limit)
		_ = f.Close()
		if err != nil {
			return total, fmt.Errorf("%s: %w", p, err)
		}
		records := make([]*models.TileRecord, len(entries))
		for i, e := range entries {
			records[i] = &models.TileRecord{Source: source, Label: e.Label, Side: corpus.CIFARSide, Pixels: e.Tile}
		}
		if err := insertTiles(ctx, store, records); err != nil {
			return total, err
		}
		logger.Info("imported batch", zap.String("path", abs), zap.Int("tiles", len(records)))
		total += len(records)
	}
	return total, nil
}

// importImages imports every image under root (or root itself when it is a file) as one tile.
// Files already imported are skipped.
func importImages(ctx context.Context, store storage.Storage, root string, side int, logger *zap.Logger) (int, error) {
	entries, err := corpus.ScanImages(ctx, root, side,
		corpus.WithLogger(logger),
		corpus.WithSkip(func(path string) bool {
			seen, err := store.HasSource(ctx, fileid.FileSourceID(path))
			return err == nil && seen
		}),
	)
	if err != nil {
		return 0, err
	}
	records := make([]*models.TileRecord, len(entries))
	for i, e := range entries {
		records[i] = &models.TileRecord{Source: fileid.FileSourceID(e.Path), Label: -1, Side: side, Pixels: e.Tile}
	}
	if err := insertTiles(ctx, store, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func insertTiles(ctx context.Context, store storage.Storage, records []*models.TileRecord) error {
	for start := 0; start < len(records); start += importBatchSize {
		end := min(start+importBatchSize, len(records))
		if err := store.BatchCreateTiles(ctx, records[start:end]); err != nil {
			return fmt.Errorf("insert tiles: %w", err)
		}
	}
	return nil
}

// buildParams are the build command's settings after flags override config.
type buildParams struct {
	IndexType   string
	Output      string
	NumPoints   int
	Compression nn.Compression
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	indexType := fs.String("type", "", "index type: ward_tree or ivf (default from config)")
	output := fs.String("output", "", "artifact path (default from config)")
	points := fs.Int("points", 0, "number of corpus tiles to index (default from config)")
	compression := fs.String("compression", "", "artifact compression: none, lz4 or zstd (default from config)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := mustSetup(*configPath, false)
	defer logger.Sync()

	params, err := resolveBuildParams(cfg, *indexType, *output, *points, *compression)
	if err != nil {
		fmt.Printf("Invalid build settings: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Corpus.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open corpus store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	build, err := buildIndex(ctx, cfg, store, params, logger)
	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteBuild(os.Stdout, build, cli.OutputFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// resolveBuildParams applies non-zero flag values over the config. Changing the type without
// an explicit output writes <type>.idx next to the configured artifact.
func resolveBuildParams(cfg *config.Config, indexType, output string, points int, compression string) (buildParams, error) {
	p := buildParams{IndexType: cfg.Index.Type, Output: cfg.Index.Path, NumPoints: cfg.Build.NumPoints}
	if indexType != "" && indexType != p.IndexType {
		p.IndexType = indexType
		p.Output = filepath.Join(filepath.Dir(cfg.Index.Path), indexType+".idx")
	}
	if output != "" {
		p.Output = output
	}
	if points > 0 {
		p.NumPoints = points
	}
	if compression == "" {
		compression = cfg.Index.Compression
	}
	c, err := nn.ParseCompression(compression)
	if err != nil {
		return p, err
	}
	p.Compression = c
	switch nn.IndexType(p.IndexType) {
	case nn.IndexTypeWardTree, nn.IndexTypeIVF:
	default:
		return p, fmt.Errorf("unknown index type: %s (supported: ward_tree, ivf)", p.IndexType)
	}
	return p, nil
}

// buildIndex loads the first NumPoints corpus tiles, builds the index, saves the artifact and
// records the build in the catalog.
func buildIndex(ctx context.Context, cfg *config.Config, store storage.Storage, p buildParams, logger *zap.Logger) (*models.BuildRecord, error) {
	c, err := corpus.Load(ctx, store, cfg.Corpus.TileSide, p.NumPoints)
	if err != nil {
		return nil, err
	}
	logger.Info("building index",
		zap.String("type", p.IndexType),
		zap.Int("tiles", c.Len()),
		zap.Int("tile_side", c.Side()))
	start := time.Now()
	idx, err := nn.Build(ctx, p.IndexType, c, nn.BuildOptions{
		PartitionSize:    cfg.Build.PartitionSize,
		KMeansIterations: cfg.Build.KMeansIterations,
		Probe:            cfg.Build.Probe,
		Candidates:       cfg.Build.Candidates,
		Seed:             cfg.Build.Seed,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	if err := nn.Save(p.Output, idx, p.Compression); err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"compression": p.Compression.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if ivf, ok := idx.(*nn.IVF); ok {
		params["partitions"] = ivf.Partitions()
		params["partition_size"] = cfg.Build.PartitionSize
		params["probe"] = cfg.Build.Probe
		params["candidates"] = cfg.Build.Candidates
		params["seed"] = cfg.Build.Seed
	}
	if tree, ok := idx.(*nn.WardTree); ok {
		params["depth"] = tree.Depth()
	}
	build := &models.BuildRecord{
		ID:         uuid.NewString(),
		IndexType:  idx.Type(),
		Path:       p.Output,
		CorpusSize: idx.Size(),
		TileSide:   idx.TileSide(),
		Params:     params,
	}
	if err := store.CreateBuild(ctx, build); err != nil {
		return nil, fmt.Errorf("record build: %w", err)
	}
	logger.Info("index built", zap.String("id", build.ID), zap.String("path", p.Output),
		zap.Duration("elapsed", time.Since(start)))
	return build, nil
}

func runRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	indexPath := fs.String("index", "", "index artifact (default from config)")
	format := fs.String("format", "", "output format: png or jpeg (default from output extension)")
	quality := fs.Int("quality", 0, "JPEG quality 1-100 (default from config)")
	workers := fs.Int("workers", 0, "concurrent tile queries (default from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: tessera render [flags] <input-image> <output-image>")
		os.Exit(1)
	}
	cfg, _, logger := mustSetup(*configPath, false)
	defer logger.Sync()

	if *indexPath == "" {
		*indexPath = cfg.Index.Path
	}
	if *quality == 0 {
		*quality = cfg.Mosaic.JPEGQuality
	}
	if *workers == 0 {
		*workers = cfg.Mosaic.Workers
	}
	outFormat, err := outputFormatFor(fs.Arg(1), *format, cfg.Mosaic.Format)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	idx, err := nn.Load(*indexPath)
	if err != nil {
		fmt.Printf("Failed to load index: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	renderer := mosaic.NewRenderer(mosaic.WithWorkers(*workers), mosaic.WithLogger(logger))
	if err := renderFile(ctx, renderer, idx, fs.Arg(0), fs.Arg(1), mosaic.Encoding{Format: outFormat, Quality: *quality}); err != nil {
		fmt.Printf("Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Mosaic written to %s\n", fs.Arg(1))
}

// outputFormatFor picks the encoding: an explicit flag wins, then the output extension,
// then the configured default.
func outputFormatFor(outputPath, flagValue, configValue string) (tile.Format, error) {
	if flagValue != "" {
		return tile.ParseFormat(flagValue)
	}
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".png":
		return tile.FormatPNG, nil
	case ".jpg", ".jpeg":
		return tile.FormatJPEG, nil
	}
	return tile.ParseFormat(configValue)
}

func renderFile(ctx context.Context, r *mosaic.Renderer, idx nn.Index, inPath, outPath string, enc mosaic.Encoding) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := r.Process(ctx, in, out, idx, enc); err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return err
	}
	return out.Close()
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:5000", "server URL; empty reads the corpus store directly")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *models.StatusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, _, loadErr := loadConfig(*configPath)
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", loadErr)
			os.Exit(1)
		}
		status, err = directStatus(context.Background(), cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json", "text":
		if err := cli.WriteStatus(os.Stdout, status, cli.OutputFormat(*outputFormat)); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*models.StatusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s models.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// directStatus reports from the corpus store without a running server. The index section
// comes from the latest build of the configured artifact, if that file exists.
func directStatus(ctx context.Context, cfg *config.Config) (*models.StatusResponse, error) {
	store, err := storage.NewSQLiteStorage(cfg.Corpus.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	count, err := store.CountTiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tiles: %w", err)
	}
	builds, err := store.ListBuilds(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	status := &models.StatusResponse{CorpusTiles: count, RecentBuilds: builds}
	if _, statErr := os.Stat(cfg.Index.Path); statErr == nil {
		for _, b := range builds {
			if b.Path == cfg.Index.Path {
				status.Index = &models.IndexStatus{Type: b.IndexType, Size: b.CorpusSize, TileSide: b.TileSide, Path: b.Path}
				break
			}
		}
	}
	db := cfg.Corpus.DatabasePath
	if diskBytes, err := storage.DiskUsageBytes(db, db+"-wal", db+"-shm", cfg.Index.Path); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func printUsage() {
	fmt.Println(`tessera - Photomosaic generator and API server

Usage:
  tessera init [--force] [path]               Write a default config file
  tessera server [flags]                      Start the HTTP server
  tessera import [flags] cifar <batch.bin>... Import CIFAR-10 binary batches into the corpus
  tessera import [flags] dir <directory>      Import a directory of images, one tile per image
  tessera build [flags]                       Build an index artifact from the corpus
  tessera render [flags] <input> <output>     Render a mosaic to a file
  tessera status [flags]                      Show corpus/index/build status
  tessera version                             Show version
  tessera help                                Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/tessera/config.yaml)
  --debug            Enable debug logging

Import Flags:
  --config string    Config file path
  --limit int        Maximum tiles per CIFAR batch (default: all)
  --side int         Tile side for image directories (default from config)
  --watch            Keep importing images added to the directory

Build Flags:
  --config string       Config file path
  --type string         ward_tree or ivf (default from config)
  --output string       Artifact path (default from config)
  --points int          Corpus tiles to index (default from config)
  --compression string  none, lz4 or zstd (default from config)
  --format string       text or json (default: text)

Render Flags:
  --index string     Index artifact (default from config)
  --format string    png or jpeg (default from output extension)
  --quality int      JPEG quality (default from config)
  --workers int      Concurrent tile queries (default from config)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:5000). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  tessera import cifar data_batch_1.bin data_batch_2.bin
  tessera import --watch dir ~/Pictures/tiles
  tessera build --type ivf --points 20000
  tessera render photo.jpg mosaic.png
  tessera server
  tessera status --server ""`)
}
