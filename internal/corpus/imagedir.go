package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/hyperjump/tessera/internal/tile"
)

// ImageExtensions are the file extensions ScanImages decodes.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// FileEntry is a tile cut from one image file.
type FileEntry struct {
	Path string
	Tile tile.Tile
}

// ScanOption configures ScanImages.
type ScanOption func(*scanOptions)

type scanOptions struct {
	skip   func(path string) bool
	logger *zap.Logger
}

// WithSkip skips files for which skip returns true (e.g. already imported).
func WithSkip(skip func(path string) bool) ScanOption {
	return func(o *scanOptions) { o.skip = skip }
}

// WithLogger logs undecodable files instead of silently dropping them.
func WithLogger(l *zap.Logger) ScanOption {
	return func(o *scanOptions) { o.logger = l }
}

// ScanImages walks root recursively and turns every image into one side x side tile: EXIF
// orientation applied, center-cropped to a square and resampled with Lanczos.
// Files are returned in lexical path order so imports are reproducible.
func ScanImages(ctx context.Context, root string, side int, opts ...ScanOption) ([]FileEntry, error) {
	o := &scanOptions{}
	for _, opt := range opts {
		opt(o)
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImage(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	entries := make([]FileEntry, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.skip != nil && o.skip(p) {
			continue
		}
		img, err := imaging.Open(p, imaging.AutoOrientation(true))
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("skipping undecodable image", zap.String("path", p), zap.Error(err))
			}
			continue
		}
		thumb := imaging.Fill(img, side, side, imaging.Center, imaging.Lanczos)
		entries = append(entries, FileEntry{Path: p, Tile: tile.Tile(tile.FromImage(thumb).Pix)})
	}
	return entries, nil
}

func isImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
