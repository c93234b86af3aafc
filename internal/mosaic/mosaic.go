// Package mosaic renders images by replacing every tile with its nearest corpus tile.
package mosaic

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/tessera/internal/metrics"
	"github.com/hyperjump/tessera/internal/nn"
	"github.com/hyperjump/tessera/internal/tile"
)

// Renderer runs the decompose, query and recompose pipeline.
// It holds no per-render state and may be shared between goroutines.
type Renderer struct {
	workers   int
	logger    *zap.Logger
	collector metrics.Collector
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWorkers bounds the number of concurrent tile queries per render.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCollector reports render metrics to c.
func WithCollector(c metrics.Collector) Option {
	return func(r *Renderer) {
		if c != nil {
			r.collector = c
		}
	}
}

// NewRenderer returns a Renderer using GOMAXPROCS workers unless configured otherwise.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		workers:   runtime.GOMAXPROCS(0),
		logger:    zap.NewNop(),
		collector: metrics.NoopCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render crops src to whole tiles of the index's side, queries idx once per tile and
// reassembles the results in the same positions. Either every tile is replaced or an
// error is returned; a partial mosaic is never produced.
func (r *Renderer) Render(ctx context.Context, src *tile.Raster, idx nn.Index) (*tile.Raster, error) {
	if idx == nil || idx.Size() == 0 {
		return nil, nn.ErrIndexNotBuilt
	}
	start := time.Now()
	out, tiles, err := r.render(ctx, src, idx)
	elapsed := time.Since(start)
	r.collector.RecordRender(idx.Type(), tiles, elapsed, err)
	if err != nil {
		r.logger.Warn("render failed", zap.String("index", idx.Type()), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("render complete",
		zap.String("index", idx.Type()),
		zap.Int("tiles", tiles),
		zap.Int("width", out.Width),
		zap.Int("height", out.Height),
		zap.Duration("elapsed", elapsed))
	return out, nil
}

func (r *Renderer) render(ctx context.Context, src *tile.Raster, idx nn.Index) (*tile.Raster, int, error) {
	grid, err := tile.Decompose(src, idx.TileSide())
	if err != nil {
		return nil, 0, err
	}
	result := &tile.Grid{Rows: grid.Rows, Cols: grid.Cols, Side: grid.Side, Tiles: make([]tile.Tile, len(grid.Tiles))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, t := range grid.Tiles {
		if gctx.Err() != nil {
			break
		}
		i, t := i, t
		g.Go(func() error {
			match, err := idx.Query(gctx, t)
			if err != nil {
				return fmt.Errorf("tile (%d, %d): %w", i/grid.Cols, i%grid.Cols, err)
			}
			result.Tiles[i] = match
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	out, err := tile.Recompose(result)
	if err != nil {
		return nil, 0, err
	}
	return out, len(grid.Tiles), nil
}

// Encoding selects the output image format.
type Encoding struct {
	Format  tile.Format
	Quality int
}

// Process decodes an image from in, renders it and writes the encoded mosaic to w.
func (r *Renderer) Process(ctx context.Context, in io.Reader, w io.Writer, idx nn.Index, enc Encoding) error {
	src, err := tile.Decode(in)
	if err != nil {
		return err
	}
	out, err := r.Render(ctx, src, idx)
	if err != nil {
		return err
	}
	if err := tile.Encode(w, out, enc.Format, enc.Quality); err != nil {
		return fmt.Errorf("encode mosaic: %w", err)
	}
	return nil
}
