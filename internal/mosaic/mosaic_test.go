package mosaic

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/nn"
	"github.com/hyperjump/tessera/internal/tile"
)

// echoIndex returns a solid tile whose red channel is the query's first byte.
type echoIndex struct {
	side     int
	failAt   int64
	delay    time.Duration
	calls    atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func (e *echoIndex) Query(ctx context.Context, q tile.Tile) (tile.Tile, error) {
	n := e.calls.Add(1)
	cur := e.inflight.Add(1)
	defer e.inflight.Add(-1)
	for {
		p := e.peak.Load()
		if cur <= p || e.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.failAt > 0 && n >= e.failAt {
		return nil, errors.New("lookup failed")
	}
	return tile.Solid(e.side, q[0], 0, 0), nil
}

func (e *echoIndex) Type() string  { return "echo" }
func (e *echoIndex) Size() int     { return 256 }
func (e *echoIndex) TileSide() int { return e.side }

// gradient fills each pixel's red channel with its tile's row-major index.
func gradient(w, h, side int) *tile.Raster {
	r := tile.NewRaster(w, h)
	cols := w / side
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * tile.Channels
			r.Pix[i] = uint8((y/side)*cols + x/side)
			r.Pix[i+1] = 200
		}
	}
	return r
}

type recordingCollector struct {
	mu    sync.Mutex
	tiles int
	errs  int
}

func (c *recordingCollector) RecordRender(_ string, tiles int, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiles += tiles
	if err != nil {
		c.errs++
	}
}
func (c *recordingCollector) RecordIndexLoad(string, int, error) {}
func (c *recordingCollector) RecordRejected(string)              {}

func TestRender_PlacesTilesInPosition(t *testing.T) {
	idx := &echoIndex{side: 4}
	out, err := NewRenderer(WithWorkers(3)).Render(context.Background(), gradient(20, 12, 4), idx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 20 || out.Height != 12 {
		t.Fatalf("output %dx%d, want 20x12", out.Width, out.Height)
	}
	grid, err := tile.Decompose(out, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, got := range grid.Tiles {
		if want := tile.Solid(4, uint8(i), 0, 0); !got.Equal(want) {
			t.Errorf("tile %d = %v..., want red %d", i, got[:3], i)
		}
	}
	if idx.calls.Load() != 15 {
		t.Errorf("queries = %d, want 15", idx.calls.Load())
	}
}

func TestRender_CropsToWholeTiles(t *testing.T) {
	c, err := corpus.New(32, []tile.Tile{
		tile.Solid(32, 255, 0, 0),
		tile.Solid(32, 0, 255, 0),
		tile.Solid(32, 0, 0, 255),
		tile.Solid(32, 255, 255, 255),
	})
	if err != nil {
		t.Fatal(err)
	}
	idx, err := nn.BuildWardTree(c, [][2]int{{0, 1}, {4, 2}, {5, 3}})
	if err != nil {
		t.Fatal(err)
	}
	collector := &recordingCollector{}
	out, err := NewRenderer(WithCollector(collector)).Render(context.Background(), tile.NewRaster(65, 65), idx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 64 || out.Height != 64 {
		t.Errorf("output %dx%d, want 64x64", out.Width, out.Height)
	}
	if collector.tiles != 4 {
		t.Errorf("collector saw %d tiles, want 4", collector.tiles)
	}
}

func TestRender_QueryFailureAborts(t *testing.T) {
	idx := &echoIndex{side: 2, failAt: 5}
	collector := &recordingCollector{}
	out, err := NewRenderer(WithWorkers(2), WithCollector(collector)).Render(context.Background(), gradient(16, 16, 2), idx)
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Error("a failed render must not return an image")
	}
	if collector.errs != 1 {
		t.Errorf("collector errors = %d, want 1", collector.errs)
	}
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := NewRenderer().Render(ctx, gradient(8, 8, 2), &echoIndex{side: 2})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if out != nil {
		t.Error("a cancelled render must not return an image")
	}
}

func TestRender_BoundedWorkers(t *testing.T) {
	idx := &echoIndex{side: 2, delay: 2 * time.Millisecond}
	if _, err := NewRenderer(WithWorkers(2)).Render(context.Background(), gradient(16, 8, 2), idx); err != nil {
		t.Fatal(err)
	}
	if p := idx.peak.Load(); p > 2 {
		t.Errorf("peak concurrency %d exceeds 2 workers", p)
	}
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(context.Background(), gradient(8, 8, 2), nil); !errors.Is(err, nn.ErrIndexNotBuilt) {
		t.Errorf("nil index: err = %v", err)
	}
	for _, idx := range []nn.Index{(*nn.WardTree)(nil), (*nn.IVF)(nil), &nn.WardTree{}} {
		if _, err := r.Render(context.Background(), gradient(8, 8, 2), idx); !errors.Is(err, nn.ErrIndexNotBuilt) {
			t.Errorf("%T with no corpus: err = %v", idx, err)
		}
	}
	if _, err := r.Render(context.Background(), tile.NewRaster(3, 3), &echoIndex{side: 4}); !errors.Is(err, tile.ErrInvalidImage) {
		t.Errorf("small image: err = %v", err)
	}
}

func TestProcess_PNG(t *testing.T) {
	var in bytes.Buffer
	if err := tile.Encode(&in, gradient(9, 6, 3), tile.FormatPNG, 0); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := NewRenderer().Process(context.Background(), &in, &out, &echoIndex{side: 3}, Encoding{Format: tile.FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 9 || b.Dy() != 6 {
		t.Errorf("decoded %v, want 9x6", b)
	}

	err = NewRenderer().Process(context.Background(), bytes.NewReader([]byte("nope")), &out, &echoIndex{side: 3}, Encoding{})
	if !errors.Is(err, tile.ErrInvalidImage) {
		t.Errorf("garbage input: err = %v", err)
	}
}
