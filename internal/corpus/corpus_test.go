package corpus

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tessera/internal/models"
	"github.com/hyperjump/tessera/internal/tile"
)

func TestNew_CopiesAndValidates(t *testing.T) {
	src := []tile.Tile{tile.Solid(2, 1, 2, 3), tile.Solid(2, 4, 5, 6)}
	c, err := New(2, src)
	if err != nil {
		t.Fatal(err)
	}
	src[0][0] = 99
	if c.At(0)[0] != 1 {
		t.Error("corpus should not alias caller tiles")
	}
	if c.Len() != 2 || c.Side() != 2 {
		t.Errorf("Len=%d Side=%d", c.Len(), c.Side())
	}
	if _, err := New(2, []tile.Tile{tile.New(3)}); err == nil {
		t.Error("expected shape error")
	}
	if _, err := New(0, nil); err == nil {
		t.Error("expected error for zero side")
	}
}

func TestVectors(t *testing.T) {
	c, _ := New(1, []tile.Tile{{1, 2, 3}, {4, 5, 6}})
	vecs, dim := c.Vectors()
	if dim != 3 || len(vecs) != 6 || vecs[3] != 4 {
		t.Errorf("Vectors = %v (dim %d)", vecs, dim)
	}
}

func TestReadCIFAR(t *testing.T) {
	var buf bytes.Buffer
	for label := 0; label < 3; label++ {
		buf.WriteByte(byte(label))
		for c := 0; c < tile.Channels; c++ {
			buf.Write(bytes.Repeat([]byte{byte(10*label + c)}, CIFARSide*CIFARSide))
		}
	}
	entries, err := ReadCIFAR(bytes.NewReader(buf.Bytes()), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("read %d entries, want 3", len(entries))
	}
	e := entries[2]
	if e.Label != 2 {
		t.Errorf("label = %d", e.Label)
	}
	if !e.Tile.Equal(tile.Solid(CIFARSide, 20, 21, 22)) {
		t.Errorf("planar row should convert to interleaved pixels, got %v", e.Tile[:6])
	}

	limited, err := ReadCIFAR(bytes.NewReader(buf.Bytes()), 2)
	if err != nil || len(limited) != 2 {
		t.Errorf("limit: got %d entries, err %v", len(limited), err)
	}

	if _, err := ReadCIFAR(bytes.NewReader(buf.Bytes()[:100]), 0); err == nil {
		t.Error("expected error for truncated record")
	}
}

type fakeLister struct {
	tiles []*models.TileRecord
	calls int
}

func (f *fakeLister) ListTiles(_ context.Context, side, offset, limit int) ([]*models.TileRecord, error) {
	f.calls++
	var out []*models.TileRecord
	for _, t := range f.tiles {
		if t.Side == side {
			out = append(out, t)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func TestLoad(t *testing.T) {
	lister := &fakeLister{}
	for i := 0; i < 5; i++ {
		lister.tiles = append(lister.tiles, &models.TileRecord{Side: 1, Pixels: []byte{byte(i), 0, 0}})
	}
	c, err := Load(context.Background(), lister, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 || c.At(2)[0] != 2 {
		t.Errorf("Load(limit=3): len=%d", c.Len())
	}
	all, err := Load(context.Background(), lister, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if all.Len() != 5 {
		t.Errorf("Load(all) len = %d", all.Len())
	}
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 40, 20, color.NRGBA{0, 0, 255, 255})
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(sub, "a.png"), 8, 8, color.NRGBA{255, 0, 0, 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0600); err != nil {
		t.Fatal(err)
	}

	entries, err := ScanImages(context.Background(), dir, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if filepath.Base(entries[0].Path) != "b.png" {
		t.Errorf("entries should be in path order, first = %s", entries[0].Path)
	}
	if !entries[0].Tile.Equal(tile.Solid(4, 0, 0, 255)) {
		t.Errorf("solid blue image should produce a solid blue tile, got %v", entries[0].Tile[:3])
	}

	skipped, err := ScanImages(context.Background(), dir, 4, WithSkip(func(p string) bool {
		return filepath.Base(p) == "b.png"
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 1 || filepath.Base(skipped[0].Path) != "a.png" {
		t.Errorf("skip: got %+v", skipped)
	}
}
