package tile

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func patternRaster(w, h int) *Raster {
	r := NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = uint8(i * 7 % 251)
	}
	return r
}

func TestDecomposeRecompose_Identity(t *testing.T) {
	src := patternRaster(96, 64)
	g, err := Decompose(src, 32)
	if err != nil {
		t.Fatal(err)
	}
	if g.Rows != 2 || g.Cols != 3 {
		t.Fatalf("grid = %dx%d, want 2x3", g.Rows, g.Cols)
	}
	out, err := Recompose(g)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != src.Width || out.Height != src.Height {
		t.Fatalf("size = %dx%d, want %dx%d", out.Width, out.Height, src.Width, src.Height)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("decompose then recompose should be the identity on an aligned image")
	}
}

func TestDecompose_CropsTrailingPixels(t *testing.T) {
	src := patternRaster(65, 65)
	g, err := Decompose(src, 32)
	if err != nil {
		t.Fatal(err)
	}
	if g.Rows != 2 || g.Cols != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", g.Rows, g.Cols)
	}
	out, err := Recompose(g)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 64 || out.Height != 64 {
		t.Fatalf("size = %dx%d, want 64x64", out.Width, out.Height)
	}
	for y := 0; y < 64; y++ {
		want := src.Pix[y*65*Channels : y*65*Channels+64*Channels]
		got := out.Pix[y*64*Channels : (y+1)*64*Channels]
		if !bytes.Equal(got, want) {
			t.Fatalf("row %d differs from the cropped source", y)
		}
	}
}

func TestDecompose_RowMajorPlacement(t *testing.T) {
	src := NewRaster(4, 4)
	// paint the top-right 2x2 block
	for y := 0; y < 2; y++ {
		for x := 2; x < 4; x++ {
			src.Pix[(y*4+x)*Channels] = 200
		}
	}
	g, err := Decompose(src, 2)
	if err != nil {
		t.Fatal(err)
	}
	if g.At(0, 1)[0] != 200 {
		t.Errorf("tile (0,1) should hold the painted block")
	}
	if g.At(1, 0)[0] != 0 || g.At(0, 0)[0] != 0 {
		t.Errorf("unpainted tiles should be zero")
	}
}

func TestDecompose_InvalidImage(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		side int
	}{
		{"narrower than tile", 31, 64, 32},
		{"shorter than tile", 64, 10, 32},
		{"empty", 0, 0, 32},
		{"zero side", 64, 64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompose(NewRaster(tt.w, tt.h), tt.side)
			if !errors.Is(err, ErrInvalidImage) {
				t.Errorf("err = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestRecompose_WrongTileCount(t *testing.T) {
	g := &Grid{Rows: 2, Cols: 2, Side: 2, Tiles: []Tile{New(2)}}
	if _, err := Recompose(g); err == nil {
		t.Error("expected error for short grid")
	}
}

func TestFromPlanar(t *testing.T) {
	// 2x2 image: R plane 1..4, G plane 11..14, B plane 21..24
	planar := []uint8{1, 2, 3, 4, 11, 12, 13, 14, 21, 22, 23, 24}
	tl, err := FromPlanar(2, planar)
	if err != nil {
		t.Fatal(err)
	}
	want := Tile{1, 11, 21, 2, 12, 22, 3, 13, 23, 4, 14, 24}
	if !tl.Equal(want) {
		t.Errorf("FromPlanar = %v, want %v", tl, want)
	}
	if !bytes.Equal(tl.Planar(), planar) {
		t.Errorf("Planar() = %v, want %v", tl.Planar(), planar)
	}
	if _, err := FromPlanar(2, planar[:5]); err == nil {
		t.Error("expected error for short row")
	}
}

func TestSquaredDistance(t *testing.T) {
	a := Solid(1, 255, 0, 0)
	b := Solid(1, 0, 255, 0)
	if got := SquaredDistance(a, b); got != 2*255*255 {
		t.Errorf("SquaredDistance = %d", got)
	}
	if SquaredDistance(a, a) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestFromImage_DropsAlphaAndHonorsBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(10, 10, color.NRGBA{R: 9, G: 8, B: 7, A: 0})
	img.SetNRGBA(11, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	r := FromImage(img)
	if r.Width != 2 || r.Height != 1 {
		t.Fatalf("size = %dx%d", r.Width, r.Height)
	}
	want := []uint8{9, 8, 7, 1, 2, 3}
	if !bytes.Equal(r.Pix, want) {
		t.Errorf("Pix = %v, want %v", r.Pix, want)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	if got := FromImage(gray).Pix; !bytes.Equal(got, []uint8{77, 77, 77}) {
		t.Errorf("gray conversion = %v", got)
	}
}

func TestDecodeEncode_PNG(t *testing.T) {
	src := patternRaster(8, 4)
	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatPNG, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("PNG round trip should be lossless")
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("expected error for gif")
	}
	if FormatJPEG.ContentType() != "image/jpeg" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}
