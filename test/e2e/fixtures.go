package e2e

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/hyperjump/tessera/internal/tile"
)

// WritePaletteImages writes one image per palette swatch into dir. Images are larger than a
// tile and not square, so importing exercises the crop and resample path.
func WritePaletteImages(dir string, width, height int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, s := range Palette {
		r := tile.NewRaster(width, height)
		for i := 0; i < len(r.Pix); i += tile.Channels {
			r.Pix[i], r.Pix[i+1], r.Pix[i+2] = s.R, s.G, s.B
		}
		if err := imaging.Save(r.Image(), filepath.Join(dir, s.FileName())); err != nil {
			return err
		}
	}
	return nil
}

// EncodePNG encodes r as PNG.
func EncodePNG(r *tile.Raster) ([]byte, error) {
	var buf bytes.Buffer
	if err := tile.Encode(&buf, r, tile.FormatPNG, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
