package tile

import (
	"fmt"
	"image"
	"image/color"
)

// Raster is an RGB pixel buffer in row-major order with a stride of Width*3.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height*Channels)}
}

// FromImage copies img into an RGB raster. Alpha is dropped without compositing.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < r.Height; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			dst := r.Pix[y*r.Width*Channels:]
			for x := 0; x < r.Width; x++ {
				dst[x*Channels] = row[x*4]
				dst[x*Channels+1] = row[x*4+1]
				dst[x*Channels+2] = row[x*4+2]
			}
		}
	default:
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := (y*r.Width + x) * Channels
				r.Pix[i], r.Pix[i+1], r.Pix[i+2] = c.R, c.G, c.B
			}
		}
	}
	return r
}

// Image returns the raster as an opaque *image.NRGBA.
func (r *Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for p := 0; p < r.Width*r.Height; p++ {
		img.Pix[p*4] = r.Pix[p*Channels]
		img.Pix[p*4+1] = r.Pix[p*Channels+1]
		img.Pix[p*4+2] = r.Pix[p*Channels+2]
		img.Pix[p*4+3] = 0xff
	}
	return img
}

// Grid is a row-major grid of equally sized tiles cut from a raster.
type Grid struct {
	Rows  int
	Cols  int
	Side  int
	Tiles []Tile
}

// At returns the tile at (row, col).
func (g *Grid) At(row, col int) Tile {
	return g.Tiles[row*g.Cols+col]
}

// Decompose crops r to the largest multiple of side in each dimension, dropping the trailing
// rows and columns, and slices it into non-overlapping tiles in row-major order.
func Decompose(r *Raster, side int) (*Grid, error) {
	if side <= 0 {
		return nil, fmt.Errorf("%w: tile side %d", ErrInvalidImage, side)
	}
	rows, cols := r.Height/side, r.Width/side
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %dx%d has no full %dpx tile", ErrInvalidImage, r.Width, r.Height, side)
	}
	g := &Grid{Rows: rows, Cols: cols, Side: side, Tiles: make([]Tile, rows*cols)}
	rowBytes := side * Channels
	stride := r.Width * Channels
	for gr := 0; gr < rows; gr++ {
		for gc := 0; gc < cols; gc++ {
			t := New(side)
			for y := 0; y < side; y++ {
				src := (gr*side+y)*stride + gc*rowBytes
				copy(t[y*rowBytes:(y+1)*rowBytes], r.Pix[src:src+rowBytes])
			}
			g.Tiles[gr*cols+gc] = t
		}
	}
	return g, nil
}

// Recompose stitches a grid back into a raster of exactly Cols*Side x Rows*Side pixels.
func Recompose(g *Grid) (*Raster, error) {
	if g.Rows <= 0 || g.Cols <= 0 || g.Side <= 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidImage)
	}
	if len(g.Tiles) != g.Rows*g.Cols {
		return nil, fmt.Errorf("grid has %d tiles, want %d", len(g.Tiles), g.Rows*g.Cols)
	}
	side := g.Side
	r := NewRaster(g.Cols*side, g.Rows*side)
	rowBytes := side * Channels
	stride := r.Width * Channels
	for i, t := range g.Tiles {
		if len(t) != Len(side) {
			return nil, fmt.Errorf("tile %d has %d bytes, want %d", i, len(t), Len(side))
		}
		gr, gc := i/g.Cols, i%g.Cols
		for y := 0; y < side; y++ {
			dst := (gr*side+y)*stride + gc*rowBytes
			copy(r.Pix[dst:dst+rowBytes], t[y*rowBytes:(y+1)*rowBytes])
		}
	}
	return r, nil
}
