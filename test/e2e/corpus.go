// Package e2e provides end-to-end tests that drive the HTTP API against a real corpus store
// and index artifacts.
package e2e

import (
	"fmt"

	"github.com/hyperjump/tessera/internal/tile"
)

// Swatch is a named solid colour in the E2E palette.
type Swatch struct {
	Name    string
	R, G, B uint8
}

// Palette is the E2E corpus: well separated solid colours, so an exact member query has a
// unique nearest neighbour.
var Palette = []Swatch{
	{"black", 0, 0, 0},
	{"white", 255, 255, 255},
	{"red", 255, 0, 0},
	{"green", 0, 255, 0},
	{"blue", 0, 0, 255},
	{"yellow", 255, 255, 0},
	{"cyan", 0, 255, 255},
	{"magenta", 255, 0, 255},
	{"orange", 255, 128, 0},
	{"purple", 128, 0, 255},
	{"teal", 0, 128, 128},
	{"olive", 128, 128, 0},
	{"navy", 0, 0, 128},
	{"maroon", 128, 0, 0},
	{"grey", 128, 128, 128},
	{"pink", 255, 160, 200},
}

// Tile returns the swatch as a solid tile.
func (s Swatch) Tile(side int) tile.Tile {
	return tile.Solid(side, s.R, s.G, s.B)
}

// FileName is the fixture file name for the swatch.
func (s Swatch) FileName() string {
	return fmt.Sprintf("%02d_%s.png", s.index(), s.Name)
}

func (s Swatch) index() int {
	for i, p := range Palette {
		if p.Name == s.Name {
			return i
		}
	}
	return -1
}

// Checkerboard builds a rows x cols raster of side x side blocks, cycling through the palette
// with the given stride so neighbouring blocks differ.
func Checkerboard(rows, cols, side, stride int) (*tile.Raster, []Swatch) {
	r := tile.NewRaster(cols*side, rows*side)
	used := make([]Swatch, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			s := Palette[((row*cols+col)*stride)%len(Palette)]
			used = append(used, s)
			for y := row * side; y < (row+1)*side; y++ {
				for x := col * side; x < (col+1)*side; x++ {
					i := (y*r.Width + x) * tile.Channels
					r.Pix[i], r.Pix[i+1], r.Pix[i+2] = s.R, s.G, s.B
				}
			}
		}
	}
	return r, used
}

// BlockAt extracts the block at (row, col) of a raster cut into side x side tiles.
func BlockAt(r *tile.Raster, row, col, side int) tile.Tile {
	t := tile.New(side)
	for y := 0; y < side; y++ {
		src := ((row*side+y)*r.Width + col*side) * tile.Channels
		copy(t[y*side*tile.Channels:(y+1)*side*tile.Channels], r.Pix[src:src+side*tile.Channels])
	}
	return t
}
