// Package corpus provides the immutable reference corpus of tiles and the loaders that fill it.
package corpus

import (
	"fmt"

	"github.com/hyperjump/tessera/internal/tile"
)

// Corpus is an ordered, immutable sequence of equally sized tiles.
// Entries are addressed by their position 0..Len()-1.
type Corpus struct {
	side  int
	tiles []tile.Tile
}

// New copies tiles into a corpus. Every tile must be side x side x 3.
func New(side int, tiles []tile.Tile) (*Corpus, error) {
	if side <= 0 {
		return nil, fmt.Errorf("tile side must be positive")
	}
	want := tile.Len(side)
	c := &Corpus{side: side, tiles: make([]tile.Tile, len(tiles))}
	for i, t := range tiles {
		if len(t) != want {
			return nil, fmt.Errorf("corpus tile %d has %d bytes, want %d", i, len(t), want)
		}
		c.tiles[i] = t.Clone()
	}
	return c, nil
}

// Side returns the tile side length.
func (c *Corpus) Side() int { return c.side }

// Len returns the number of tiles.
func (c *Corpus) Len() int { return len(c.tiles) }

// At returns tile i. Callers must not modify it.
func (c *Corpus) At(i int) tile.Tile { return c.tiles[i] }

// Vectors flattens the corpus into one float32 slice of Len()*dim values, dim = side*side*3.
func (c *Corpus) Vectors() (vectors []float32, dim int) {
	dim = tile.Len(c.side)
	vectors = make([]float32, len(c.tiles)*dim)
	for i, t := range c.tiles {
		row := vectors[i*dim : (i+1)*dim]
		for j, v := range t {
			row[j] = float32(v)
		}
	}
	return vectors, dim
}
