// Package tile provides the fixed-size RGB tile type and the codec between images and tile grids.
package tile

import (
	"errors"
	"fmt"
)

// Channels is the number of color channels per pixel (RGB).
const Channels = 3

// ErrInvalidImage is returned when an image has no full tile after cropping or cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// Tile is a side x side x 3 block of pixels stored flat in row-major, channel-interleaved order.
type Tile []uint8

// Len returns the number of bytes in a tile with the given side length.
func Len(side int) int {
	return side * side * Channels
}

// New returns a zeroed tile with the given side length.
func New(side int) Tile {
	return make(Tile, Len(side))
}

// Solid returns a tile filled with a single color.
func Solid(side int, r, g, b uint8) Tile {
	t := New(side)
	for i := 0; i < len(t); i += Channels {
		t[i], t[i+1], t[i+2] = r, g, b
	}
	return t
}

// Clone returns a copy of t.
func (t Tile) Clone() Tile {
	out := make(Tile, len(t))
	copy(out, t)
	return out
}

// Equal reports whether t and o hold identical pixels.
func (t Tile) Equal(o Tile) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// Floats returns the tile as a float32 vector, the representation used for clustering.
func (t Tile) Floats() []float32 {
	out := make([]float32, len(t))
	for i, v := range t {
		out[i] = float32(v)
	}
	return out
}

// SquaredDistance returns the squared Euclidean distance between two equally sized tiles.
// Ordering by squared distance is the same as ordering by the Euclidean norm.
func SquaredDistance(a, b Tile) int64 {
	var sum int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		sum += d * d
	}
	return sum
}

// FromPlanar converts a channel-planar (CHW) row, as stored in CIFAR batches, to an interleaved tile.
func FromPlanar(side int, planar []uint8) (Tile, error) {
	plane := side * side
	if len(planar) != plane*Channels {
		return nil, fmt.Errorf("planar row has %d bytes, want %d", len(planar), plane*Channels)
	}
	t := New(side)
	for p := 0; p < plane; p++ {
		for c := 0; c < Channels; c++ {
			t[p*Channels+c] = planar[c*plane+p]
		}
	}
	return t, nil
}

// Planar converts an interleaved tile back to channel-planar order.
func (t Tile) Planar() []uint8 {
	plane := len(t) / Channels
	out := make([]uint8, len(t))
	for p := 0; p < plane; p++ {
		for c := 0; c < Channels; c++ {
			out[c*plane+p] = t[p*Channels+c]
		}
	}
	return out
}
