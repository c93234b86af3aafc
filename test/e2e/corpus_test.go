package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/tessera/internal/tile"
)

func TestPalette_distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i, s := range Palette {
		assert.False(t, seen[s.Name], "duplicate swatch %s", s.Name)
		seen[s.Name] = true
		for _, o := range Palette[i+1:] {
			assert.NotZero(t, tile.SquaredDistance(s.Tile(1), o.Tile(1)), "%s and %s are identical", s.Name, o.Name)
		}
	}
}

func TestSwatch_FileNameSortsInPaletteOrder(t *testing.T) {
	assert.Equal(t, "00_black.png", Palette[0].FileName())
	assert.Equal(t, "15_pink.png", Palette[15].FileName())
}
