// Package nn provides the nearest-neighbor tile indexes used to render mosaics.
package nn

import (
	"context"
	"fmt"

	"github.com/hyperjump/tessera/internal/tile"
)

// Index returns a corpus tile close to a query tile. Implementations are immutable after
// construction and safe for concurrent queries.
type Index interface {
	// Query returns a tile from the corpus the index was built on. The query must have
	// TileSide() x TileSide() x 3 elements.
	Query(ctx context.Context, q tile.Tile) (tile.Tile, error)
	Type() string
	// Size returns the number of corpus tiles.
	Size() int
	TileSide() int
}

func checkShape(side int, q tile.Tile) error {
	if len(q) != tile.Len(side) {
		return fmt.Errorf("%w: got %d elements, want %d", ErrShapeMismatch, len(q), tile.Len(side))
	}
	return nil
}
