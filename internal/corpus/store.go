package corpus

import (
	"context"
	"fmt"

	"github.com/hyperjump/tessera/internal/models"
	"github.com/hyperjump/tessera/internal/tile"
)

// TileLister is the subset of storage.Storage needed to load a corpus.
type TileLister interface {
	ListTiles(ctx context.Context, side, offset, limit int) ([]*models.TileRecord, error)
}

const loadPageSize = 4096

// Load reads up to limit tiles of the given side from the store in id order and builds the
// corpus from them. limit <= 0 loads everything.
func Load(ctx context.Context, store TileLister, side, limit int) (*Corpus, error) {
	var tiles []tile.Tile
	for offset := 0; limit <= 0 || len(tiles) < limit; {
		page := loadPageSize
		if limit > 0 && limit-len(tiles) < page {
			page = limit - len(tiles)
		}
		records, err := store.ListTiles(ctx, side, offset, page)
		if err != nil {
			return nil, fmt.Errorf("list tiles: %w", err)
		}
		for _, r := range records {
			tiles = append(tiles, tile.Tile(r.Pixels))
		}
		if len(records) < page {
			break
		}
		offset += len(records)
	}
	return New(side, tiles)
}
