// Package storage defines the persistence interface for corpus tiles and index builds.
package storage

import (
	"context"

	"github.com/hyperjump/tessera/internal/models"
)

// Storage defines corpus and build catalog persistence operations.
type Storage interface {
	// Corpus operations
	BatchCreateTiles(ctx context.Context, tiles []*models.TileRecord) error
	ListTiles(ctx context.Context, side, offset, limit int) ([]*models.TileRecord, error)
	CountTiles(ctx context.Context) (int64, error)
	HasSource(ctx context.Context, source string) (bool, error)

	// Build catalog
	CreateBuild(ctx context.Context, build *models.BuildRecord) error
	ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error)

	Close() error
}
