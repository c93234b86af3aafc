// Package models defines the records exchanged between storage, the CLI and the HTTP API.
package models

import "time"

// TileRecord is a corpus tile as persisted in the corpus store.
type TileRecord struct {
	ID        int64     `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Label     int       `json:"label" db:"label"`
	Side      int       `json:"side" db:"side"`
	Pixels    []byte    `json:"-" db:"pixels"` // interleaved RGB, side*side*3 bytes
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BuildRecord describes an index artifact produced by the build command.
type BuildRecord struct {
	ID         string                 `json:"id" db:"id"`
	IndexType  string                 `json:"index_type" db:"index_type"`
	Path       string                 `json:"path" db:"path"`
	CorpusSize int                    `json:"corpus_size" db:"corpus_size"`
	TileSide   int                    `json:"tile_side" db:"tile_side"`
	Params     map[string]interface{} `json:"params,omitempty" db:"params"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}
