// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tessera/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		label INTEGER NOT NULL DEFAULT -1,
		side INTEGER NOT NULL,
		pixels BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tiles_source ON tiles(source);
	CREATE INDEX IF NOT EXISTS idx_tiles_side ON tiles(side, id);

	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		index_type TEXT NOT NULL,
		path TEXT NOT NULL,
		corpus_size INTEGER NOT NULL,
		tile_side INTEGER NOT NULL,
		params TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// BatchCreateTiles inserts tiles in a transaction and fills in their IDs.
// Insertion order is corpus order.
func (s *SQLiteStorage) BatchCreateTiles(ctx context.Context, tiles []*models.TileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tiles (source, label, side, pixels, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, t := range tiles {
		if len(t.Pixels) != t.Side*t.Side*3 {
			return fmt.Errorf("tile from %s has %d bytes, want %d", t.Source, len(t.Pixels), t.Side*t.Side*3)
		}
		t.CreatedAt = now
		res, err := stmt.ExecContext(ctx, t.Source, t.Label, t.Side, t.Pixels, t.CreatedAt)
		if err != nil {
			return err
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListTiles returns tiles of the given side ordered by id. limit <= 0 means no limit.
func (s *SQLiteStorage) ListTiles(ctx context.Context, side, offset, limit int) ([]*models.TileRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, label, side, pixels, created_at
		 FROM tiles WHERE side = ? ORDER BY id LIMIT ? OFFSET ?`,
		side, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiles []*models.TileRecord
	for rows.Next() {
		var t models.TileRecord
		if err := rows.Scan(&t.ID, &t.Source, &t.Label, &t.Side, &t.Pixels, &t.CreatedAt); err != nil {
			return nil, err
		}
		tiles = append(tiles, &t)
	}
	return tiles, rows.Err()
}

// CountTiles returns the total number of corpus tiles.
func (s *SQLiteStorage) CountTiles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles`).Scan(&count)
	return count, err
}

// HasSource reports whether any tile was imported from source.
func (s *SQLiteStorage) HasSource(ctx context.Context, source string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tiles WHERE source = ? LIMIT 1`, source).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateBuild records an index build.
func (s *SQLiteStorage) CreateBuild(ctx context.Context, build *models.BuildRecord) error {
	paramsJSON, err := json.Marshal(build.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	build.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (id, index_type, path, corpus_size, tile_side, params, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		build.ID, build.IndexType, build.Path, build.CorpusSize, build.TileSide, string(paramsJSON), build.CreatedAt,
	)
	return err
}

// ListBuilds returns the most recent builds first.
func (s *SQLiteStorage) ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, index_type, path, corpus_size, tile_side, params, created_at
		 FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []*models.BuildRecord
	for rows.Next() {
		var b models.BuildRecord
		var paramsJSON sql.NullString
		if err := rows.Scan(&b.ID, &b.IndexType, &b.Path, &b.CorpusSize, &b.TileSide, &paramsJSON, &b.CreatedAt); err != nil {
			return nil, err
		}
		if paramsJSON.Valid && paramsJSON.String != "" {
			_ = json.Unmarshal([]byte(paramsJSON.String), &b.Params)
		}
		builds = append(builds, &b)
	}
	return builds, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
