package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/tessera/internal/tile"
)

const (
	// CIFARSide is the side length of CIFAR-10 images.
	CIFARSide       = 32
	cifarRecordSize = 1 + CIFARSide*CIFARSide*tile.Channels
)

// Entry is a tile read by a loader, before it is assigned a corpus position.
type Entry struct {
	Label int
	Tile  tile.Tile
}

// ReadCIFAR reads a CIFAR-10 binary batch: fixed 3073-byte records of one label byte followed by
// 1024 red, 1024 green and 1024 blue bytes. Rows are converted to interleaved tiles.
// limit <= 0 reads the whole batch.
func ReadCIFAR(r io.Reader, limit int) ([]Entry, error) {
	br := bufio.NewReaderSize(r, cifarRecordSize*64)
	record := make([]byte, cifarRecordSize)
	var entries []Entry
	for limit <= 0 || len(entries) < limit {
		_, err := io.ReadFull(br, record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(entries), err)
		}
		t, err := tile.FromPlanar(CIFARSide, record[1:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Label: int(record[0]), Tile: t})
	}
	return entries, nil
}
