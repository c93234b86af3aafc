// Package fileid provides deterministic corpus source IDs from file paths so re-imports can be skipped.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	imagePrefix = "file:"
	batchPrefix = "cifar:"
)

// FileSourceID returns a stable source ID for an image file imported as a single tile.
// Same path always yields the same ID.
func FileSourceID(absolutePath string) string {
	return imagePrefix + digest(absolutePath)
}

// BatchSourceID returns a stable source ID shared by every tile of a CIFAR batch file.
func BatchSourceID(absolutePath string) string {
	return batchPrefix + digest(absolutePath)
}

func digest(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:])
}
