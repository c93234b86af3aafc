package models

import "fmt"

// MosaicRequest is the JSON body of POST /api/create-mosaic.
// Image is base64 data, optionally prefixed by a data URL header ("data:image/png;base64,").
type MosaicRequest struct {
	Image string `json:"image"`
}

// Validate ensures the request carries image data.
func (r *MosaicRequest) Validate() error {
	if r.Image == "" {
		return fmt.Errorf("image cannot be empty")
	}
	return nil
}

// IndexStatus describes the index currently served.
type IndexStatus struct {
	Type     string `json:"type"`
	Size     int    `json:"size"`
	TileSide int    `json:"tile_side"`
	Path     string `json:"path,omitempty"`
	LoadedAt string `json:"loaded_at,omitempty"`
}

// StatusResponse is the shape of GET /api/v1/status and of `tessera status`.
type StatusResponse struct {
	Index          *IndexStatus   `json:"index,omitempty"`
	CorpusTiles    int64          `json:"corpus_tiles"`
	DiskUsageBytes *int64         `json:"disk_usage_bytes,omitempty"`
	RecentBuilds   []*BuildRecord `json:"recent_builds,omitempty"`
}
