package tile

import (
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output encoding for rendered images.
type Format string

const (
	// FormatPNG encodes lossless PNG (default).
	FormatPNG Format = "png"
	// FormatJPEG encodes JPEG with a configurable quality.
	FormatJPEG Format = "jpeg"
)

// ParseFormat maps a config or flag value to a Format. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unknown image format: %s (supported: png, jpeg)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Decode reads a PNG, JPEG, GIF, BMP or TIFF image, applies its EXIF orientation and
// converts it to an RGB raster.
func Decode(r io.Reader) (*Raster, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return FromImage(img), nil
}

// Encode writes the raster to w. quality applies to JPEG only.
func Encode(w io.Writer, r *Raster, format Format, quality int) error {
	switch format {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return imaging.Encode(w, r.Image(), imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return imaging.Encode(w, r.Image(), imaging.PNG)
	}
}
