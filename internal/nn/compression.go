package nn

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how an index artifact body is stored on disk.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is fast to decode; good for artifacts reloaded often.
	CompressionLZ4 Compression = 1
	// CompressionZstd gives the smallest artifacts.
	CompressionZstd Compression = 2
)

// ParseCompression maps a config value ("zstd", "lz4", "none") to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "zstd", "":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown compression: %s (supported: zstd, lz4, none)", s)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the encoded body and the compression actually applied. Bodies that do
// not shrink are stored as-is.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var out []byte
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("unknown compression: %d", c)
	}
	if len(out) == 0 || len(out) >= len(data) {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

func decompress(data []byte, c Compression, size uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		if uint64(len(data)) != size {
			return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrInvalidArtifact, len(data), size)
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrInvalidArtifact, err)
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidArtifact)
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrInvalidArtifact, err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidArtifact)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidArtifact, c)
	}
}
