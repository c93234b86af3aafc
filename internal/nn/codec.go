package nn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/tile"
)

// Artifact layout (little endian):
//
//	magic "TSNX" | version u16 | type u8 | compression u8 | body size u64 | stored size u64 | body
//
// The body holds the corpus (side u32, count u32, pixels) followed by the type-specific part:
// the merge pairs for a ward tree; k, probe, candidates, seed, centroids and one serialized
// roaring bitmap per partition for an IVF.
var artifactMagic = [4]byte{'T', 'S', 'N', 'X'}

const artifactVersion = 1

// maxArtifactSide bounds the tile side read from an artifact before any allocation.
const maxArtifactSide = 1 << 12

const (
	kindWardTree uint8 = 1
	kindIVF      uint8 = 2
)

type artifactHeader struct {
	Magic       [4]byte
	Version     uint16
	Kind        uint8
	Compression uint8
	BodySize    uint64
	StoredSize  uint64
}

// Marshal serializes an index built by this package.
func Marshal(idx Index, c Compression) ([]byte, error) {
	var body bytes.Buffer
	var kind uint8
	switch x := idx.(type) {
	case *WardTree:
		if x == nil || len(x.nodes) == 0 {
			return nil, ErrIndexNotBuilt
		}
		kind = kindWardTree
		if err := writeWardTree(&body, x); err != nil {
			return nil, err
		}
	case *IVF:
		if x == nil || len(x.lists) == 0 {
			return nil, ErrIndexNotBuilt
		}
		kind = kindIVF
		if err := writeIVF(&body, x); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot serialize index of type %T", idx)
	}

	stored, applied, err := compress(body.Bytes(), c)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	header := artifactHeader{
		Magic:       artifactMagic,
		Version:     artifactVersion,
		Kind:        kind,
		Compression: uint8(applied),
		BodySize:    uint64(body.Len()),
		StoredSize:  uint64(len(stored)),
	}
	if err := binary.Write(&out, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	out.Write(stored)
	return out.Bytes(), nil
}

// Unmarshal decodes an index produced by Marshal.
func Unmarshal(data []byte) (Index, error) {
	r := bytes.NewReader(data)
	var header artifactHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidArtifact, err)
	}
	if header.Magic != artifactMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidArtifact, header.Magic[:])
	}
	if header.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidArtifact, header.Version)
	}
	if uint64(r.Len()) != header.StoredSize {
		return nil, fmt.Errorf("%w: truncated body", ErrInvalidArtifact)
	}
	body, err := decompress(data[len(data)-r.Len():], Compression(header.Compression), header.BodySize)
	if err != nil {
		return nil, err
	}

	br := bytes.NewReader(body)
	c, err := readCorpus(br)
	if err != nil {
		return nil, err
	}
	switch header.Kind {
	case kindWardTree:
		return readWardTree(br, c)
	case kindIVF:
		return readIVF(br, c)
	default:
		return nil, fmt.Errorf("%w: unknown index kind %d", ErrInvalidArtifact, header.Kind)
	}
}

// Save writes the index to path. The file is written next to its destination and renamed
// into place, so watchers never observe a partial artifact.
func Save(path string, idx Index, c Compression) error {
	data, err := Marshal(idx, c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

// Load reads an index written by Save.
func Load(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	idx, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return idx, nil
}

func writeCorpus(w *bytes.Buffer, c *corpus.Corpus) error {
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(c.Side()), uint32(c.Len())}); err != nil {
		return err
	}
	for i := 0; i < c.Len(); i++ {
		w.Write(c.At(i))
	}
	return nil
}

func readCorpus(r *bytes.Reader) (*corpus.Corpus, error) {
	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("%w: read corpus header: %w", ErrInvalidArtifact, err)
	}
	if dims[0] == 0 || dims[0] > maxArtifactSide {
		return nil, fmt.Errorf("%w: tile side %d out of range", ErrInvalidArtifact, dims[0])
	}
	if uint64(tile.Len(int(dims[0])))*uint64(dims[1]) > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: corpus of %d tiles of side %d does not fit the body", ErrInvalidArtifact, dims[1], dims[0])
	}
	side, n := int(dims[0]), int(dims[1])
	tiles := make([]tile.Tile, n)
	for i := range tiles {
		tiles[i] = tile.New(side)
		if _, err := io.ReadFull(r, tiles[i]); err != nil {
			return nil, fmt.Errorf("%w: read tile %d: %w", ErrInvalidArtifact, i, err)
		}
	}
	return corpus.New(side, tiles)
}

func writeWardTree(w *bytes.Buffer, t *WardTree) error {
	if err := writeCorpus(w, t.corpus); err != nil {
		return err
	}
	pairs := make([]uint32, 0, 2*len(t.merges))
	for _, m := range t.merges {
		pairs = append(pairs, uint32(m[0]), uint32(m[1]))
	}
	return binary.Write(w, binary.LittleEndian, pairs)
}

func readWardTree(r *bytes.Reader, c *corpus.Corpus) (*WardTree, error) {
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: empty ward tree", ErrInvalidArtifact)
	}
	pairs := make([]uint32, 2*(c.Len()-1))
	if err := binary.Read(r, binary.LittleEndian, pairs); err != nil {
		return nil, fmt.Errorf("%w: read merges: %w", ErrInvalidArtifact, err)
	}
	merges := make([][2]int, c.Len()-1)
	for i := range merges {
		merges[i] = [2]int{int(pairs[2*i]), int(pairs[2*i+1])}
	}
	t, err := BuildWardTree(c, merges)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	return t, nil
}

type ivfParams struct {
	K          uint32
	Probe      uint32
	Candidates uint32
	Seed       int64
}

func writeIVF(w *bytes.Buffer, x *IVF) error {
	if err := writeCorpus(w, x.corpus); err != nil {
		return err
	}
	params := ivfParams{
		K:          uint32(len(x.lists)),
		Probe:      uint32(x.probe),
		Candidates: uint32(x.candidates),
		Seed:       x.seed,
	}
	if err := binary.Write(w, binary.LittleEndian, params); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, x.centroids); err != nil {
		return err
	}
	for p, l := range x.lists {
		raw, err := l.ToBytes()
		if err != nil {
			return fmt.Errorf("serialize partition %d: %w", p, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(raw))); err != nil {
			return err
		}
		w.Write(raw)
	}
	return nil
}

func readIVF(r *bytes.Reader, c *corpus.Corpus) (*IVF, error) {
	var params ivfParams
	if err := binary.Read(r, binary.LittleEndian, &params); err != nil {
		return nil, fmt.Errorf("%w: read ivf params: %w", ErrInvalidArtifact, err)
	}
	k, dim := int(params.K), tile.Len(c.Side())
	if k == 0 || uint64(k)*uint64(dim)*4 > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: %d centroids do not fit the body", ErrInvalidArtifact, k)
	}
	centroids := make([]float32, k*dim)
	if err := binary.Read(r, binary.LittleEndian, centroids); err != nil {
		return nil, fmt.Errorf("%w: read centroids: %w", ErrInvalidArtifact, err)
	}
	lists := make([]*roaring.Bitmap, k)
	var total uint64
	for p := range lists {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("%w: read partition %d: %w", ErrInvalidArtifact, p, err)
		}
		if int(size) > r.Len() {
			return nil, fmt.Errorf("%w: partition %d is truncated", ErrInvalidArtifact, p)
		}
		raw := make([]byte, size)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: read partition %d: %w", ErrInvalidArtifact, p, err)
		}
		lists[p] = roaring.New()
		if err := lists[p].UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("%w: decode partition %d: %w", ErrInvalidArtifact, p, err)
		}
		if n := lists[p].GetCardinality(); n > 0 && int(lists[p].Maximum()) >= c.Len() {
			return nil, fmt.Errorf("%w: partition %d references tile %d", ErrInvalidArtifact, p, lists[p].Maximum())
		}
		total += lists[p].GetCardinality()
	}
	if union := roaring.FastOr(lists...); total != uint64(c.Len()) || union.GetCardinality() != total {
		return nil, fmt.Errorf("%w: partitions do not cover the corpus exactly once", ErrInvalidArtifact)
	}
	return newIVF(c, centroids, lists, int(params.Probe), int(params.Candidates), params.Seed), nil
}
