package nn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/kmeans"
	"github.com/hyperjump/tessera/internal/tile"
)

// Defaults for IVFOptions.
const (
	DefaultPartitionSize    = 40
	DefaultKMeansIterations = 25
)

// IVFOptions configures BuildIVF.
type IVFOptions struct {
	PartitionSize int
	Iterations    int
	Probe         int
	Candidates    int
	Seed          int64
	Workers       int
}

func (o *IVFOptions) applyDefaults() {
	if o.PartitionSize <= 0 {
		o.PartitionSize = DefaultPartitionSize
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultKMeansIterations
	}
	if o.Probe <= 0 {
		o.Probe = 1
	}
	if o.Candidates <= 0 {
		o.Candidates = 1
	}
}

// IVF is an inverted-file index: corpus tiles are partitioned around k-means centroids and a
// query scans only the partitions whose centroids are nearest to it.
type IVF struct {
	corpus     *corpus.Corpus
	dim        int
	centroids  []float32
	lists      []*roaring.Bitmap
	probe      int
	candidates int
	seed       int64

	mu  sync.Mutex
	rng *rand.Rand
}

// BuildIVF trains max(1, N/PartitionSize) partitions over c and assigns every tile to its
// nearest one.
func BuildIVF(ctx context.Context, c *corpus.Corpus, opts IVFOptions) (*IVF, error) {
	opts.applyDefaults()
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrConstructionFailure)
	}
	k := max(1, c.Len()/opts.PartitionSize)
	vectors, dim := c.Vectors()
	centroids, err := kmeans.Train(ctx, vectors, dim, k, kmeans.Options{
		MaxIterations: opts.Iterations,
		Seed:          opts.Seed,
		Workers:       opts.Workers,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrConstructionFailure, err)
	}
	assignments, err := kmeans.Assign(ctx, vectors, centroids, dim, opts.Workers)
	if err != nil {
		return nil, err
	}
	lists := make([]*roaring.Bitmap, k)
	for i := range lists {
		lists[i] = roaring.New()
	}
	for i, p := range assignments {
		lists[p].Add(uint32(i))
	}
	return newIVF(c, centroids, lists, opts.Probe, opts.Candidates, opts.Seed), nil
}

func newIVF(c *corpus.Corpus, centroids []float32, lists []*roaring.Bitmap, probe, candidates int, seed int64) *IVF {
	for _, l := range lists {
		l.RunOptimize()
	}
	return &IVF{
		corpus:     c,
		dim:        tile.Len(c.Side()),
		centroids:  centroids,
		lists:      lists,
		probe:      probe,
		candidates: candidates,
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Query scans the configured number of partitions and returns a copy of one of the
// configured number of nearest members, chosen uniformly at random.
func (x *IVF) Query(ctx context.Context, q tile.Tile) (tile.Tile, error) {
	if x == nil || len(x.lists) == 0 {
		return nil, ErrIndexNotBuilt
	}
	ids, err := x.Search(ctx, q, x.probe, x.candidates)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: probed partitions are empty", ErrIndexNotBuilt)
	}
	pick := 0
	if len(ids) > 1 {
		x.mu.Lock()
		pick = x.rng.Intn(len(ids))
		x.mu.Unlock()
	}
	return x.corpus.At(ids[pick]).Clone(), nil
}

// Search returns the corpus positions of the n members nearest to q within the probe
// non-empty partitions whose centroids are nearest to q, closest first. Ties go to the lower
// position.
func (x *IVF) Search(ctx context.Context, q tile.Tile, probe, n int) ([]int, error) {
	if x == nil || len(x.lists) == 0 {
		return nil, ErrIndexNotBuilt
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkShape(x.corpus.Side(), q); err != nil {
		return nil, err
	}
	type hit struct {
		id   int
		dist int64
	}
	var hits []hit
	scanned := 0
	for _, p := range kmeans.NearestN(q.Floats(), x.centroids, x.dim, len(x.lists)) {
		if scanned == probe {
			break
		}
		if x.lists[p].IsEmpty() {
			continue
		}
		scanned++
		it := x.lists[p].Iterator()
		for it.HasNext() {
			id := int(it.Next())
			hits = append(hits, hit{id: id, dist: tile.SquaredDistance(q, x.corpus.At(id))})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})
	if n > len(hits) {
		n = len(hits)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = hits[i].id
	}
	return out, nil
}

// Partitions returns the number of partitions.
func (x *IVF) Partitions() int { return len(x.lists) }

// Partition returns the corpus positions assigned to partition p in ascending order.
func (x *IVF) Partition(p int) []int {
	members := x.lists[p].ToArray()
	out := make([]int, len(members))
	for i, m := range members {
		out[i] = int(m)
	}
	return out
}

func (x *IVF) Type() string { return string(IndexTypeIVF) }

func (x *IVF) Size() int {
	if x == nil || x.corpus == nil {
		return 0
	}
	return x.corpus.Len()
}

func (x *IVF) TileSide() int {
	if x == nil || x.corpus == nil {
		return 0
	}
	return x.corpus.Side()
}
