// Package kmeans trains coarse quantizers with Lloyd's algorithm over flat float32 vectors.
package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ErrNotEnoughVectors is returned when there are fewer vectors than requested clusters.
var ErrNotEnoughVectors = errors.New("kmeans: fewer vectors than clusters")

// Options tunes training.
type Options struct {
	// MaxIterations bounds Lloyd iterations. Training stops early when no assignment changes.
	MaxIterations int
	// Seed drives centroid initialization and empty-cluster reseeding.
	Seed int64
	// Workers bounds assignment parallelism. Zero means GOMAXPROCS.
	Workers int
}

const (
	defaultMaxIterations = 25
	// Below this many vectors the assignment step runs on the calling goroutine.
	parallelThreshold = 2048
)

// Train returns k centroids (flattened, k*dim values) for the given vectors.
func Train(ctx context.Context, vectors []float32, dim, k int, opts Options) ([]float32, error) {
	if dim <= 0 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("kmeans: %d values do not form vectors of dim %d", len(vectors), dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	n := len(vectors) / dim
	if n < k {
		return nil, fmt.Errorf("%w: %d < %d", ErrNotEnoughVectors, n, k)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	centroids := make([]float32, k*dim)
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	next := make([]int, n)
	counts := make([]int, k)
	sums := make([]float64, k*dim)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := assignInto(ctx, next, vectors, centroids, dim, opts.Workers); err != nil {
			return nil, err
		}
		changed := false
		for i := range next {
			if next[i] != assignments[i] {
				changed = true
				assignments[i] = next[i]
			}
		}
		if !changed {
			break
		}

		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i, c := range assignments {
			vec := vectors[i*dim : (i+1)*dim]
			sum := sums[c*dim : (c+1)*dim]
			for d, v := range vec {
				sum[d] += float64(v)
			}
			counts[c]++
		}
		for j := 0; j < k; j++ {
			center := centroids[j*dim : (j+1)*dim]
			if counts[j] == 0 {
				idx := rng.Intn(n)
				copy(center, vectors[idx*dim:(idx+1)*dim])
				continue
			}
			scale := 1 / float64(counts[j])
			for d := range center {
				center[d] = float32(sums[j*dim+d] * scale)
			}
		}
	}
	return centroids, nil
}

// Assign returns the nearest centroid for every vector.
func Assign(ctx context.Context, vectors, centroids []float32, dim, workers int) ([]int, error) {
	out := make([]int, len(vectors)/dim)
	if err := assignInto(ctx, out, vectors, centroids, dim, workers); err != nil {
		return nil, err
	}
	return out, nil
}

func assignInto(ctx context.Context, out []int, vectors, centroids []float32, dim, workers int) error {
	n := len(out)
	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			out[i] = Nearest(vectors[i*dim:(i+1)*dim], centroids, dim)
		}
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = Nearest(vectors[i*dim:(i+1)*dim], centroids, dim)
			}
			return nil
		})
	}
	return g.Wait()
}

// Nearest returns the index of the centroid closest to vec. Ties go to the lower index.
func Nearest(vec, centroids []float32, dim int) int {
	best := -1
	bestDist := float32(math.MaxFloat32)
	for j := 0; j < len(centroids)/dim; j++ {
		if d := SquaredL2(vec, centroids[j*dim:(j+1)*dim]); d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}

// NearestN returns the indices of the n centroids closest to vec, closest first.
func NearestN(vec, centroids []float32, dim, n int) []int {
	k := len(centroids) / dim
	if n > k {
		n = k
	}
	type centroidDist struct {
		id   int
		dist float32
	}
	dists := make([]centroidDist, k)
	for j := 0; j < k; j++ {
		dists[j] = centroidDist{id: j, dist: SquaredL2(vec, centroids[j*dim:(j+1)*dim])}
	}
	sort.SliceStable(dists, func(a, b int) bool { return dists[a].dist < dists[b].dist })
	out := make([]int, n)
	for i := range out {
		out[i] = dists[i].id
	}
	return out
}

// SquaredL2 returns the squared Euclidean distance between two vectors of equal length.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
