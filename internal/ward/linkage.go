// Package ward computes Ward-linkage agglomerative clusterings and emits them as merge sequences.
//
// Linkage uses the nearest-neighbor chain algorithm over cluster centroids, so memory stays
// O(N*dim) instead of the O(N^2) distance matrix. The output follows the usual convention:
// leaves are 0..N-1 and merge i creates node N+i.
package ward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ErrTooFewPoints is returned when there is nothing to cluster.
var ErrTooFewPoints = errors.New("ward: at least one point is required")

// Merge joins two existing nodes into a new one.
type Merge struct {
	Left, Right int
	// Distance is the Ward distance between the two merged clusters.
	Distance float64
	// Size is the number of leaves under the new node.
	Size int
}

// Options tunes Linkage.
type Options struct {
	// Workers bounds the parallel nearest-neighbor scan. Zero means GOMAXPROCS.
	Workers int
}

// Active sets smaller than this are scanned on the calling goroutine.
const parallelScanThreshold = 512

type cluster struct {
	centroid []float64
	size     int
}

type state struct {
	dim      int
	clusters []cluster
	active   []int
	pos      []int
	workers  int
}

// Linkage clusters n = len(vectors)/dim points and returns the n-1 merges ordered by
// increasing distance.
func Linkage(ctx context.Context, vectors []float32, dim int, opts Options) ([]Merge, error) {
	if dim <= 0 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("ward: %d values do not form vectors of dim %d", len(vectors), dim)
	}
	n := len(vectors) / dim
	if n == 0 {
		return nil, ErrTooFewPoints
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	s := &state{
		dim:      dim,
		clusters: make([]cluster, n),
		active:   make([]int, n),
		pos:      make([]int, n),
		workers:  opts.Workers,
	}
	for i := 0; i < n; i++ {
		c := make([]float64, dim)
		for d, v := range vectors[i*dim : (i+1)*dim] {
			c[d] = float64(v)
		}
		s.clusters[i] = cluster{centroid: c, size: 1}
		s.active[i] = i
		s.pos[i] = i
	}

	raw := make([]Merge, 0, n-1)
	chain := make([]int, 0, 16)
	for len(raw) < n-1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chain) == 0 {
			chain = append(chain, s.active[0])
		}
		a := chain[len(chain)-1]
		prev := -1
		if len(chain) >= 2 {
			prev = chain[len(chain)-2]
		}
		b, dist, err := s.nearest(ctx, a, prev)
		if err != nil {
			return nil, err
		}
		if b != prev {
			chain = append(chain, b)
			continue
		}
		chain = chain[:len(chain)-2]
		size := s.merge(a, b)
		raw = append(raw, Merge{Left: a, Right: b, Distance: math.Sqrt(dist), Size: size})
	}
	return label(raw, n), nil
}

// wardCost is the squared Ward distance: 2*na*nb/(na+nb) * ||ca-cb||^2.
func (s *state) wardCost(a, b int) float64 {
	ca, cb := s.clusters[a], s.clusters[b]
	var sq float64
	for d := range ca.centroid {
		diff := ca.centroid[d] - cb.centroid[d]
		sq += diff * diff
	}
	na, nb := float64(ca.size), float64(cb.size)
	return 2 * na * nb / (na + nb) * sq
}

// nearest finds the active cluster closest to a. On ties prev wins, then the lower slot.
func (s *state) nearest(ctx context.Context, a, prev int) (int, float64, error) {
	type candidate struct {
		id   int
		cost float64
	}
	better := func(x, y candidate) bool {
		if y.id < 0 {
			return x.id >= 0
		}
		if x.cost != y.cost {
			return x.cost < y.cost
		}
		return x.id < y.id
	}
	scan := func(lo, hi int) candidate {
		best := candidate{id: -1}
		for _, id := range s.active[lo:hi] {
			if id == a {
				continue
			}
			if c := (candidate{id: id, cost: s.wardCost(a, id)}); better(c, best) {
				best = c
			}
		}
		return best
	}

	var best candidate
	if len(s.active) < parallelScanThreshold || s.workers == 1 {
		best = scan(0, len(s.active))
	} else {
		chunk := (len(s.active) + s.workers - 1) / s.workers
		results := make([]candidate, 0, s.workers)
		for lo := 0; lo < len(s.active); lo += chunk {
			results = append(results, candidate{id: -1})
		}
		g, gctx := errgroup.WithContext(ctx)
		for i, lo := 0, 0; lo < len(s.active); i, lo = i+1, lo+chunk {
			i, lo, hi := i, lo, min(lo+chunk, len(s.active))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = scan(lo, hi)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return -1, 0, err
		}
		best = candidate{id: -1}
		for _, r := range results {
			if better(r, best) {
				best = r
			}
		}
	}
	if prev >= 0 && best.id != prev && s.wardCost(a, prev) == best.cost {
		best = candidate{id: prev, cost: best.cost}
	}
	return best.id, best.cost, nil
}

// merge folds b into a's slot and deactivates b.
func (s *state) merge(a, b int) int {
	ca, cb := &s.clusters[a], &s.clusters[b]
	na, nb := float64(ca.size), float64(cb.size)
	for d := range ca.centroid {
		ca.centroid[d] = (na*ca.centroid[d] + nb*cb.centroid[d]) / (na + nb)
	}
	ca.size += cb.size
	cb.centroid = nil

	i := s.pos[b]
	last := s.active[len(s.active)-1]
	s.active[i] = last
	s.pos[last] = i
	s.active = s.active[:len(s.active)-1]
	return ca.size
}

// label sorts merges by distance and rewrites slot ids into node ids, so merge i creates
// node n+i and both children of every merge are smaller ids.
func label(raw []Merge, n int) []Merge {
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Distance < raw[j].Distance })

	uf := newUnionFind(n)
	out := make([]Merge, len(raw))
	for i, m := range raw {
		x, y := uf.find(m.Left), uf.find(m.Right)
		if x > y {
			x, y = y, x
		}
		uf.union(x, y)
		out[i] = Merge{Left: x, Right: y, Distance: m.Distance, Size: uf.size[n+i]}
	}
	return out
}

type unionFind struct {
	parent []int
	size   []int
	next   int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, 2*n-1), size: make([]int, 2*n-1), next: n}
	for i := range uf.parent {
		uf.parent[i] = -1
	}
	for i := 0; i < n; i++ {
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] >= 0 {
		root = uf.parent[root]
	}
	for uf.parent[x] >= 0 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

func (uf *unionFind) union(x, y int) {
	uf.parent[x] = uf.next
	uf.parent[y] = uf.next
	uf.size[uf.next] = uf.size[x] + uf.size[y]
	uf.next++
}
