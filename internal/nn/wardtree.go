package nn

import (
	"context"
	"fmt"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/tile"
)

const noChild = -1

type treeNode struct {
	left, right int
	centroid    tile.Tile
	computed    bool
}

func (n *treeNode) isLeaf() bool { return n.left == noChild && n.right == noChild }

// WardTree is a binary cluster tree over a corpus. Nodes live in a flat arena: leaves are
// 0..N-1 in corpus order and merge i is node N+i. The root is the last node.
type WardTree struct {
	corpus *corpus.Corpus
	nodes  []treeNode
	merges [][2]int
}

// BuildWardTree builds the tree for c from a merge sequence of N-1 pairs, where pair i joins
// two existing nodes into node N+i. All centroids are computed before it returns.
func BuildWardTree(c *corpus.Corpus, merges [][2]int) (*WardTree, error) {
	n := c.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrConstructionFailure)
	}
	if len(merges) != n-1 {
		return nil, fmt.Errorf("%w: %d merges for %d tiles, want %d", ErrConstructionFailure, len(merges), n, n-1)
	}

	t := &WardTree{corpus: c, nodes: make([]treeNode, 2*n-1), merges: merges}
	for i := 0; i < n; i++ {
		t.nodes[i] = treeNode{left: noChild, right: noChild, centroid: c.At(i), computed: true}
	}
	used := make([]bool, 2*n-1)
	for i, m := range merges {
		id := n + i
		for _, child := range m {
			if child < 0 || child >= id {
				return nil, fmt.Errorf("%w: merge %d references node %d before it exists", ErrConstructionFailure, i, child)
			}
			if used[child] {
				return nil, fmt.Errorf("%w: merge %d reuses node %d", ErrConstructionFailure, i, child)
			}
			used[child] = true
		}
		if m[0] == m[1] {
			return nil, fmt.Errorf("%w: merge %d joins node %d with itself", ErrConstructionFailure, i, m[0])
		}
		t.nodes[id] = treeNode{left: m[0], right: m[1]}
	}
	t.computeCentroids(t.root())
	return t, nil
}

func (t *WardTree) root() int { return len(t.nodes) - 1 }

// computeCentroids fills in every centroid below id in post-order. Each internal centroid is
// the element-wise floor average of its children and is computed once.
func (t *WardTree) computeCentroids(id int) {
	stack := []int{id}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		node := &t.nodes[top]
		if node.computed {
			stack = stack[:len(stack)-1]
			continue
		}
		pending := false
		for _, child := range [2]int{node.left, node.right} {
			if child != noChild && !t.nodes[child].computed {
				stack = append(stack, child)
				pending = true
			}
		}
		if pending {
			continue
		}
		node.centroid = t.average(node.left, node.right)
		node.computed = true
		stack = stack[:len(stack)-1]
	}
}

func (t *WardTree) average(left, right int) tile.Tile {
	switch {
	case left == noChild:
		return t.nodes[right].centroid
	case right == noChild:
		return t.nodes[left].centroid
	}
	l, r := t.nodes[left].centroid, t.nodes[right].centroid
	out := make(tile.Tile, len(l))
	for i := range l {
		out[i] = uint8((uint16(l[i]) + uint16(r[i])) / 2)
	}
	return out
}

// Query descends from the root towards the closer child centroid until it reaches a leaf,
// and returns a copy of that leaf's corpus tile.
func (t *WardTree) Query(ctx context.Context, q tile.Tile) (tile.Tile, error) {
	leaf, _, err := t.descend(ctx, q)
	if err != nil {
		return nil, err
	}
	return t.nodes[leaf].centroid.Clone(), nil
}

// descend returns the leaf reached by greedy descent and the number of edges followed.
// Ties go left.
func (t *WardTree) descend(ctx context.Context, q tile.Tile) (int, int, error) {
	if t == nil || len(t.nodes) == 0 {
		return 0, 0, ErrIndexNotBuilt
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if err := checkShape(t.corpus.Side(), q); err != nil {
		return 0, 0, err
	}
	id, steps := t.root(), 0
	for {
		node := &t.nodes[id]
		switch {
		case node.isLeaf():
			return id, steps, nil
		case node.left == noChild:
			id = node.right
		case node.right == noChild:
			id = node.left
		default:
			dl := tile.SquaredDistance(q, t.nodes[node.left].centroid)
			dr := tile.SquaredDistance(q, t.nodes[node.right].centroid)
			if dr < dl {
				id = node.right
			} else {
				id = node.left
			}
		}
		steps++
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *WardTree) Depth() int {
	if t == nil || len(t.nodes) == 0 {
		return 0
	}
	depth := make([]int, len(t.nodes))
	deepest := 0
	for id := t.root(); id >= 0; id-- {
		node := t.nodes[id]
		for _, child := range [2]int{node.left, node.right} {
			if child != noChild {
				depth[child] = depth[id] + 1
				deepest = max(deepest, depth[child])
			}
		}
	}
	return deepest
}

func (t *WardTree) Type() string { return string(IndexTypeWardTree) }

func (t *WardTree) Size() int {
	if t == nil || t.corpus == nil {
		return 0
	}
	return t.corpus.Len()
}

func (t *WardTree) TileSide() int {
	if t == nil || t.corpus == nil {
		return 0
	}
	return t.corpus.Side()
}
