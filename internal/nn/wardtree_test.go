package nn

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/tile"
)

var (
	red   = tile.Solid(2, 255, 0, 0)
	green = tile.Solid(2, 0, 255, 0)
	blue  = tile.Solid(2, 0, 0, 255)
	white = tile.Solid(2, 255, 255, 255)
)

func colorTree(t *testing.T) *WardTree {
	t.Helper()
	c, err := corpus.New(2, []tile.Tile{red, green, blue, white})
	require.NoError(t, err)
	tree, err := BuildWardTree(c, [][2]int{{0, 1}, {4, 2}, {5, 3}})
	require.NoError(t, err)
	return tree
}

func randomCorpus(t *testing.T, seed int64, n, side int) *corpus.Corpus {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	tiles := make([]tile.Tile, n)
	for i := range tiles {
		tiles[i] = tile.New(side)
		for j := range tiles[i] {
			tiles[i][j] = uint8(rng.Intn(256))
		}
	}
	c, err := corpus.New(side, tiles)
	require.NoError(t, err)
	return c
}

func TestWardTree_SolidColors(t *testing.T) {
	tree := colorTree(t)
	ctx := context.Background()

	got, err := tree.Query(ctx, red)
	require.NoError(t, err)
	assert.Equal(t, red, got)

	// (127,127,0) is equidistant from red and green; ties descend left, into red.
	got, err = tree.Query(ctx, tile.Solid(2, 127, 127, 0))
	require.NoError(t, err)
	assert.Equal(t, red, got)

	got, err = tree.Query(ctx, tile.Solid(2, 250, 250, 250))
	require.NoError(t, err)
	assert.Equal(t, white, got)

	got, err = tree.Query(ctx, tile.Solid(2, 10, 20, 240))
	require.NoError(t, err)
	assert.Equal(t, blue, got)
}

func TestWardTree_Centroids(t *testing.T) {
	tree := colorTree(t)
	assert.Equal(t, tile.Solid(2, 127, 127, 0), tree.nodes[4].centroid)
	assert.Equal(t, tile.Solid(2, 63, 63, 127), tree.nodes[5].centroid)
	assert.Equal(t, tile.Solid(2, 159, 159, 191), tree.nodes[6].centroid)
	for i, want := range []tile.Tile{red, green, blue, white} {
		assert.Equal(t, want, tree.nodes[i].centroid, "leaf %d", i)
	}
}

func TestWardTree_QueryReturnsCopy(t *testing.T) {
	tree := colorTree(t)
	got, err := tree.Query(context.Background(), red)
	require.NoError(t, err)
	got[0] = 1
	again, err := tree.Query(context.Background(), red)
	require.NoError(t, err)
	assert.Equal(t, red, again)
}

func TestWardTree_Structure(t *testing.T) {
	const n = 64
	c := randomCorpus(t, 1, n, 2)
	idx, err := Build(context.Background(), string(IndexTypeWardTree), c, BuildOptions{})
	require.NoError(t, err)
	tree := idx.(*WardTree)

	require.Len(t, tree.nodes, 2*n-1)
	parents := make([]int, len(tree.nodes))
	for id, node := range tree.nodes {
		if node.isLeaf() {
			assert.Less(t, id, n)
			assert.Equal(t, c.At(id), node.centroid)
			continue
		}
		parents[node.left]++
		parents[node.right]++
		l, r := tree.nodes[node.left].centroid, tree.nodes[node.right].centroid
		for i := range node.centroid {
			assert.Equal(t, uint8((int(l[i])+int(r[i]))/2), node.centroid[i])
		}
	}
	roots := 0
	for id, p := range parents {
		if p == 0 {
			roots++
			assert.Equal(t, tree.root(), id)
		} else {
			assert.Equal(t, 1, p, "node %d has %d parents", id, p)
		}
	}
	assert.Equal(t, 1, roots)
}

func TestWardTree_QueryReturnsCorpusTile(t *testing.T) {
	c := randomCorpus(t, 2, 100, 2)
	idx, err := Build(context.Background(), "", c, BuildOptions{})
	require.NoError(t, err)
	tree := idx.(*WardTree)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		q := tile.New(2)
		for j := range q {
			q[j] = uint8(rng.Intn(256))
		}
		leaf, steps, err := tree.descend(context.Background(), q)
		require.NoError(t, err)
		assert.LessOrEqual(t, steps, tree.Depth())

		got, err := tree.Query(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, c.At(leaf), got)
	}
}

func TestWardTree_BalancedDescentSteps(t *testing.T) {
	const n = 8
	c := randomCorpus(t, 4, n, 1)
	tree, err := BuildWardTree(c, [][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {8, 9}, {10, 11}, {12, 13}})
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Depth())

	bound := int(math.Ceil(math.Log2(n)))
	for i := 0; i < n; i++ {
		_, steps, err := tree.descend(context.Background(), c.At(i))
		require.NoError(t, err)
		assert.LessOrEqual(t, steps, bound)
	}
}

func TestWardTree_SingleTile(t *testing.T) {
	c, err := corpus.New(2, []tile.Tile{green})
	require.NoError(t, err)
	tree, err := BuildWardTree(c, nil)
	require.NoError(t, err)
	got, err := tree.Query(context.Background(), red)
	require.NoError(t, err)
	assert.Equal(t, green, got)
	assert.Equal(t, 0, tree.Depth())
}

func TestBuildWardTree_InvalidMerges(t *testing.T) {
	c, err := corpus.New(2, []tile.Tile{red, green, blue})
	require.NoError(t, err)
	tests := []struct {
		name   string
		merges [][2]int
	}{
		{"too few", [][2]int{{0, 1}}},
		{"forward reference", [][2]int{{0, 4}, {1, 2}}},
		{"negative", [][2]int{{-1, 0}, {1, 2}}},
		{"reused", [][2]int{{0, 1}, {0, 2}}},
		{"self", [][2]int{{0, 0}, {1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildWardTree(c, tt.merges)
			assert.ErrorIs(t, err, ErrConstructionFailure)
		})
	}

	empty, err := corpus.New(2, nil)
	require.NoError(t, err)
	_, err = BuildWardTree(empty, nil)
	assert.ErrorIs(t, err, ErrConstructionFailure)
}

func TestWardTree_Errors(t *testing.T) {
	var tree *WardTree
	_, err := tree.Query(context.Background(), red)
	assert.ErrorIs(t, err, ErrIndexNotBuilt)

	_, err = (&WardTree{}).Query(context.Background(), red)
	assert.ErrorIs(t, err, ErrIndexNotBuilt)

	_, err = colorTree(t).Query(context.Background(), tile.Solid(3, 0, 0, 0))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = colorTree(t).Query(ctx, red)
	assert.ErrorIs(t, err, context.Canceled)
}
