package nn

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tessera/internal/corpus"
	"github.com/hyperjump/tessera/internal/ward"
)

// IndexType names an index strategy.
type IndexType string

const (
	// IndexTypeWardTree is a Ward agglomerative cluster tree searched by greedy descent.
	// Fast queries, approximate results, slow O(N^2) build.
	IndexTypeWardTree IndexType = "ward_tree"
	// IndexTypeIVF is an inverted-file index: k-means partitions scanned exhaustively.
	IndexTypeIVF IndexType = "ivf"
)

// BuildOptions configures Build. Zero values select defaults.
type BuildOptions struct {
	// PartitionSize is the target number of tiles per IVF partition.
	PartitionSize int
	// KMeansIterations bounds IVF training.
	KMeansIterations int
	// Probe is the number of IVF partitions scanned per query.
	Probe int
	// Candidates is the number of nearest IVF members a result is drawn from.
	Candidates int
	Seed       int64
	// Workers bounds construction parallelism. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// Build constructs an index of the given type over c.
// Supported types: "ward_tree" (default), "ivf".
func Build(ctx context.Context, indexType string, c *corpus.Corpus, opts BuildOptions) (Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch IndexType(indexType) {
	case IndexTypeWardTree, "":
		vectors, dim := c.Vectors()
		if len(vectors) == 0 {
			return nil, fmt.Errorf("%w: empty corpus", ErrConstructionFailure)
		}
		logger.Info("computing ward linkage", zap.Int("tiles", c.Len()), zap.Int("dim", dim))
		merges, err := ward.Linkage(ctx, vectors, dim, ward.Options{Workers: opts.Workers})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConstructionFailure, err)
		}
		pairs := make([][2]int, len(merges))
		for i, m := range merges {
			pairs[i] = [2]int{m.Left, m.Right}
		}
		return BuildWardTree(c, pairs)
	case IndexTypeIVF:
		return BuildIVF(ctx, c, IVFOptions{
			PartitionSize: opts.PartitionSize,
			Iterations:    opts.KMeansIterations,
			Probe:         opts.Probe,
			Candidates:    opts.Candidates,
			Seed:          opts.Seed,
			Workers:       opts.Workers,
		})
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: ward_tree, ivf)", indexType)
	}
}
