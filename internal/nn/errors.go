package nn

import "errors"

var (
	// ErrIndexNotBuilt is returned when querying an index that was never constructed.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrShapeMismatch is returned when a tile does not have the index's tile dimensions.
	ErrShapeMismatch = errors.New("tile shape mismatch")
	// ErrConstructionFailure is returned when an index cannot be built from its inputs.
	ErrConstructionFailure = errors.New("index construction failed")
	// ErrInvalidArtifact is returned when a serialized index cannot be decoded.
	ErrInvalidArtifact = errors.New("invalid index artifact")
)
