package vector

import "errors"

var (
	// ErrNotFound indicates the requested vector was not found.
	ErrNotFound = errors.New("vector not found")

	// ErrInvalidEmbedding indicates the embedding is empty.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrDimensionMismatch indicates the embedding dimension doesn't match
	// the collection's established dimension. Per deployment, embedding
	// dimensionality is an invariant fixed at first write, not negotiated
	// per call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
