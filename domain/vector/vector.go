// Package vector provides the semantic memory store: embeddings over
// memory content, searchable by cosine similarity, scoped per agent.
package vector

import (
	"context"
	"time"
)

// Vector is an embedding with the memory item id and text it was derived
// from, plus free-form metadata carried through to search results.
type Vector struct {
	ID        string            `json:"id"`
	AgentID   string            `json:"agent_id"`
	MemoryID  string            `json:"memory_id,omitempty"`
	Embedding []float32         `json:"embedding"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is one similarity search hit.
type SearchResult struct {
	ID       string            `json:"id"`
	MemoryID string            `json:"memory_id,omitempty"`
	Text     string            `json:"text"`
	Score    float32           `json:"score"` // cosine similarity, [-1, 1], typically [0, 1]
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListFilter scopes List/Count operations.
type ListFilter struct {
	AgentID  string
	IDPrefix string
	Metadata map[string]string
	FromTime time.Time
	ToTime   time.Time
	Limit    int
	Offset   int
}

// Store is the vector backend contract (spec's 5-operation surface, plus
// List which every backend already needs internally for Count/iteration).
type Store interface {
	// GenerateEmbedding produces an embedding for text. Without a real
	// embedding model the backends use a deterministic hash-based embedding:
	// a unit vector derived from the text, not a zero vector. Only empty
	// text yields a zero vector.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// StoreMemory upserts a vector for an agent's memory item.
	StoreMemory(ctx context.Context, v *Vector) error

	// SearchSimilar returns the topK most similar vectors for an agent,
	// sorted by descending score.
	SearchSimilar(ctx context.Context, agentID string, embedding []float32, topK int) ([]SearchResult, error)

	// DeleteMemory removes a vector by id.
	DeleteMemory(ctx context.Context, id string) error

	// GetCollectionStats reports the agent's vector count and the
	// configured embedding dimension.
	GetCollectionStats(ctx context.Context, agentID string) (Stats, error)

	// List returns vectors matching the filter, for administrative use.
	List(ctx context.Context, filter ListFilter) ([]*Vector, error)
}

// Stats describes a per-agent vector collection.
type Stats struct {
	VectorCount int64 `json:"vector_count"`
	Dimension   int   `json:"dimension"`
}
