// Package vectorstore provides embedding generation and similarity-search
// backends implementing domain/vector.Store.
package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/vector"
)

// MemoryStore is an in-memory vector store with cosine-similarity search,
// scoped per agent. Dimension is established by the first vector stored
// and enforced for every write after that.
type MemoryStore struct {
	embedder  *HashEmbedder
	vectors   map[string]*vector.Vector
	dimension int
	mu        sync.RWMutex
}

// NewMemoryStore creates an in-memory vector store using embedder to
// satisfy GenerateEmbedding.
func NewMemoryStore(embedder *HashEmbedder) *MemoryStore {
	if embedder == nil {
		embedder = NewHashEmbedder(0)
	}
	return &MemoryStore{
		embedder: embedder,
		vectors:  make(map[string]*vector.Vector),
	}
}

// GenerateEmbedding delegates to the configured embedder.
func (s *MemoryStore) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.GenerateEmbedding(ctx, text)
}

// StoreMemory upserts a vector.
func (s *MemoryStore) StoreMemory(ctx context.Context, v *vector.Vector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(v.Embedding) == 0 {
		return vector.ErrInvalidEmbedding
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(v.Embedding)
	} else if len(v.Embedding) != s.dimension {
		return vector.ErrDimensionMismatch
	}

	stored := &vector.Vector{
		ID:        v.ID,
		AgentID:   v.AgentID,
		MemoryID:  v.MemoryID,
		Embedding: append([]float32(nil), v.Embedding...),
		Text:      v.Text,
		Metadata:  copyStrMap(v.Metadata),
		CreatedAt: v.CreatedAt,
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.vectors[v.ID] = stored
	return nil
}

// SearchSimilar returns the topK most similar vectors for an agent.
func (s *MemoryStore) SearchSimilar(ctx context.Context, agentID string, embedding []float32, topK int) ([]vector.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, vector.ErrInvalidEmbedding
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		v     *vector.Vector
		score float32
	}

	var results []scored
	for _, v := range s.vectors {
		if v.AgentID != agentID {
			continue
		}
		results = append(results, scored{v: v, score: cosineSimilarity(embedding, v.Embedding)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	if topK > len(results) {
		topK = len(results)
	}
	if topK < 0 {
		topK = 0
	}

	out := make([]vector.SearchResult, topK)
	for i := 0; i < topK; i++ {
		out[i] = vector.SearchResult{
			ID:       results[i].v.ID,
			MemoryID: results[i].v.MemoryID,
			Text:     results[i].v.Text,
			Score:    results[i].score,
			Metadata: copyStrMap(results[i].v.Metadata),
		}
	}
	return out, nil
}

// DeleteMemory removes a vector by id.
func (s *MemoryStore) DeleteMemory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vectors[id]; !ok {
		return vector.ErrNotFound
	}
	delete(s.vectors, id)
	return nil
}

// GetCollectionStats reports the agent's vector count and the collection's dimension.
func (s *MemoryStore) GetCollectionStats(ctx context.Context, agentID string) (vector.Stats, error) {
	if err := ctx.Err(); err != nil {
		return vector.Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, v := range s.vectors {
		if v.AgentID == agentID {
			count++
		}
	}
	return vector.Stats{VectorCount: count, Dimension: s.dimension}, nil
}

// List returns vectors matching the filter.
func (s *MemoryStore) List(ctx context.Context, filter vector.ListFilter) ([]*vector.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*vector.Vector
	for _, v := range s.vectors {
		if matchesFilter(v, filter) {
			vc := *v
			vc.Embedding = append([]float32(nil), v.Embedding...)
			vc.Metadata = copyStrMap(v.Metadata)
			results = append(results, &vc)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*vector.Vector{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Clear removes all vectors from the store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = make(map[string]*vector.Vector)
	s.dimension = 0
}

// Len returns the number of stored vectors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func matchesFilter(v *vector.Vector, f vector.ListFilter) bool {
	if f.AgentID != "" && v.AgentID != f.AgentID {
		return false
	}
	if f.IDPrefix != "" && !strings.HasPrefix(v.ID, f.IDPrefix) {
		return false
	}
	if !f.FromTime.IsZero() && v.CreatedAt.Before(f.FromTime) {
		return false
	}
	if !f.ToTime.IsZero() && v.CreatedAt.After(f.ToTime) {
		return false
	}
	for k, want := range f.Metadata {
		if got, ok := v.Metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

func copyStrMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Store = (*MemoryStore)(nil)
