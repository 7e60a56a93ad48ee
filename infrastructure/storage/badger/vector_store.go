package badger

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/felixgeelhaar/agent-go/domain/vector"
)

// VectorStore is a BadgerDB-backed implementation of vector.Store, used
// when VECTOR_PATH names a directory for on-disk persistence rather than
// the in-memory backend. Vectors are stored JSON-encoded under a "vector/"
// key prefix; Search scans the full keyspace, matching the in-memory
// backend's linear-scan semantics at the cost of an on-disk read per key.
type VectorStore struct {
	db        *badgerdb.DB
	embedder  interface {
		GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	}
	dimension int
}

const vectorKeyPrefix = "vector/"

// NewVectorStore opens (or creates) a BadgerDB database at cfg.Dir and
// returns a VectorStore using embedder to satisfy GenerateEmbedding.
func NewVectorStore(cfg Config, embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}) (*VectorStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &VectorStore{db: db, embedder: embedder}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// GenerateEmbedding delegates to the configured embedder.
func (s *VectorStore) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.GenerateEmbedding(ctx, text)
}

// StoreMemory upserts a vector.
func (s *VectorStore) StoreMemory(ctx context.Context, v *vector.Vector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(v.Embedding) == 0 {
		return vector.ErrInvalidEmbedding
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(vectorKeyPrefix+v.ID), data)
	})
}

// SearchSimilar returns the topK most similar vectors for an agent.
func (s *VectorStore) SearchSimilar(ctx context.Context, agentID string, embedding []float32, topK int) ([]vector.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, vector.ErrInvalidEmbedding
	}

	type scored struct {
		v     vector.Vector
		score float32
	}
	var results []scored

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(vectorKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var v vector.Vector
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				return err
			}
			if v.AgentID != agentID {
				continue
			}
			results = append(results, scored{v: v, score: cosineSimilarity(embedding, v.Embedding)})
		}
		return nil
	})
	if err != nil {
		return nil, err
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
			Metadata: results[i].v.Metadata,
		}
	}
	return out, nil
}

// DeleteMemory removes a vector by id.
func (s *VectorStore) DeleteMemory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		key := []byte(vectorKeyPrefix + id)
		if _, err := txn.Get(key); err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return vector.ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// GetCollectionStats reports the agent's vector count and the store's dimension.
func (s *VectorStore) GetCollectionStats(ctx context.Context, agentID string) (vector.Stats, error) {
	if err := ctx.Err(); err != nil {
		return vector.Stats{}, err
	}

	var count int64
	dimension := s.dimension
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(vectorKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var v vector.Vector
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) })
			if err != nil {
				return err
			}
			if dimension == 0 {
				dimension = len(v.Embedding)
			}
			if v.AgentID == agentID {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return vector.Stats{}, err
	}
	return vector.Stats{VectorCount: count, Dimension: dimension}, nil
}

// List returns vectors matching the filter.
func (s *VectorStore) List(ctx context.Context, filter vector.ListFilter) ([]*vector.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*vector.Vector
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(vectorKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var v vector.Vector
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) })
			if err != nil {
				return err
			}
			if vectorMatchesFilter(&v, filter) {
				vc := v
				results = append(results, &vc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
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

func vectorMatchesFilter(v *vector.Vector, f vector.ListFilter) bool {
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

var _ vector.Store = (*VectorStore)(nil)
