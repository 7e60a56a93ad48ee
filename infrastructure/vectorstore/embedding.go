package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbedder generates a deterministic embedding from text without calling
// an external model: every dimension is seeded from a distinct FNV-1a hash
// of the text so that repeated calls for the same text always agree,
// letting callers exercise storage and similarity search without a live
// provider. Real deployments supply a model-backed Embedder instead.
type HashEmbedder struct {
	Dimension int // EMBEDDING_MODEL default is 1536
}

// NewHashEmbedder creates a HashEmbedder for the given dimension. A
// dimension <= 0 defaults to 1536.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 1536
	}
	return &HashEmbedder{Dimension: dimension}
}

// GenerateEmbedding returns a deterministic unit vector for text, or a
// zero vector for empty text: the fallback the spec requires rather than
// failing the caller when there is nothing to embed.
func (e *HashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]float32, e.Dimension)
	if text == "" {
		return out, nil
	}

	for i := range out {
		h := fnv.New32a()
		h.Write([]byte{byte(i), byte(i >> 8)})
		h.Write([]byte(text))
		v := h.Sum32()
		out[i] = float32(v%2000)/1000.0 - 1.0 // map to [-1, 1]
	}

	normalize(out)
	return out, nil
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
