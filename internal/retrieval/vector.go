package retrieval

import (
	"fmt"
	"math"
)

// EmbeddingDim is the fixed dimensionality of all stored and query vectors.
const EmbeddingDim = 1536

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Comparing vectors of different (or zero) dimensionality is
// undefined and fails fast.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine similarity of empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
