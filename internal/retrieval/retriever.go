package retrieval

import (
	"math"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// Top1 returns the index and score of the document vector most similar to
// query. The first maximum wins on ties.
func Top1(query []float32, docs [][]float32) (int, float32, error) {
	if len(docs) == 0 {
		return -1, 0, appErr.ErrNoDocuments
	}
	best := 0
	bestScore := CosineSimilarity(query, docs[0])
	for i := 1; i < len(docs); i++ {
		score := CosineSimilarity(query, docs[i])
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore, nil
}

// CosineSimilarity is 0 for mismatched lengths and zero-norm vectors.
func CosineSimilarity(a, b []float32) float32 {
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
