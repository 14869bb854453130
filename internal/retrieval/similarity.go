package retrieval

import (
	"math"
	"sort"

	"studymate/internal/model"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|). A zero vector yields NaN, as
// does a length mismatch.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ScoredPassage is a passage with its similarity to a query.
type ScoredPassage struct {
	Passage model.Passage
	Score   float64
}

// Rank scores every passage against query and orders them by descending
// score. Ties keep input order and NaN scores sort last.
func Rank(query []float32, passages []model.Passage) []ScoredPassage {
	scored := make([]ScoredPassage, len(passages))
	for i := range passages {
		scored[i] = ScoredPassage{
			Passage: passages[i],
			Score:   CosineSimilarity(query, passages[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return higher(scored[i].Score, scored[j].Score)
	})
	return scored
}

func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}
