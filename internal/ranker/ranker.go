package ranker

import (
	"math"
	"sort"
	"strconv"

	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or a zero-magnitude vector yield 0, never NaN or Inf.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every index entry against the query vector, keeps entries
// with similarity >= threshold (inclusive), sorts descending by similarity
// and truncates to limit. The index is never mutated. A limit of zero or
// less returns an empty result.
//
// Ties: the sort is stable over the ID-sorted entry snapshot, so equal
// similarities order by ascending video ID.
func Rank(query []float32, entries []index.Entry, limit int, threshold float64) []types.SearchResult {
	if limit <= 0 {
		return []types.SearchResult{}
	}

	scored := make([]types.SearchResult, 0, len(entries))
	for _, entry := range entries {
		similarity := CosineSimilarity(query, entry.Record.Embedding)
		if similarity < threshold {
			continue
		}

		id, err := strconv.ParseInt(entry.ID, 10, 64)
		if err != nil {
			continue // non-numeric key, cannot map back to a video row
		}

		scored = append(scored, types.SearchResult{VideoID: id, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}

	for i := range scored {
		scored[i].Rank = i + 1
	}

	return scored
}
