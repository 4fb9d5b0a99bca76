package ranker

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ThisaraAriyawansha/vueon-search/internal/document"
	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// Keyword scoring increments. A keyword hit anywhere in the document text
// counts once; a hit in the title or category adds an extra boost on top.
const (
	keywordTextScore     = 1.0
	keywordTitleBoost    = 2.0
	keywordCategoryBoost = 1.5
)

// Sort orders for hybrid results. Relevance orders by combined score;
// views and likes order by the candidate's popularity counters. The
// MinCombined floor applies regardless of the final order.
const (
	SortRelevance = "relevance"
	SortViews     = "views"
	SortLikes     = "likes"
)

// ValidSort reports whether sortBy names a supported order. Empty means
// relevance.
func ValidSort(sortBy string) bool {
	switch sortBy {
	case "", SortRelevance, SortViews, SortLikes:
		return true
	}
	return false
}

// Weights configures a hybrid ranking pass. Semantic and Keyword are the
// caller's blend weights; they are not required to sum to 1 and are applied
// as-is with no normalization. MinCombined is the floor a combined score
// must exceed (strictly) for the result to be kept. SortBy picks the final
// result order; empty defaults to relevance.
type Weights struct {
	Semantic    float64
	Keyword     float64
	MinCombined float64
	Limit       int
	SortBy      string
}

// HybridRank blends semantic similarity with keyword relevance for a set of
// candidate videos. The semantic score per candidate comes from the index
// entries (0 when the candidate is not indexed: absence is zero relevance,
// not an error); the keyword score is computed against the candidate's
// rendered document text. Results are ordered by w.SortBy (combined score
// descending by default) and truncated to w.Limit. Deterministic for a
// fixed index state, candidate order and query: the sorts are stable, so
// equal keys keep candidate order.
func HybridRank(queryVec []float32, query string, candidates []types.Video, entries []index.Entry, w Weights) []types.HybridResult {
	if w.Limit <= 0 || len(candidates) == 0 {
		return []types.HybridResult{}
	}

	semantic := semanticScores(queryVec, entries)
	keywords := strings.Fields(strings.ToLower(query))

	results := make([]types.HybridResult, 0, len(candidates))
	for _, v := range candidates {
		sem := semantic[v.ID]
		kw := keywordScore(v, keywords)
		combined := sem*w.Semantic + kw*w.Keyword

		if combined <= w.MinCombined {
			continue
		}

		results = append(results, types.HybridResult{
			VideoID:  v.ID,
			Combined: combined,
			Semantic: sem,
			Keyword:  kw,
		})
	}

	switch w.SortBy {
	case SortViews, SortLikes:
		counters := make(map[int64]int64, len(candidates))
		for _, v := range candidates {
			if w.SortBy == SortViews {
				counters[v.ID] = v.Views
			} else {
				counters[v.ID] = v.LikeCount
			}
		}
		sort.SliceStable(results, func(i, j int) bool {
			return counters[results[i].VideoID] > counters[results[j].VideoID]
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Combined > results[j].Combined
		})
	}

	if w.Limit < len(results) {
		results = results[:w.Limit]
	}

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// semanticScores maps video ID to cosine similarity for every index entry.
func semanticScores(queryVec []float32, entries []index.Entry) map[int64]float64 {
	scores := make(map[int64]float64, len(entries))
	for _, entry := range entries {
		id, err := strconv.ParseInt(entry.ID, 10, 64)
		if err != nil {
			continue
		}
		scores[id] = CosineSimilarity(queryVec, entry.Record.Embedding)
	}
	return scores
}

// keywordScore accumulates per-keyword hits against the candidate's
// rendered document text, title and category, then normalizes by keyword
// count and caps at 1.0.
func keywordScore(v types.Video, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	docText := document.BuildText(v)
	title := strings.ToLower(v.Title)
	category := strings.ToLower(v.Category)

	var score float64
	for _, kw := range keywords {
		if strings.Contains(docText, kw) {
			score += keywordTextScore
		}
		if strings.Contains(title, kw) {
			score += keywordTitleBoost
		}
		if category != "" && strings.Contains(category, kw) {
			score += keywordCategoryBoost
		}
	}

	score /= float64(len(keywords))
	if score > 1 {
		score = 1
	}
	return score
}
