package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

func video(id int64, title, category string) types.Video {
	return types.Video{ID: id, Title: title, Category: category}
}

func defaultWeights() Weights {
	return Weights{Semantic: 0.7, Keyword: 0.3, MinCombined: 0.3, Limit: 10}
}

func TestHybridRankScoreComposition(t *testing.T) {
	candidates := []types.Video{video(1, "Cat Piano Concert", "music")}
	entries := []index.Entry{entry("1", 1, 0)}
	query := []float32{1, 0} // semantic similarity 1.0

	results := HybridRank(query, "piano", candidates, entries, defaultWeights())
	require.Len(t, results, 1)

	r := results[0]
	assert.InDelta(t, r.Semantic*0.7+r.Keyword*0.3, r.Combined, 1e-9)
	assert.InDelta(t, 1.0, r.Semantic, 1e-6)
	// "piano" hits both the document text and the title, capped at 1.0.
	assert.InDelta(t, 1.0, r.Keyword, 1e-9)
}

func TestHybridRankKeywordOnlyWeights(t *testing.T) {
	// With the semantic weight zeroed out, the combined score must equal
	// the keyword score times its weight, regardless of vector similarity.
	candidates := []types.Video{
		video(1, "Cooking Pasta", "food"),
		video(2, "Jazz Improvisation", "music"),
	}
	entries := []index.Entry{
		entry("1", 1, 0),
		entry("2", 0, 1),
	}
	w := Weights{Semantic: 0, Keyword: 1, MinCombined: 0.1, Limit: 10}

	results := HybridRank([]float32{1, 0}, "jazz", candidates, entries, w)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].VideoID)
	assert.InDelta(t, results[0].Keyword, results[0].Combined, 1e-9)
	assert.Greater(t, results[0].Keyword, 0.0)
}

func TestHybridRankMinCombinedStrictFloor(t *testing.T) {
	candidates := []types.Video{
		video(1, "unrelated clip", "misc"),
		video(2, "deep dive on piano", "music"),
	}
	entries := []index.Entry{
		entry("1", 0, 1), // semantic 0 against the query below
		entry("2", 1, 0), // semantic 1
	}

	results := HybridRank([]float32{1, 0}, "piano", candidates, entries, defaultWeights())
	require.Len(t, results, 1, "a candidate with combined score at or below the floor is dropped")
	assert.Equal(t, int64(2), results[0].VideoID)
	assert.Greater(t, results[0].Combined, 0.3)
}

func TestHybridRankCombinedExactlyAtFloorDropped(t *testing.T) {
	// Keyword score 1.0 with weight 0.3 and zero semantic contribution
	// lands exactly on the 0.3 floor; the floor is exclusive.
	candidates := []types.Video{video(1, "piano", "")}
	entries := []index.Entry{entry("1", 0, 1)}
	w := Weights{Semantic: 0.7, Keyword: 0.3, MinCombined: 0.3, Limit: 10}

	results := HybridRank([]float32{1, 0}, "piano", candidates, entries, w)
	assert.Empty(t, results)
}

func TestHybridRankMissingEmbeddingScoresZeroSemantic(t *testing.T) {
	candidates := []types.Video{video(1, "solo piano session", "music")}

	// No entry for video 1: semantic contribution must be zero, keyword
	// relevance alone decides whether it clears the floor.
	results := HybridRank([]float32{1, 0}, "piano", candidates, nil, Weights{
		Semantic: 0.7, Keyword: 0.3, MinCombined: 0.1, Limit: 10,
	})
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Semantic)
	assert.InDelta(t, results[0].Keyword*0.3, results[0].Combined, 1e-9)
}

func TestHybridRankOrderingAndRanks(t *testing.T) {
	candidates := []types.Video{
		video(1, "piano basics", "music"),
		video(2, "piano advanced techniques", "music"),
		video(3, "guitar for beginners", "music"),
	}
	entries := []index.Entry{
		entry("1", 0.9, 0.1),
		entry("2", 1, 0),
		entry("3", 0.2, 0.9),
	}

	results := HybridRank([]float32{1, 0}, "piano music", candidates, entries, defaultWeights())
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Combined, results[i].Combined)
	}
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestHybridRankLimitTruncates(t *testing.T) {
	var candidates []types.Video
	var entries []index.Entry
	for i := int64(1); i <= 5; i++ {
		candidates = append(candidates, video(i, "piano", "music"))
		entries = append(entries, entry("1", 1, 0))
	}
	w := defaultWeights()
	w.Limit = 2

	results := HybridRank([]float32{1, 0}, "piano", candidates, entries, w)
	assert.Len(t, results, 2)
}

func TestHybridRankEmptyCandidates(t *testing.T) {
	results := HybridRank([]float32{1, 0}, "piano", nil, []index.Entry{entry("1", 1, 0)}, defaultWeights())
	assert.Empty(t, results)
}

func TestHybridRankSortByViews(t *testing.T) {
	candidates := []types.Video{
		{ID: 1, Title: "piano", Views: 100, LikeCount: 9},
		{ID: 2, Title: "piano", Views: 5, LikeCount: 50},
		{ID: 3, Title: "piano", Views: 900, LikeCount: 1},
	}
	w := Weights{Semantic: 0, Keyword: 1, MinCombined: 0, Limit: 10, SortBy: SortViews}

	results := HybridRank(nil, "piano", candidates, nil, w)
	require.Len(t, results, 3)
	assert.Equal(t, int64(3), results[0].VideoID)
	assert.Equal(t, int64(1), results[1].VideoID)
	assert.Equal(t, int64(2), results[2].VideoID)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank, "ranks follow the requested order")
	}
}

func TestHybridRankSortByLikes(t *testing.T) {
	candidates := []types.Video{
		{ID: 1, Title: "piano", LikeCount: 9},
		{ID: 2, Title: "piano", LikeCount: 50},
	}
	w := Weights{Semantic: 0, Keyword: 1, MinCombined: 0, Limit: 10, SortBy: SortLikes}

	results := HybridRank(nil, "piano", candidates, nil, w)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].VideoID)
}

func TestHybridRankSortStillAppliesFloor(t *testing.T) {
	// A hugely popular but irrelevant video must not ride in on a
	// popularity sort; the combined-score floor filters first.
	candidates := []types.Video{
		{ID: 1, Title: "piano", Views: 10},
		{ID: 2, Title: "unrelated", Views: 1000000},
	}
	w := Weights{Semantic: 0, Keyword: 1, MinCombined: 0.3, Limit: 10, SortBy: SortViews}

	results := HybridRank(nil, "piano", candidates, nil, w)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].VideoID)
}

func TestValidSort(t *testing.T) {
	assert.True(t, ValidSort(""))
	assert.True(t, ValidSort(SortRelevance))
	assert.True(t, ValidSort(SortViews))
	assert.True(t, ValidSort(SortLikes))
	assert.False(t, ValidSort("rating"))
}

func TestHybridRankKeywordCapAtOne(t *testing.T) {
	// A single keyword hitting text, title and category accumulates
	// 1 + 2 + 1.5 before normalization and must be capped at 1.0.
	candidates := []types.Video{video(1, "piano", "piano")}

	results := HybridRank(nil, "piano", candidates, nil, Weights{
		Semantic: 0, Keyword: 1, MinCombined: 0, Limit: 10,
	})
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Keyword, 1e-9)
}

func TestHybridRankMultiKeywordNormalization(t *testing.T) {
	// "piano" matches text and title (score 3); "zebra" matches nothing.
	// Normalized by 2 keywords that is 1.5, capped to 1.0.
	candidates := []types.Video{video(1, "piano", "")}

	results := HybridRank(nil, "piano zebra", candidates, nil, Weights{
		Semantic: 0, Keyword: 1, MinCombined: 0, Limit: 10,
	})
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Keyword, 1e-9)
}
