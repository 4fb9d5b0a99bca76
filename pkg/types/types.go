package types

// Video is the metadata snapshot the platform keeps for one published
// video. Tags arrive already parsed; decoding the stored wire form is the
// video store's job, not the ranking core's.
type Video struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Transcript  string   `json:"transcript,omitempty"`
	Duration    int64    `json:"duration"` // seconds
	Views       int64    `json:"views"`
	LikeCount   int64    `json:"like_count"`
}

// SearchResult is a single semantic search hit.
type SearchResult struct {
	VideoID    int64   `json:"video_id"`
	Similarity float64 `json:"similarity_score"`
	Rank       int     `json:"search_rank"` // 1-based position in the result set
}

// HybridResult is a single hybrid search hit with its score breakdown.
// Combined is always Semantic*semanticWeight + Keyword*keywordWeight for
// the weights the search was run with.
type HybridResult struct {
	VideoID  int64   `json:"video_id"`
	Combined float64 `json:"combined_score"`
	Semantic float64 `json:"semantic_score"`
	Keyword  float64 `json:"keyword_score"`
	Rank     int     `json:"search_rank"`
}
