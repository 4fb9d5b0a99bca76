package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ThisaraAriyawansha/vueon-search/internal/search"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// SearchService is the slice of the search facade the handlers need.
type SearchService interface {
	Rebuild(ctx context.Context) (*search.Stats, error)
	UpdateOne(ctx context.Context, id int64) error
	SemanticSearch(ctx context.Context, query string, limit int, threshold float64) ([]types.SearchResult, error)
	HybridSearch(ctx context.Context, query string, candidates []types.Video, semanticWeight, keywordWeight float64, limit int, sortBy string) ([]types.HybridResult, error)
	Status() search.Status
}

type App struct {
	Search SearchService
	Videos search.VideoSource
	Logger zerolog.Logger
}

// semanticResultPayload is a search hit hydrated with video metadata.
type semanticResultPayload struct {
	types.Video
	Similarity float64 `json:"similarity_score"`
	Rank       int     `json:"search_rank"`
}

type hybridResultPayload struct {
	types.Video
	Combined float64 `json:"combined_score"`
	Semantic float64 `json:"semantic_score"`
	Keyword  float64 `json:"keyword_score"`
	Rank     int     `json:"search_rank"`
}

type errorPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (app *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrEmptyQuery), errors.Is(err, types.ErrInvalidSort):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrNotReady):
		status = http.StatusServiceUnavailable
	}

	msg := http.StatusText(status)
	if status != http.StatusInternalServerError {
		msg = err.Error()
	} else {
		app.Logger.Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, errorPayload{Error: msg, Details: err.Error()})
}

func (app *App) badRequest(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusBadRequest, errorPayload{Error: "bad request", Details: details})
}

// StatsHandler reports the service state and index freshness.
func (app *App) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  app.Search.Status(),
	})
}

// ReindexHandler triggers a full rebuild of the embedding index.
func (app *App) ReindexHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.Search.Rebuild(r.Context())
	if err != nil {
		app.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"videos_indexed": stats.VideosIndexed,
		"videos_failed":  stats.VideosFailed,
		"duration_ms":    stats.Duration.Milliseconds(),
		"errors":         stats.ErrorMessages,
	})
}

// ReindexVideoHandler reindexes a single video by ID.
func (app *App) ReindexVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		app.badRequest(w, "video id must be an integer")
		return
	}

	if err := app.Search.UpdateOne(r.Context(), id); err != nil {
		app.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "video_id": id})
}

// SemanticSearchHandler serves GET /api/search/semantic?q=...&limit=...&threshold=...
func (app *App) SemanticSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			app.badRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			app.badRequest(w, "threshold must be a number")
			return
		}
		threshold = f
	}

	results, err := app.Search.SemanticSearch(r.Context(), query, limit, threshold)
	if err != nil {
		app.writeError(w, err)
		return
	}

	payload := make([]semanticResultPayload, 0, len(results))
	for _, res := range results {
		v, err := app.Videos.FetchByID(r.Context(), res.VideoID)
		if err != nil {
			// The row vanished between indexing and now. Skip it; the
			// next rebuild will drop it from the index too.
			continue
		}
		payload = append(payload, semanticResultPayload{
			Video:      v,
			Similarity: res.Similarity,
			Rank:       res.Rank,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": payload})
}

type hybridRequest struct {
	Query          string  `json:"query"`
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
	Limit          int     `json:"limit"`
	SortBy         string  `json:"sort_by"` // relevance (default), views or likes
}

// HybridSearchHandler serves POST /api/search/hybrid. Candidates are the
// currently published videos.
func (app *App) HybridSearchHandler(w http.ResponseWriter, r *http.Request) {
	var req hybridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.badRequest(w, "invalid JSON body")
		return
	}

	candidates, err := app.Videos.FetchPublished(r.Context())
	if err != nil {
		app.writeError(w, err)
		return
	}

	results, err := app.Search.HybridSearch(r.Context(), req.Query, candidates,
		req.SemanticWeight, req.KeywordWeight, req.Limit, req.SortBy)
	if err != nil {
		app.writeError(w, err)
		return
	}

	byID := make(map[int64]types.Video, len(candidates))
	for _, v := range candidates {
		byID[v.ID] = v
	}

	payload := make([]hybridResultPayload, 0, len(results))
	for _, res := range results {
		payload = append(payload, hybridResultPayload{
			Video:    byID[res.VideoID],
			Combined: res.Combined,
			Semantic: res.Semantic,
			Keyword:  res.Keyword,
			Rank:     res.Rank,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": payload})
}
