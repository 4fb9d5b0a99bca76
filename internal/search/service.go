package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ThisaraAriyawansha/vueon-search/internal/document"
	"github.com/ThisaraAriyawansha/vueon-search/internal/encoder"
	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/internal/ranker"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// VideoSource supplies the video metadata the service indexes and searches
// over. Production wiring uses internal/videostore; tests use fakes.
type VideoSource interface {
	FetchPublished(ctx context.Context) ([]types.Video, error)
	FetchByID(ctx context.Context, id int64) (types.Video, error)
}

// State is the service lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config contains configuration for the search service.
type Config struct {
	BatchSize      int     // Videos encoded per batch (default: 10)
	FlushEvery     int     // Save the index every N batches (default: 1)
	SemanticWeight float64 // Hybrid semantic weight (default: 0.7)
	KeywordWeight  float64 // Hybrid keyword weight (default: 0.3)
	MinCombined    float64 // Hybrid score floor, exclusive (default: 0.3)
	DefaultLimit   int     // Result cap when callers pass limit <= 0 (default: 20)
	Threshold      float64 // Semantic similarity floor, inclusive (default: 0.5)
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.FlushEvery <= 0 {
		c.FlushEvery = 1
	}
	if c.SemanticWeight == 0 && c.KeywordWeight == 0 {
		c.SemanticWeight = 0.7
		c.KeywordWeight = 0.3
	}
	if c.MinCombined == 0 {
		c.MinCombined = 0.3
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.Threshold == 0 {
		c.Threshold = 0.5
	}
}

// Stats contains statistics about a rebuild operation.
type Stats struct {
	VideosIndexed int
	VideosFailed  int
	Duration      time.Duration
	ErrorMessages []string
}

// Service is the search facade: it owns the encoder, the embedding index
// and the video source, and exposes rebuild and query operations. Construct
// with New, then call Initialize before anything else.
type Service struct {
	enc    encoder.Encoder
	store  *index.Store
	videos VideoSource
	cfg    Config
	logger zerolog.Logger

	state atomic.Int32

	rebuildMu sync.Mutex // one rebuild at a time
}

// New wires a service from its collaborators. It does no I/O; call
// Initialize to load the persisted index.
func New(enc encoder.Encoder, store *index.Store, videos VideoSource, cfg Config, logger zerolog.Logger) *Service {
	cfg.applyDefaults()
	return &Service{
		enc:    enc,
		store:  store,
		videos: videos,
		cfg:    cfg,
		logger: logger.With().Str("component", "search").Logger(),
	}
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Initialize loads the persisted index and transitions the service to
// ready. A missing or corrupt index file is not fatal; the service comes
// up empty and a rebuild repopulates it. Initialize is idempotent once
// the service is ready.
func (s *Service) Initialize(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		if s.State() == StateReady {
			return nil
		}
		return fmt.Errorf("%w: cannot initialize from state %s", types.ErrNotReady, s.State())
	}

	if err := ctx.Err(); err != nil {
		s.state.Store(int32(StateFailed))
		return err
	}

	if err := s.store.Load(); err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("load index: %w", err)
	}

	s.state.Store(int32(StateReady))
	s.logger.Info().
		Int("indexed_videos", s.store.Len()).
		Str("encoder", s.enc.Provider()).
		Msg("search service ready")
	return nil
}

func (s *Service) requireReady() error {
	if s.State() != StateReady {
		return fmt.Errorf("%w: service is %s", types.ErrNotReady, s.State())
	}
	return nil
}

// Rebuild fetches all published videos and reindexes them from scratch.
// Per-video failures are logged and counted but never abort the run.
func (s *Service) Rebuild(ctx context.Context) (*Stats, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	videos, err := s.videos.FetchPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch published videos: %w", err)
	}

	return s.RebuildVideos(ctx, videos)
}

// RebuildVideos reindexes the given videos in batches. An empty set is a
// no-op: nothing is encoded and the index file is left untouched.
func (s *Service) RebuildVideos(ctx context.Context, videos []types.Video) (*Stats, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	startTime := time.Now()
	stats := &Stats{ErrorMessages: make([]string, 0)}

	if len(videos) == 0 {
		s.logger.Info().Msg("rebuild requested with no published videos, skipping")
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	var (
		indexed int32
		failed  int32
		mu      sync.Mutex // protects stats.ErrorMessages
	)

	batchSize := s.cfg.BatchSize
	batchesSinceFlush := 0

	for i := 0; i < len(videos); i += batchSize {
		end := i + batchSize
		if end > len(videos) {
			end = len(videos)
		}
		batch := videos[i:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, v := range batch {
			v := v
			g.Go(func() error {
				if err := s.indexVideo(gctx, v); err != nil {
					atomic.AddInt32(&failed, 1)
					mu.Lock()
					stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("video %d: %v", v.ID, err))
					mu.Unlock()
					s.logger.Warn().Err(err).Int64("video_id", v.ID).Msg("skipping video during rebuild")
					return nil
				}
				atomic.AddInt32(&indexed, 1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batchesSinceFlush++
		if batchesSinceFlush >= s.cfg.FlushEvery {
			if err := s.store.Save(); err != nil {
				return nil, err
			}
			batchesSinceFlush = 0
		}
	}

	if batchesSinceFlush > 0 {
		if err := s.store.Save(); err != nil {
			return nil, err
		}
	}

	stats.VideosIndexed = int(indexed)
	stats.VideosFailed = int(failed)
	stats.Duration = time.Since(startTime)

	s.logger.Info().
		Int("indexed", stats.VideosIndexed).
		Int("failed", stats.VideosFailed).
		Dur("duration", stats.Duration).
		Msg("rebuild complete")

	return stats, nil
}

// indexVideo encodes one video and upserts it into the index.
func (s *Service) indexVideo(ctx context.Context, v types.Video) error {
	text := document.BuildText(v)
	if text == "" {
		return fmt.Errorf("%w: video %d produced an empty document", types.ErrDocumentBuild, v.ID)
	}

	vec, err := s.enc.Encode(ctx, text)
	if err != nil {
		return err
	}

	rec := index.Record{
		Embedding: vec,
		Meta: index.Meta{
			Title:     v.Title,
			Category:  v.Category,
			Views:     v.Views,
			LikeCount: v.LikeCount,
			UpdatedAt: time.Now().UTC(),
		},
	}
	return s.store.Upsert(strconv.FormatInt(v.ID, 10), rec)
}

// UpdateOne reindexes a single video by ID and saves the index
// immediately. A missing video returns types.ErrNotFound.
func (s *Service) UpdateOne(ctx context.Context, id int64) error {
	if err := s.requireReady(); err != nil {
		return err
	}

	v, err := s.videos.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.indexVideo(ctx, v); err != nil {
		return err
	}
	return s.store.Save()
}

// SemanticSearch encodes the query and ranks every indexed video by cosine
// similarity. A blank query fails before any encoder call. Zero values
// mean "use the configured default", so limit 0 becomes cfg.DefaultLimit
// and threshold 0 becomes cfg.Threshold; pass the ranker a negative
// threshold directly if the call site genuinely wants every result.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int, threshold float64) ([]types.SearchResult, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if threshold == 0 {
		threshold = s.cfg.Threshold
	}

	vec, err := s.enc.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	return ranker.Rank(vec, s.store.Entries(), limit, threshold), nil
}

// HybridSearch blends semantic similarity with keyword relevance over the
// caller-supplied candidate set. Zero values mean "use the configured
// default": both weights zero falls back to the configured blend, limit 0
// becomes cfg.DefaultLimit. sortBy picks the result order (relevance,
// views or likes; empty means relevance); an unknown value returns
// types.ErrInvalidSort. An empty candidate set yields an empty result.
func (s *Service) HybridSearch(ctx context.Context, query string, candidates []types.Video, semanticWeight, keywordWeight float64, limit int, sortBy string) ([]types.HybridResult, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}
	if !ranker.ValidSort(sortBy) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidSort, sortBy)
	}
	if len(candidates) == 0 {
		return []types.HybridResult{}, nil
	}
	if semanticWeight == 0 && keywordWeight == 0 {
		semanticWeight = s.cfg.SemanticWeight
		keywordWeight = s.cfg.KeywordWeight
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	vec, err := s.enc.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	w := ranker.Weights{
		Semantic:    semanticWeight,
		Keyword:     keywordWeight,
		MinCombined: s.cfg.MinCombined,
		Limit:       limit,
		SortBy:      sortBy,
	}
	return ranker.HybridRank(vec, query, candidates, s.store.Entries(), w), nil
}

// IndexedCount reports how many videos the index currently holds.
func (s *Service) IndexedCount() int {
	return s.store.Len()
}

// Status is a point-in-time snapshot of the running service.
type Status struct {
	State          string    `json:"state"`
	Provider       string    `json:"encoder_provider"`
	IndexedVideos  int       `json:"indexed_videos"`
	IndexUpdatedAt time.Time `json:"index_updated_at"`
}

// Status reports the lifecycle state, encoder provider, index size and the
// last time the index was flushed to disk (zero before the first save).
func (s *Service) Status() Status {
	return Status{
		State:          s.State().String(),
		Provider:       s.enc.Provider(),
		IndexedVideos:  s.store.Len(),
		IndexUpdatedAt: s.store.UpdatedAt(),
	}
}
