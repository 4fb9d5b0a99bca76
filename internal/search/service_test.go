package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThisaraAriyawansha/vueon-search/internal/index"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// tokenEncoder is a deterministic test encoder: each known token
// contributes a fixed basis vector, so texts sharing tokens have high
// cosine similarity and unrelated texts score zero.
type tokenEncoder struct {
	tokens map[string][]float32
	calls  atomic.Int32
	failOn string // substring that triggers an encode error
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{
		tokens: map[string][]float32{
			"cat":   {1, 0, 0},
			"music": {0, 1, 0},
			"piano": {0, 1, 0},
			"cook":  {0, 0, 1},
			"pasta": {0, 0, 1},
		},
	}
}

func (e *tokenEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, fmt.Errorf("%w: provider rejected text", types.ErrEncoding)
	}
	vec := make([]float32, 3)
	for token, basis := range e.tokens {
		if strings.Contains(text, token) {
			for i := range vec {
				vec[i] += basis[i]
			}
		}
	}
	return vec, nil
}

func (e *tokenEncoder) Dimension() int   { return 3 }
func (e *tokenEncoder) Provider() string { return "test" }
func (e *tokenEncoder) Close() error     { return nil }

// fakeSource serves a fixed slice of videos.
type fakeSource struct {
	videos   []types.Video
	fetchErr error
}

func (f *fakeSource) FetchPublished(context.Context) ([]types.Video, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.videos, nil
}

func (f *fakeSource) FetchByID(_ context.Context, id int64) (types.Video, error) {
	for _, v := range f.videos {
		if v.ID == id {
			return v, nil
		}
	}
	return types.Video{}, fmt.Errorf("%w: video %d", types.ErrNotFound, id)
}

func catVideo() types.Video {
	return types.Video{ID: 1, Title: "Cat Playing Piano", Description: "a talented cat", Category: "music"}
}

func pastaVideo() types.Video {
	return types.Video{ID: 2, Title: "How to Cook Pasta", Description: "simple dinner", Category: "food"}
}

func newTestService(t *testing.T, enc *tokenEncoder, src VideoSource) (*Service, string) {
	t.Helper()
	indexPath := filepath.Join(t.TempDir(), "index.json")
	store := index.NewStore(indexPath, zerolog.Nop())
	svc := New(enc, store, src, Config{}, zerolog.Nop())
	require.NoError(t, svc.Initialize(context.Background()))
	return svc, indexPath
}

func TestSemanticSearchRanksRelevantVideoFirst(t *testing.T) {
	enc := newTokenEncoder()
	svc, _ := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo(), pastaVideo()}})

	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	results, err := svc.SemanticSearch(context.Background(), "cat music", 10, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(1), results[0].VideoID)
	assert.GreaterOrEqual(t, results[0].Similarity, 0.5)
	for _, r := range results {
		assert.NotEqual(t, int64(2), r.VideoID, "unrelated video must stay below the threshold")
	}
}

func TestSemanticSearchEmptyQueryFailsBeforeEncoding(t *testing.T) {
	enc := newTokenEncoder()
	svc, _ := newTestService(t, enc, &fakeSource{})

	before := enc.calls.Load()
	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.SemanticSearch(context.Background(), query, 10, 0.5)
		assert.ErrorIs(t, err, types.ErrEmptyQuery)
	}
	assert.Equal(t, before, enc.calls.Load(), "blank queries must not reach the encoder")
}

func TestHybridSearchKeywordOnlyWeights(t *testing.T) {
	enc := newTokenEncoder()
	candidates := []types.Video{catVideo(), pastaVideo()}
	svc, _ := newTestService(t, enc, &fakeSource{videos: candidates})

	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	results, err := svc.HybridSearch(context.Background(), "pasta", candidates, 0, 1, 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(2), results[0].VideoID)
	assert.Greater(t, results[0].Keyword, 0.0)
}

func TestHybridSearchEmptyCandidates(t *testing.T) {
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{})

	results, err := svc.HybridSearch(context.Background(), "anything", nil, 0.7, 0.3, 10, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearchEmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{})

	_, err := svc.HybridSearch(context.Background(), "  ", []types.Video{catVideo()}, 0.7, 0.3, 10, "")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestHybridSearchUnknownSortOrder(t *testing.T) {
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{})

	_, err := svc.HybridSearch(context.Background(), "cat", []types.Video{catVideo()}, 0.7, 0.3, 10, "rating")
	assert.ErrorIs(t, err, types.ErrInvalidSort)
}

func TestHybridSearchSortByViews(t *testing.T) {
	enc := newTokenEncoder()
	candidates := []types.Video{
		{ID: 1, Title: "Cat Piano Basics", Category: "music", Views: 10},
		{ID: 2, Title: "Cat Piano Advanced", Category: "music", Views: 5000},
	}
	svc, _ := newTestService(t, enc, &fakeSource{videos: candidates})
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	results, err := svc.HybridSearch(context.Background(), "cat piano", candidates, 0.7, 0.3, 10, "views")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].VideoID, "most viewed video ranks first")
	assert.Equal(t, int64(1), results[1].VideoID)
}

func TestSemanticSearchZeroLimitUsesDefault(t *testing.T) {
	enc := newTokenEncoder()
	svc, _ := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo()}})
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	results, err := svc.SemanticSearch(context.Background(), "cat music", 0, 0.5)
	require.NoError(t, err)
	assert.NotEmpty(t, results, "limit 0 falls back to the configured default")
}

func TestStatusReflectsIndexState(t *testing.T) {
	enc := newTokenEncoder()
	svc, _ := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo()}})

	before := svc.Status()
	assert.Equal(t, "ready", before.State)
	assert.Equal(t, "test", before.Provider)
	assert.Equal(t, 0, before.IndexedVideos)
	assert.True(t, before.IndexUpdatedAt.IsZero(), "no save has happened yet")

	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	after := svc.Status()
	assert.Equal(t, 1, after.IndexedVideos)
	assert.False(t, after.IndexUpdatedAt.IsZero())
}

func TestRebuildEmptySetSkipsSave(t *testing.T) {
	svc, indexPath := newTestService(t, newTokenEncoder(), &fakeSource{})

	stats, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.VideosIndexed)
	assert.Equal(t, 0, stats.VideosFailed)

	_, err = os.Stat(indexPath)
	assert.True(t, os.IsNotExist(err), "empty rebuild must not write an index file")
}

func TestRebuildIsIdempotent(t *testing.T) {
	enc := newTokenEncoder()
	svc, _ := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo(), pastaVideo()}})

	first, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.VideosIndexed)

	second, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.VideosIndexed, second.VideosIndexed)
	assert.Equal(t, 2, svc.IndexedCount())

	r1, err := svc.SemanticSearch(context.Background(), "cat music", 10, 0.5)
	require.NoError(t, err)
	r2, err := svc.SemanticSearch(context.Background(), "cat music", 10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestRebuildPartialFailureIsolation(t *testing.T) {
	enc := newTokenEncoder()
	enc.failOn = "pasta"
	svc, _ := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo(), pastaVideo()}})

	stats, err := svc.Rebuild(context.Background())
	require.NoError(t, err, "a single failing video must not abort the rebuild")
	assert.Equal(t, 1, stats.VideosIndexed)
	assert.Equal(t, 1, stats.VideosFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "video 2")

	results, err := svc.SemanticSearch(context.Background(), "cat music", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].VideoID)
}

func TestRebuildPersistsAcrossRestart(t *testing.T) {
	enc := newTokenEncoder()
	src := &fakeSource{videos: []types.Video{catVideo()}}
	indexPath := filepath.Join(t.TempDir(), "index.json")

	svc := New(enc, index.NewStore(indexPath, zerolog.Nop()), src, Config{}, zerolog.Nop())
	require.NoError(t, svc.Initialize(context.Background()))
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	// Fresh service over the same index file sees the persisted records.
	restarted := New(enc, index.NewStore(indexPath, zerolog.Nop()), src, Config{}, zerolog.Nop())
	require.NoError(t, restarted.Initialize(context.Background()))
	assert.Equal(t, 1, restarted.IndexedCount())

	results, err := restarted.SemanticSearch(context.Background(), "cat music", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].VideoID)
}

func TestUpdateOne(t *testing.T) {
	enc := newTokenEncoder()
	svc, indexPath := newTestService(t, enc, &fakeSource{videos: []types.Video{catVideo()}})

	require.NoError(t, svc.UpdateOne(context.Background(), 1))
	assert.Equal(t, 1, svc.IndexedCount())

	_, err := os.Stat(indexPath)
	assert.NoError(t, err, "single update saves the index immediately")
}

func TestUpdateOneUnknownVideo(t *testing.T) {
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{})

	err := svc.UpdateOne(context.Background(), 404)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestOperationsRequireInitialize(t *testing.T) {
	store := index.NewStore(filepath.Join(t.TempDir(), "index.json"), zerolog.Nop())
	svc := New(newTokenEncoder(), store, &fakeSource{}, Config{}, zerolog.Nop())

	_, err := svc.SemanticSearch(context.Background(), "cat", 10, 0.5)
	assert.ErrorIs(t, err, types.ErrNotReady)

	_, err = svc.HybridSearch(context.Background(), "cat", []types.Video{catVideo()}, 0.7, 0.3, 10, "")
	assert.ErrorIs(t, err, types.ErrNotReady)

	_, err = svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, types.ErrNotReady)

	err = svc.UpdateOne(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrNotReady)
}

func TestInitializeIdempotentOnceReady(t *testing.T) {
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{})
	assert.Equal(t, StateReady, svc.State())
	assert.NoError(t, svc.Initialize(context.Background()))
	assert.Equal(t, StateReady, svc.State())
}

func TestRebuildFetchErrorSurfaces(t *testing.T) {
	wantErr := errors.New("db down")
	svc, _ := newTestService(t, newTokenEncoder(), &fakeSource{fetchErr: wantErr})

	_, err := svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestRebuildManyBatches(t *testing.T) {
	var videos []types.Video
	for i := int64(1); i <= 25; i++ {
		videos = append(videos, types.Video{ID: i, Title: fmt.Sprintf("cat clip %d", i), Category: "music"})
	}
	enc := newTokenEncoder()
	indexPath := filepath.Join(t.TempDir(), "index.json")
	store := index.NewStore(indexPath, zerolog.Nop())
	svc := New(enc, store, &fakeSource{videos: videos}, Config{BatchSize: 4, FlushEvery: 2}, zerolog.Nop())
	require.NoError(t, svc.Initialize(context.Background()))

	stats, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, stats.VideosIndexed)
	assert.Equal(t, 25, svc.IndexedCount())

	_, err = os.Stat(indexPath)
	assert.NoError(t, err)
}
