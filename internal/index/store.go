package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// Meta is the metadata snapshot stored alongside each embedding. It is a
// copy taken at index time, not a live view of the video row.
type Meta struct {
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	Views     int64     `json:"views"`
	LikeCount int64     `json:"like_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is one indexed video: its embedding vector plus the metadata
// snapshot. Records are always replaced wholesale, never patched.
type Record struct {
	Embedding []float32 `json:"embedding"`
	Meta      Meta      `json:"metadata"`
}

// Entry pairs a record with its video ID for iteration.
type Entry struct {
	ID     string
	Record Record
}

// Store is the embedding index: an in-memory map from video ID (string form
// of the integer ID) to Record, persisted as a single JSON file. The index
// is a rebuildable cache, not a source of truth; a crash between a mutation
// and the next Save loses only unflushed upserts.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	dim     int // established by the first upsert, 0 until then

	saveMu sync.Mutex // serializes Save against itself
	path   string
	logger zerolog.Logger
}

// persisted file layout: a single key→record store with bookkeeping.
type indexFile struct {
	Entries   map[string]Record `json:"entries"`
	Dimension int               `json:"dimension,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewStore creates an empty store that will persist to path. Call Load to
// hydrate from a previous run.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		records: make(map[string]Record),
		path:    path,
		logger:  logger,
	}
}

// Get returns the record for a video ID.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Upsert replaces the record for id wholesale. The first record establishes
// the index dimensionality; later records of a different length are
// rejected with types.ErrDimensionMismatch rather than silently corrupting
// cosine math against existing entries.
func (s *Store) Upsert(id string, rec Record) error {
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for video %s", types.ErrDimensionMismatch, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	} else if len(rec.Embedding) != s.dim {
		return fmt.Errorf("%w: got %d, index has %d (video %s)",
			types.ErrDimensionMismatch, len(rec.Embedding), s.dim, id)
	}

	// Own the vector so caller reuse of the slice cannot mutate the index.
	vec := make([]float32, len(rec.Embedding))
	copy(vec, rec.Embedding)
	rec.Embedding = vec

	s.records[id] = rec
	return nil
}

// Remove deletes the record for id, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	if len(s.records) == 0 {
		s.dim = 0
	}
}

// Len returns the number of indexed videos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the established embedding length, or 0 for an empty
// index.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Entries returns a snapshot of the index sorted by ascending numeric video
// ID. Upserts after the call are not reflected in the returned slice, so
// iteration is safe against concurrent writers. The sorted order is what
// makes ranking tie-breaks deterministic: equal scores order by lower ID.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.records))
	for id, rec := range s.records {
		entries = append(entries, Entry{ID: id, Record: rec})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, aerr := strconv.ParseInt(entries[i].ID, 10, 64)
		b, berr := strconv.ParseInt(entries[j].ID, 10, 64)
		if aerr == nil && berr == nil {
			return a < b
		}
		return entries[i].ID < entries[j].ID
	})

	return entries
}

// Load hydrates the store from disk. A missing or corrupt file is not an
// error: the service starts cold with an empty index and a logged warning,
// and the next rebuild repopulates it.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).
			Msg("embedding index unreadable, starting with empty index")
		return nil
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).
			Msg("embedding index corrupt, starting with empty index")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = file.Entries
	if s.records == nil {
		s.records = make(map[string]Record)
	}
	s.dim = file.Dimension
	if s.dim == 0 {
		for _, rec := range s.records {
			s.dim = len(rec.Embedding)
			break
		}
	}

	return nil
}

// Save serializes the whole index atomically: marshal a snapshot, write to
// a temp file in the same directory, then rename over the previous file.
// A crash mid-write leaves the previous save intact. Saves are exclusive
// against each other but never block concurrent reads or upserts for the
// duration of the disk write.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	file := indexFile{
		Entries:   make(map[string]Record, len(s.records)),
		Dimension: s.dim,
		UpdatedAt: time.Now().UTC(),
	}
	for id, rec := range s.records {
		file.Entries[id] = rec
	}
	s.mu.RUnlock()

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("%w: marshal index: %v", types.ErrIndexIO, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create index dir: %v", types.ErrIndexIO, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", types.ErrIndexIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write index: %v", types.ErrIndexIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", types.ErrIndexIO, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace index file: %v", types.ErrIndexIO, err)
	}

	return nil
}

// UpdatedAt returns the last save time from disk, or zero time if unknown.
func (s *Store) UpdatedAt() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
