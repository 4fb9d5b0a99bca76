package videostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ThisaraAriyawansha/vueon-search/internal/document"
	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// Store is a read-mostly view over the videos table. The search engine
// treats it as the source of truth for video metadata; the embedding
// index is derived from it.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '',
	transcript  TEXT NOT NULL DEFAULT '',
	duration    INTEGER NOT NULL DEFAULT 0,
	views       INTEGER NOT NULL DEFAULT 0,
	like_count  INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'published'
);
CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status);
`

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Open opens (or creates) the videos database at dbPath and ensures the
// schema exists.
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "videostore").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for test seeding.
func (s *Store) DB() *sql.DB {
	return s.db
}

const selectColumns = `id, title, description, category, tags, transcript, duration, views, like_count`

// FetchPublished returns every published video, ordered by ID. Rows whose
// tags column cannot be parsed are skipped with a warning rather than
// failing the whole fetch; a rebuild should index everything it can.
func (s *Store) FetchPublished(ctx context.Context) ([]types.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM videos WHERE status = 'published' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query published videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var videos []types.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			if errors.Is(err, types.ErrDocumentBuild) {
				s.logger.Warn().Err(err).Msg("skipping video with malformed tags")
				continue
			}
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate published videos: %w", err)
	}

	return videos, nil
}

// FetchByID returns a single published video. A missing or unpublished
// row returns types.ErrNotFound; malformed tags surface as
// types.ErrDocumentBuild since a single-video update must not silently
// index partial metadata.
func (s *Store) FetchByID(ctx context.Context, id int64) (types.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM videos WHERE id = ? AND status = 'published'`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Video{}, fmt.Errorf("%w: video %d", types.ErrNotFound, id)
	}
	if err != nil {
		return types.Video{}, err
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (types.Video, error) {
	var (
		v       types.Video
		rawTags string
	)
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Category, &rawTags,
		&v.Transcript, &v.Duration, &v.Views, &v.LikeCount); err != nil {
		return types.Video{}, err
	}

	tags, err := document.ParseTags(rawTags)
	if err != nil {
		return types.Video{}, fmt.Errorf("video %d: %w", v.ID, err)
	}
	v.Tags = tags

	return v, nil
}
