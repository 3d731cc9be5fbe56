package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/timeline"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		cacheKey TEXT UNIQUE,
		fileName TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'upload',
		durationSec REAL NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		createdAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS analyses_createdAt ON analyses(createdAt DESC);
`

// Store provides access to the cadence SQLite database.
type Store struct {
	db *sql.DB
}

var _ ingest.Cache = (*Store)(nil)

// Open opens the database read-write, creating it and its schema if needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing database in read-only mode with WAL.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores r and returns its id. A record with the same cache key
// replaces the previous one but keeps its id.
func (s *Store) SaveAnalysis(ctx context.Context, r Record) (string, error) {
	payload, err := json.Marshal(r.Analysis)
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Source == "" {
		r.Source = ingest.SourceFile
	}
	var key sql.NullString
	if r.CacheKey != "" {
		key = sql.NullString{String: r.CacheKey, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO analyses (id, cacheKey, fileName, source, durationSec, payload, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cacheKey) DO UPDATE SET
			fileName = excluded.fileName,
			source = excluded.source,
			durationSec = excluded.durationSec,
			payload = excluded.payload,
			createdAt = excluded.createdAt
		RETURNING id
	`, r.ID, key, r.FileName, r.Source, r.Duration, string(payload), timeToUnix(r.CreatedAt))

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

const recordColumns = `id, cacheKey, fileName, source, durationSec, payload, createdAt`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var key sql.NullString
	var payload string
	var createdAt float64
	if err := row.Scan(&r.ID, &key, &r.FileName, &r.Source, &r.Duration, &payload, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &r.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", r.ID, err)
	}
	r.CacheKey = key.String
	r.CreatedAt = timeFromUnix(createdAt)
	return &r, nil
}

func (s *Store) one(ctx context.Context, where string, arg any) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM analyses WHERE `+where+` LIMIT 1`, arg)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	return r, nil
}

// AnalysisByID returns the record with the given id, or nil if none.
func (s *Store) AnalysisByID(ctx context.Context, id string) (*Record, error) {
	return s.one(ctx, `id = ?`, id)
}

// AnalysisByKey returns the record cached under key, or nil if none.
func (s *Store) AnalysisByKey(ctx context.Context, key string) (*Record, error) {
	return s.one(ctx, `cacheKey = ?`, key)
}

// RecentAnalyses returns up to limit records, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM analyses
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Lookup implements ingest.Cache.
func (s *Store) Lookup(ctx context.Context, key string) (timeline.Analysis, bool, error) {
	r, err := s.AnalysisByKey(ctx, key)
	if err != nil || r == nil {
		return timeline.Analysis{}, false, err
	}
	return r.Analysis, true, nil
}

// Save implements ingest.Cache.
func (s *Store) Save(ctx context.Context, key string, up ingest.Upload, a timeline.Analysis) error {
	duration := up.Duration
	if duration <= 0 {
		duration = timeline.TotalDuration(a.Segments, a.Pitch.Items, a.Stutter.Items)
	}
	_, err := s.SaveAnalysis(ctx, Record{
		CacheKey: key,
		FileName: up.Name,
		Source:   up.Source,
		Duration: duration,
		Analysis: a,
	})
	return err
}

func timeToUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
