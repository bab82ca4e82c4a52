package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediaflow/internal/content"
)

// Seen reports whether entry was analysed at the same size and mtime.
func (s *Store) Seen(ctx context.Context, entry content.Entry) (bool, error) {
	ctx = ensureContext(ctx)
	var (
		size    int64
		modTime string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT size, mod_time FROM content_index WHERE path = ?`, entry.Path,
	).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query content index: %w", err)
	}
	return size == entry.Size && modTime == indexTime(entry.ModTime), nil
}

// Record upserts the analysis result for entry.
func (s *Store) Record(ctx context.Context, entry content.Entry, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.exec(ctx,
		`INSERT INTO content_index (path, size, mod_time, tags, analysed_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mod_time = excluded.mod_time,
		 tags = excluded.tags, analysed_at = excluded.analysed_at`,
		entry.Path, entry.Size, indexTime(entry.ModTime), string(encoded), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert content index: %w", err)
	}
	return nil
}

// Tags returns the stored tags for path, or nil when it was never analysed.
func (s *Store) Tags(ctx context.Context, path string) ([]string, error) {
	ctx = ensureContext(ctx)
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT tags FROM content_index WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

func indexTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

var _ content.Index = (*Store)(nil)
