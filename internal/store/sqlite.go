// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// SQLite implements Adapter on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the topic database at cfg.Path and
// creates the schema if it does not exist.
func NewSQLite(cfg types.StoreConfig) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			slug TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			parent_slug TEXT,
			depth INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			last_researched TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_topics_parent ON topics(parent_slug)`,
		`CREATE TABLE IF NOT EXISTS contents (
			topic_slug TEXT NOT NULL REFERENCES topics(slug),
			content_type TEXT NOT NULL,
			user_level TEXT NOT NULL,
			style TEXT NOT NULL,
			result TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (topic_slug, content_type, user_level, style)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertTopic inserts or replaces a topic record keyed by slug.
func (s *SQLite) UpsertTopic(ctx context.Context, rec TopicRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (slug, title, parent_slug, depth, status, last_researched)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			title=excluded.title, parent_slug=excluded.parent_slug,
			depth=excluded.depth, status=excluded.status,
			last_researched=excluded.last_researched`,
		rec.Slug, rec.Title, rec.ParentSlug, rec.Depth,
		string(rec.Status), formatTime(rec.LastResearched),
	)
	if err != nil {
		return fmt.Errorf("upserting topic %s: %w", rec.Slug, err)
	}
	return nil
}

// FindTopicBySlug returns the topic with the given slug, or
// ErrNotFound.
func (s *SQLite) FindTopicBySlug(ctx context.Context, slug string) (TopicRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT slug, title, parent_slug, depth, status, last_researched
		 FROM topics WHERE slug = ?`, slug)
	return scanTopic(row)
}

// FindTopicsByParent returns the direct children of parentSlug,
// ordered by slug for deterministic listings.
func (s *SQLite) FindTopicsByParent(ctx context.Context, parentSlug string) ([]TopicRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, title, parent_slug, depth, status, last_researched
		 FROM topics WHERE parent_slug = ? ORDER BY slug`, parentSlug)
	if err != nil {
		return nil, fmt.Errorf("querying children of %s: %w", parentSlug, err)
	}
	defer rows.Close()

	var recs []TopicRecord
	for rows.Next() {
		rec, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Hierarchy returns the topic rooted at slug with children attached
// up to maxDepth levels below the root. maxDepth zero returns only
// the root.
func (s *SQLite) Hierarchy(ctx context.Context, slug string, maxDepth int) (TopicNode, error) {
	root, err := s.FindTopicBySlug(ctx, slug)
	if err != nil {
		return TopicNode{}, err
	}

	node := TopicNode{TopicRecord: root}
	if maxDepth <= 0 {
		return node, nil
	}

	children, err := s.FindTopicsByParent(ctx, slug)
	if err != nil {
		return TopicNode{}, err
	}
	for _, child := range children {
		sub, err := s.Hierarchy(ctx, child.Slug, maxDepth-1)
		if err != nil {
			return TopicNode{}, err
		}
		node.Children = append(node.Children, sub)
	}
	return node, nil
}

// UpsertContent inserts or replaces a content record keyed by
// (topic slug, content type, user level, style).
func (s *SQLite) UpsertContent(ctx context.Context, rec ContentRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encoding content for %s: %w", rec.TopicSlug, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contents (topic_slug, content_type, user_level, style, result, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(topic_slug, content_type, user_level, style) DO UPDATE SET
			result=excluded.result, updated_at=excluded.updated_at`,
		rec.TopicSlug, rec.ContentType, rec.UserLevel, rec.Style,
		string(resultJSON), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting content for %s: %w", rec.TopicSlug, err)
	}
	return nil
}

// FindContent returns the content record for the given key, or
// ErrNotFound.
func (s *SQLite) FindContent(ctx context.Context, topicSlug, contentType, userLevel, style string) (ContentRecord, error) {
	var (
		rec        ContentRecord
		resultJSON string
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT topic_slug, content_type, user_level, style, result, updated_at
		 FROM contents
		 WHERE topic_slug = ? AND content_type = ? AND user_level = ? AND style = ?`,
		topicSlug, contentType, userLevel, style,
	).Scan(&rec.TopicSlug, &rec.ContentType, &rec.UserLevel, &rec.Style, &resultJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return ContentRecord{}, ErrNotFound
	}
	if err != nil {
		return ContentRecord{}, fmt.Errorf("querying content for %s: %w", topicSlug, err)
	}

	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return ContentRecord{}, fmt.Errorf("decoding content for %s: %w", topicSlug, err)
	}
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (TopicRecord, error) {
	var (
		rec            TopicRecord
		parentSlug     sql.NullString
		status         string
		lastResearched sql.NullString
	)
	err := row.Scan(&rec.Slug, &rec.Title, &parentSlug, &rec.Depth, &status, &lastResearched)
	if err == sql.ErrNoRows {
		return TopicRecord{}, ErrNotFound
	}
	if err != nil {
		return TopicRecord{}, fmt.Errorf("scanning topic row: %w", err)
	}

	rec.Status = types.ResearchStatus(status)
	if parentSlug.Valid {
		rec.ParentSlug = parentSlug.String
	}
	if lastResearched.Valid {
		rec.LastResearched = parseTime(lastResearched.String)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
