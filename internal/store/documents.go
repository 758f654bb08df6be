// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
)

// DocumentStore indexes research notes for full-text retrieval. The
// planner searches it for prior notes when deriving a topic
// understanding.
type DocumentStore struct {
	s *SQLite
}

// NewDocumentStore creates the document tables on an open SQLite
// store if they do not exist.
func NewDocumentStore(s *SQLite) (*DocumentStore, error) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("creating document schema: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return nil, fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE documents_fts USING fts5(title, content, content=documents, content_rowid=rowid)`,
			`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
				INSERT INTO documents_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
			`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			END`,
			`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
				INSERT INTO documents_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return nil, fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return &DocumentStore{s: s}, nil
}

// StoreDocument inserts or replaces a document keyed by id.
func (d *DocumentStore) StoreDocument(ctx context.Context, id, title, content string) error {
	_, err := d.s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title=excluded.title, content=excluded.content`,
		id, title, content,
	)
	if err != nil {
		return fmt.Errorf("storing document %s: %w", id, err)
	}
	return nil
}

// SearchSimilar returns the contents of up to limit documents ranked
// by full-text relevance to the query. An empty or all-punctuation
// query returns no results.
func (d *DocumentStore) SearchSimilar(ctx context.Context, query string, limit int) ([]string, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := d.s.db.QueryContext(ctx,
		`SELECT doc.content
		 FROM documents_fts
		 JOIN documents doc ON doc.rowid = documents_fts.rowid
		 WHERE documents_fts MATCH ?
		 ORDER BY documents_fts.rank
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// ftsQuery converts free text into an FTS5 OR query of quoted terms,
// so punctuation in topic names cannot break the match syntax.
func ftsQuery(query string) string {
	var terms []string
	for _, field := range strings.Fields(query) {
		term := strings.Trim(field, `"'.,;:!?()[]{}`)
		if term == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(term, `"`, ``)+`"`)
	}
	return strings.Join(terms, " OR ")
}
