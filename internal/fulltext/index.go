// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext maintains a local SQLite FTS5 index over paper full
// text. Providers without native fulltext search use it to resolve a
// fulltext term into a set of matching paper identifiers.
package fulltext

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Index is a local fulltext index keyed by paper identifier. An
// identifier is whatever the caller uses to recognize papers later,
// typically a DOI or a provider-native ID.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path, creating parent
// directories as needed.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createSchema() error {
	if _, err := idx.db.Exec(
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL
		)`,
	); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := idx.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists != 0 {
		return nil
	}

	statements := []string{
		`CREATE VIRTUAL TABLE documents_fts USING fts5(content, content=documents, content_rowid=rowid)`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, stmt := range statements {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Add stores or replaces the full text for a paper. Re-adding the same
// paperID overwrites the previous content.
func (idx *Index) Add(ctx context.Context, paperID, content string) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO documents (paper_id, content) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET content=excluded.content`,
		paperID, content,
	)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", paperID, err)
	}
	return nil
}

// Search returns the identifiers of papers whose full text matches the
// FTS5 query term, ranked by relevance. A limit of 0 means no limit.
func (idx *Index) Search(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := idx.db.QueryContext(ctx,
		`SELECT d.paper_id
		 FROM documents_fts
		 JOIN documents d ON d.rowid = documents_fts.rowid
		 WHERE documents_fts MATCH ?
		 ORDER BY documents_fts.rank
		 LIMIT ?`,
		term, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of indexed documents.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}
