// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poiesic/docflow/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source_key TEXT NOT NULL UNIQUE,
	project TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	content TEXT NOT NULL,
	token_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(document_id, position)
);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS document_tags (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (document_id, tag_id)
);

CREATE TABLE IF NOT EXISTS chunk_tags (
	chunk_id TEXT NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (chunk_id, tag_id)
);
`

// Store implements catalog.Catalog on SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ catalog.Catalog = (*Store)(nil)

// NewStore opens (creating if necessary) a catalog database at dbPath.
// The parent directory is created when missing.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Store{
		db:     db,
		path:   dbPath,
		logger: slog.Default().With("component", "catalog"),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// GetDocument retrieves a document by source key.
// Returns (nil, nil) when no document exists.
func (s *Store) GetDocument(ctx context.Context, sourceKey string) (*catalog.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_key, project, company, content_hash, created_at, updated_at
		FROM documents WHERE source_key = ?
	`, sourceKey)

	var doc catalog.Document
	if err := row.Scan(&doc.ID, &doc.SourceKey, &doc.Project, &doc.Company,
		&doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	tags, err := s.documentTags(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Tags = tags

	return &doc, nil
}

// UpsertDocument writes a document and replaces its chunks.
// A matching content hash short-circuits without touching any rows.
func (s *Store) UpsertDocument(ctx context.Context, doc *catalog.Document, chunks []catalog.Chunk) (*catalog.UpsertResult, error) {
	if doc.SourceKey == "" {
		return nil, catalog.ErrEmptySourceKey
	}

	var existingID, existingHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, content_hash FROM documents WHERE source_key = ?",
		doc.SourceKey).Scan(&existingID, &existingHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("looking up document: %w", err)
	}

	if existingID != "" && existingHash == doc.ContentHash {
		s.logger.Debug("content unchanged, skipping rewrite",
			"sourceKey", doc.SourceKey, "documentId", existingID)
		return &catalog.UpsertResult{DocumentID: existingID, Unchanged: true}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	docID := existingID

	if existingID != "" {
		// Content changed. Update the row and drop child rows; cascades
		// clear chunk_tags along with the chunks.
		_, err = tx.ExecContext(ctx, `
			UPDATE documents SET project = ?, company = ?, content_hash = ?, updated_at = ?
			WHERE id = ?
		`, doc.Project, doc.Company, doc.ContentHash, now, existingID)
		if err != nil {
			return nil, fmt.Errorf("updating document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", existingID); err != nil {
			return nil, fmt.Errorf("deleting old chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM document_tags WHERE document_id = ?", existingID); err != nil {
			return nil, fmt.Errorf("deleting old document tags: %w", err)
		}
	} else {
		docID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, source_key, project, company, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, docID, doc.SourceKey, doc.Project, doc.Company, doc.ContentHash, now, now)
		if err != nil {
			return nil, fmt.Errorf("inserting document: %w", err)
		}
	}

	for _, name := range doc.Tags {
		tagID, err := getOrCreateTag(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO document_tags (document_id, tag_id) VALUES (?, ?)",
			docID, tagID)
		if err != nil {
			return nil, fmt.Errorf("linking document tag: %w", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, token_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range chunks {
		chunkID := uuid.NewString()
		if _, err := chunkStmt.ExecContext(ctx, chunkID, docID,
			chunk.Position, chunk.Content, chunk.TokenCount); err != nil {
			return nil, fmt.Errorf("inserting chunk: %w", err)
		}

		for _, name := range chunk.Tags {
			tagID, err := getOrCreateTag(ctx, tx, name)
			if err != nil {
				return nil, err
			}
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO chunk_tags (chunk_id, tag_id) VALUES (?, ?)",
				chunkID, tagID)
			if err != nil {
				return nil, fmt.Errorf("linking chunk tag: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("document upserted",
		"sourceKey", doc.SourceKey, "documentId", docID, "chunks", len(chunks))
	return &catalog.UpsertResult{DocumentID: docID, Unchanged: false}, nil
}

// GetChunks retrieves chunk rows for a document, ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]catalog.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, content, token_count
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []catalog.Chunk
	var chunkIDs []string
	for rows.Next() {
		var chunk catalog.Chunk
		var id string
		if err := rows.Scan(&id, &chunk.Position, &chunk.Content, &chunk.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
		chunkIDs = append(chunkIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	for i, id := range chunkIDs {
		tags, err := s.chunkTags(ctx, id)
		if err != nil {
			return nil, err
		}
		chunks[i].Tags = tags
	}

	return chunks, nil
}

// DeleteDocument removes a document and, via cascade, its chunks and tag links.
func (s *Store) DeleteDocument(ctx context.Context, sourceKey string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE source_key = ?", sourceKey)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns all catalog documents with their tags.
func (s *Store) ListDocuments(ctx context.Context) ([]catalog.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_key, project, company, content_hash, created_at, updated_at
		FROM documents ORDER BY source_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []catalog.Document
	for rows.Next() {
		var doc catalog.Document
		if err := rows.Scan(&doc.ID, &doc.SourceKey, &doc.Project, &doc.Company,
			&doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	for i := range docs {
		tags, err := s.documentTags(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Tags = tags
	}

	return docs, nil
}

// documentTags loads the tag names linked to a document, sorted by name.
func (s *Store) documentTags(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN document_tags dt ON dt.tag_id = t.id
		WHERE dt.document_id = ?
		ORDER BY t.name
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying document tags: %w", err)
	}
	defer rows.Close()

	return scanTagNames(rows)
}

// chunkTags loads the tag names linked to a chunk, sorted by name.
func (s *Store) chunkTags(ctx context.Context, chunkID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN chunk_tags ct ON ct.tag_id = t.id
		WHERE ct.chunk_id = ?
		ORDER BY t.name
	`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("querying chunk tags: %w", err)
	}
	defer rows.Close()

	return scanTagNames(rows)
}

func scanTagNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return names, nil
}

// getOrCreateTag resolves a tag name to its id, creating the row when
// missing. Lookup is case-insensitive; the stored name keeps the casing of
// its first writer.
func getOrCreateTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up tag: %w", err)
	}

	id = uuid.NewString()
	if _, err := tx.ExecContext(ctx, "INSERT INTO tags (id, name) VALUES (?, ?)", id, name); err != nil {
		return "", fmt.Errorf("inserting tag: %w", err)
	}
	return id, nil
}
