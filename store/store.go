// Package store persists the assistant's passage index: the glossary and
// corpus passages together with their vector embeddings, backed by SQLite
// with the sqlite-vec extension.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New("store: closed")

// Document represents an indexed source file.
type Document struct {
	ID          int64
	Path        string
	ContentHash string
	Passages    int
}

// Passage is one retrievable unit of indexed text.
type Passage struct {
	ID         int64
	DocumentID int64
	Source     string // originating file name
	Heading    string // term or section heading, may be empty
	Content    string
	Position   int
}

// SearchResult is a passage with its similarity score.
type SearchResult struct {
	Passage
	Score float64
}

// Store wraps the SQLite database holding the passage index.
type Store struct {
	db     *sql.DB
	dim    int
	closed bool
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    content_hash TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS passages (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    source TEXT NOT NULL,
    heading TEXT,
    content TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_passages_document ON passages(document_id);
`

// New opens (or creates) the index database at path and initialises the
// schema, including the vec0 virtual table sized to dim.
func New(path string, dim int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging index database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	vecDDL := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_passages USING vec0(
    passage_id INTEGER PRIMARY KEY,
    embedding float[%d]
)`, dim)
	if _, err := db.Exec(vecDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector table: %w", err)
	}

	return &Store{db: db, dim: dim}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// GetDocumentByPath returns the indexed document for path, or sql.ErrNoRows.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (Document, error) {
	if s.closed {
		return Document{}, ErrClosed
	}
	var d Document
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.path, d.content_hash,
			(SELECT COUNT(*) FROM passages p WHERE p.document_id = d.id)
		FROM documents d WHERE d.path = ?`, path).
		Scan(&d.ID, &d.Path, &d.ContentHash, &d.Passages)
	return d, err
}

// UpsertDocument inserts or replaces the document row for path and removes
// any passages from a previous indexing of the same file.
func (s *Store) UpsertDocument(ctx context.Context, path, contentHash string) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	existing, err := s.GetDocumentByPath(ctx, path)
	if err == nil {
		if err := s.deletePassages(ctx, existing.ID); err != nil {
			return 0, err
		}
		_, err = s.db.ExecContext(ctx,
			"UPDATE documents SET content_hash = ? WHERE id = ?", contentHash, existing.ID)
		return existing.ID, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (path, content_hash) VALUES (?, ?)", path, contentHash)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	return res.LastInsertId()
}

// InsertPassage stores one passage with its embedding.
func (s *Store) InsertPassage(ctx context.Context, p Passage, embedding []float32) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(embedding) != s.dim {
		return 0, fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), s.dim)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO passages (document_id, source, heading, content, position)
		VALUES (?, ?, ?, ?, ?)`,
		p.DocumentID, p.Source, p.Heading, p.Content, p.Position)
	if err != nil {
		return 0, fmt.Errorf("inserting passage: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO vec_passages (passage_id, embedding) VALUES (?, ?)",
		id, serializeFloat32(embedding))
	if err != nil {
		return 0, fmt.Errorf("inserting embedding: %w", err)
	}
	return id, nil
}

// Search performs a KNN search and returns the k nearest passages with
// cosine distance converted to a similarity score.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.passage_id, v.distance,
			p.document_id, p.source, p.heading, p.content, p.position
		FROM vec_passages v
		JOIN passages p ON p.id = v.passage_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`,
		serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		var heading sql.NullString
		if err := rows.Scan(&r.ID, &distance, &r.DocumentID, &r.Source,
			&heading, &r.Content, &r.Position); err != nil {
			return nil, err
		}
		r.Heading = heading.String
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// PassageCount returns the total number of indexed passages.
func (s *Store) PassageCount(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n)
	return n, err
}

// Clear drops every indexed document, passage, and embedding.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	for _, stmt := range []string{
		"DELETE FROM vec_passages",
		"DELETE FROM passages",
		"DELETE FROM documents",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}
	return nil
}

func (s *Store) deletePassages(ctx context.Context, docID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM vec_passages WHERE passage_id IN (
			SELECT id FROM passages WHERE document_id = ?
		)`, docID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM passages WHERE document_id = ?", docID)
	return err
}

// HashBytes returns the hex SHA-256 of content, used for change detection.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// serializeFloat32 encodes a vector in the little-endian layout sqlite-vec
// expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
