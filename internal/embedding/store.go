// Package embedding implements a rebuildable vector-embedding index:
// markdown chunking, per-note/per-attachment upsert with
// delete-before-insert idempotence, cosine similarity query, and a
// resumable/cancellable full-rebuild protocol. The vector store itself is
// a separate embedded sqlite file rather than a networked Elasticsearch
// cluster — see DESIGN.md for why that substitution was made.
package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// Store is the embedded vector-store file. One row per chunk, embeddings
// packed as little-endian float32 blobs since sqlite has no native vector
// type.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS vector (
	vector_id TEXT PRIMARY KEY,
	note_id INTEGER NOT NULL,
	text TEXT NOT NULL,
	embedding BLOB NOT NULL,
	dimensions INTEGER NOT NULL,
	is_attachment INTEGER NOT NULL DEFAULT 0,
	create_time TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vector_note_id ON vector (note_id);
`

// Open opens (creating if needed) the sqlite file at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, platerrors.Wrap(platerrors.StorageError, "open vector store", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 serializes writers; avoid SQLITE_BUSY under concurrent upserts
	if _, err := db.Exec(schema); err != nil {
		return nil, platerrors.Wrap(platerrors.StorageError, "migrate vector store", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceNote deletes every existing chunk for noteID and inserts records,
// the delete-before-insert idempotence invariant of/: re-indexing a
// note never leaves stale chunks behind.
func (s *Store) ReplaceNote(ctx context.Context, noteID int64, records []domain.VectorRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return platerrors.Wrap(platerrors.StorageError, "begin vector tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM vector WHERE note_id = ? AND is_attachment = 0`, noteID); err != nil {
		return platerrors.Wrap(platerrors.StorageError, "delete existing note vectors", err)
	}

	for _, rec := range records {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return platerrors.Wrap(platerrors.StorageError, "commit vector tx", err)
	}
	return nil
}

// ReplaceAttachment deletes every existing chunk for a specific attachment
// vector-id prefix and inserts records, mirroring ReplaceNote for the
// attachment-indexing path.
func (s *Store) ReplaceAttachment(ctx context.Context, noteID int64, attachmentVectorPrefix string, records []domain.VectorRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return platerrors.Wrap(platerrors.StorageError, "begin vector tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		DELETE FROM vector WHERE note_id = ? AND is_attachment = 1 AND vector_id LIKE ?`,
		noteID, attachmentVectorPrefix+"%")
	if err != nil {
		return platerrors.Wrap(platerrors.StorageError, "delete existing attachment vectors", err)
	}

	for _, rec := range records {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return platerrors.Wrap(platerrors.StorageError, "commit vector tx", err)
	}
	return nil
}

// DeleteNote removes every vector (note and attachment chunks alike) for
// noteID, used when a note is purged.
func (s *Store) DeleteNote(ctx context.Context, noteID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vector WHERE note_id = ?`, noteID)
	if err != nil {
		return platerrors.Wrap(platerrors.StorageError, "delete note vectors", err)
	}
	return nil
}

func insertRecord(ctx context.Context, tx *sqlx.Tx, rec domain.VectorRecord) error {
	blob := encodeVector(rec.Embedding)
	isAttachment := 0
	if rec.IsAttachment {
		isAttachment = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO vector (vector_id, note_id, text, embedding, dimensions, is_attachment, create_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (vector_id) DO UPDATE SET
			text = excluded.text, embedding = excluded.embedding, dimensions = excluded.dimensions,
			updated_at = excluded.updated_at`,
		rec.VectorID, rec.NoteID, rec.Text, blob, len(rec.Embedding), isAttachment, rec.CreateTime, rec.UpdatedAt)
	if err != nil {
		return platerrors.Wrap(platerrors.StorageError, "insert vector record", err)
	}
	return nil
}

// Match is one scored search result.
type Match struct {
	domain.VectorRecord
	Score float64
}

// Query returns the topK chunks most similar to query by cosine similarity,
// scoring at least minScore, optionally excluding every note in
// excludeNoteIDs.
func (s *Store) Query(ctx context.Context, query []float32, topK int, minScore float64, excludeNoteIDs map[int64]bool) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT vector_id, note_id, text, embedding, is_attachment, create_time, updated_at FROM vector`)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.StorageError, "scan vector store", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var blob []byte
		var isAttachment int
		if err := rows.Scan(&m.VectorID, &m.NoteID, &m.Text, &blob, &isAttachment, &m.CreateTime, &m.UpdatedAt); err != nil {
			return nil, platerrors.Wrap(platerrors.StorageError, "scan vector row", err)
		}
		if excludeNoteIDs[m.NoteID] {
			continue
		}
		m.IsAttachment = isAttachment != 0
		score := cosineSimilarity(query, decodeVector(blob))
		if score < minScore {
			continue
		}
		m.Score = score
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, platerrors.Wrap(platerrors.StorageError, "iterate vector rows", err)
	}

	sortMatchesDesc(matches)
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CountForNote returns how many chunks currently exist for noteID. The
// rebuild protocol does not call it; it decides on the note's isIndexed
// flag instead.
func (s *Store) CountForNote(ctx context.Context, noteID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vector WHERE note_id = ?`, noteID)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.StorageError, "count vectors for note", err)
	}
	return count, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func sortMatchesDesc(matches []Match) {
	for i := 1; i < len(matches); i++ {
		j := i
		for j > 0 && matches[j-1].Score < matches[j].Score {
			matches[j-1], matches[j] = matches[j], matches[j-1]
			j--
		}
	}
}

// ErrDimensionMismatch names a query vector whose width differs from a
// stored vector's. Nothing in this package returns it: Query scores such a
// pair 0 instead.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// InferDimensions guesses an embedding model's output width from
// substrings in its name, for vendors whose model-list API does not report
// it directly.
func InferDimensions(modelKey string) int {
	key := strings.ToLower(modelKey)
	switch {
	case strings.Contains(key, "text-embedding-3-large"):
		return 3072
	case strings.Contains(key, "text-embedding-3-small"), strings.Contains(key, "text-embedding-ada-002"):
		return 1536
	case strings.Contains(key, "voyage-3-lite"):
		return 512
	case strings.Contains(key, "voyage"):
		return 1024
	case strings.Contains(key, "nomic-embed"):
		return 768
	case strings.Contains(key, "mxbai-embed-large"):
		return 1024
	case strings.Contains(key, "bge-m3"), strings.Contains(key, "bge-large"):
		return 1024
	case strings.Contains(key, "bge-small"), strings.Contains(key, "all-minilm"):
		return 384
	default:
		return 1536
	}
}
