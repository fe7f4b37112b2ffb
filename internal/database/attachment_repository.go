package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// ErrAttachmentNotFound is returned when an attachment id does not resolve.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentRepository persists domain.Attachment rows. File bytes
// themselves live in the BlobStore (internal/storage); this repository
// only tracks the row pointing at a blob path.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository wraps db.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts an attachment row.
func (r *AttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal attachment metadata: %w", err)
	}
	err = r.db.QueryRowxContext(ctx, `
		INSERT INTO attachment (note_id, owner_id, path, name, size, type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		a.NoteID, a.OwnerID, a.Path, a.Name, a.Size, a.Type, metadata).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// SetMetadata overwrites an attachment's typed metadata, used by the
// image-caption and audio-transcription extractors to record their output.
func (r *AttachmentRepository) SetMetadata(ctx context.Context, id int64, metadata domain.AttachmentMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal attachment metadata: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE attachment SET metadata = $1 WHERE id = $2`, payload, id)
	if err != nil {
		return fmt.Errorf("update attachment metadata: %w", err)
	}
	return requireRowsAffected(res, ErrAttachmentNotFound)
}

// ForNote returns every attachment bound to noteID.
func (r *AttachmentRepository) ForNote(ctx context.Context, noteID int64) ([]*domain.Attachment, error) {
	var rows []attachmentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, note_id, owner_id, path, name, size, type, metadata
		FROM attachment WHERE note_id = $1 ORDER BY id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for note: %w", err)
	}
	return toAttachments(rows)
}

// GetByID fetches a single attachment.
func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	var row attachmentRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, note_id, owner_id, path, name, size, type, metadata
		FROM attachment WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return row.toDomain()
}

// Delete removes an attachment row; the caller is responsible for removing
// the underlying blob via storage.BlobStore first.
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return requireRowsAffected(res, ErrAttachmentNotFound)
}

type attachmentRow struct {
	ID int64 `db:"id"`
	NoteID *int64 `db:"note_id"`
	OwnerID int64 `db:"owner_id"`
	Path string `db:"path"`
	Name string `db:"name"`
	Size int64 `db:"size"`
	Type string `db:"type"`
	Metadata json.RawMessage `db:"metadata"`
}

func (row attachmentRow) toDomain() (*domain.Attachment, error) {
	var metadata domain.AttachmentMetadata
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal attachment metadata: %w", err)
		}
	}
	return &domain.Attachment{
		ID: row.ID, NoteID: row.NoteID, OwnerID: row.OwnerID,
		Path: row.Path, Name: row.Name, Size: row.Size, Type: row.Type,
		Metadata: metadata,
	}, nil
}

func toAttachments(rows []attachmentRow) ([]*domain.Attachment, error) {
	out := make([]*domain.Attachment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
