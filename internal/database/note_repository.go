package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// ErrNoteNotFound is returned when a note id does not resolve to a row.
var ErrNoteNotFound = errors.New("note not found")

// NoteRepository persists domain.Note rows, grounded on the monorepo's
// Repository pattern (pipeline/internal/database/repository.go): one
// struct wrapping *sqlx.DB, one method per query, %w-wrapped errors.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository wraps db.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a note and populates its ID/timestamps.
func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshal note metadata: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO note (owner_id, type, content, is_top, sort_order, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		n.OwnerID, n.Type, n.Content, n.IsTop, n.SortOrder, metadata)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Update replaces a note's editable fields.
func (r *NoteRepository) Update(ctx context.Context, n *domain.Note) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshal note metadata: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE note SET content = $1, is_top = $2, sort_order = $3, metadata = $4, type = $7, updated_at = now()
		WHERE id = $5 AND owner_id = $6`,
		n.Content, n.IsTop, n.SortOrder, metadata, n.ID, n.OwnerID, n.Type)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireRowsAffected(res, ErrNoteNotFound)
}

// SetArchived toggles the archive flag ( notes.archive).
func (r *NoteRepository) SetArchived(ctx context.Context, id, ownerID int64, archived bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE note SET is_archived = $1, updated_at = now() WHERE id = $2 AND owner_id = $3`,
		archived, id, ownerID)
	if err != nil {
		return fmt.Errorf("set note archived: %w", err)
	}
	return requireRowsAffected(res, ErrNoteNotFound)
}

// MoveToRecycle soft-deletes a note ( notes.delete).
func (r *NoteRepository) MoveToRecycle(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE note SET is_recycle = true, updated_at = now() WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("recycle note: %w", err)
	}
	return requireRowsAffected(res, ErrNoteNotFound)
}

// Purge hard-deletes a note that is already in the recycle bin.
func (r *NoteRepository) Purge(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM note WHERE id = $1 AND owner_id = $2 AND is_recycle = true`, id, ownerID)
	if err != nil {
		return fmt.Errorf("purge note: %w", err)
	}
	return requireRowsAffected(res, ErrNoteNotFound)
}

// GetByID fetches a single note owned by ownerID.
func (r *NoteRepository) GetByID(ctx context.Context, id, ownerID int64) (*domain.Note, error) {
	var row noteRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, owner_id, type, content, created_at, updated_at, is_archived, is_recycle, is_top, sort_order, metadata
		FROM note WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return row.toDomain()
}

// MarkIndexed updates the isIndexed/isAttachmentsIndexed metadata flags the
// embedding engine uses to decide whether a note needs (re)indexing.
func (r *NoteRepository) MarkIndexed(ctx context.Context, id int64, indexed, attachmentsIndexed bool) error {
	metadata, err := json.Marshal(domain.NoteMetadata{IsIndexed: indexed, IsAttachmentsIndexed: attachmentsIndexed})
	if err != nil {
		return fmt.Errorf("marshal note metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE note SET metadata = $1 WHERE id = $2`, metadata, id)
	if err != nil {
		return fmt.Errorf("mark note indexed: %w", err)
	}
	return nil
}

// List returns notes matching filter, page-bounded, for notes.list.
func (r *NoteRepository) List(ctx context.Context, ownerID int64, filter domain.NoteListFilter) ([]*domain.Note, error) {
	query, args := buildNoteListQuery(ownerID, filter)

	var rows []noteRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(rows))
	for _, row := range rows {
		n, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// AllIndexableIDs returns the ids of every non-recycled note for a full
// rebuild pass.
func (r *NoteRepository) AllIndexableIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM note WHERE owner_id = $1 AND is_recycle = false ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list indexable notes: %w", err)
	}
	return ids, nil
}

// ArchiveOlderThan archives every non-recycled, non-archived note created
// before the cutoff, for ArchiveJob's periodic sweep. It returns the
// number of notes archived.
func (r *NoteRepository) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE note SET is_archived = true, updated_at = now()
		WHERE is_archived = false AND is_recycle = false AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive old notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func buildNoteListQuery(ownerID int64, f domain.NoteListFilter) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}
	b.WriteString(`SELECT id, owner_id, type, content, created_at, updated_at, is_archived, is_recycle, is_top, sort_order, metadata
		FROM note WHERE owner_id = $1`)

	if f.Type != nil {
		args = append(args, *f.Type)
		fmt.Fprintf(&b, " AND type = $%d", len(args))
	}
	if f.IsArchived != nil {
		args = append(args, *f.IsArchived)
		fmt.Fprintf(&b, " AND is_archived = $%d", len(args))
	}
	if f.IsRecycle != nil {
		args = append(args, *f.IsRecycle)
		fmt.Fprintf(&b, " AND is_recycle = $%d", len(args))
	} else {
		b.WriteString(" AND is_recycle = false")
	}
	if f.SearchText != "" {
		args = append(args, "%"+f.SearchText+"%")
		fmt.Fprintf(&b, " AND content ILIKE $%d", len(args))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		fmt.Fprintf(&b, " AND created_at >= $%d", len(args))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		fmt.Fprintf(&b, " AND created_at <= $%d", len(args))
	}

	orderBy := "is_top DESC, sort_order DESC, id DESC"
	if f.OrderBy == "createdAt" {
		orderBy = "is_top DESC, created_at DESC"
	}
	b.WriteString(" ORDER BY " + orderBy)

	size := f.Size
	if size <= 0 {
		size = 20
	}
	page := f.Page
	if page < 0 {
		page = 0
	}
	args = append(args, size, page*size)
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return b.String(), args
}

// noteRow mirrors domain.Note but scans metadata as raw JSON before
// unmarshalling into the typed NoteMetadata struct.
type noteRow struct {
	ID int64 `db:"id"`
	OwnerID int64 `db:"owner_id"`
	Type domain.NoteType `db:"type"`
	Content string `db:"content"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
	IsArchived bool `db:"is_archived"`
	IsRecycle bool `db:"is_recycle"`
	IsTop bool `db:"is_top"`
	SortOrder int64 `db:"sort_order"`
	Metadata json.RawMessage `db:"metadata"`
}

func (row noteRow) toDomain() (*domain.Note, error) {
	var metadata domain.NoteMetadata
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal note metadata: %w", err)
		}
	}
	return &domain.Note{
		ID: row.ID,
		OwnerID: row.OwnerID,
		Type: row.Type,
		Content: row.Content,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
		IsArchived: row.IsArchived,
		IsRecycle: row.IsRecycle,
		IsTop: row.IsTop,
		SortOrder: row.SortOrder,
		Metadata: metadata,
	}, nil
}

func requireRowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
