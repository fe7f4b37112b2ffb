package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// ErrTagNotFound is returned when a tag id does not resolve to a row.
var ErrTagNotFound = errors.New("tag not found")

// TagRepository persists the hierarchical tag tree and its note bindings.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository wraps db.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a tag, optionally nested under parentID.
func (r *TagRepository) Create(ctx context.Context, name string, parentID *int64) (*domain.Tag, error) {
	t := &domain.Tag{Name: name, ParentID: parentID}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO tag (name, parent_id) VALUES ($1, $2) RETURNING id`, name, parentID).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

// Children returns the direct children of parentID (nil lists root tags).
func (r *TagRepository) Children(ctx context.Context, parentID *int64) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	var err error
	if parentID == nil {
		err = r.db.SelectContext(ctx, &tags, `SELECT id, name, parent_id FROM tag WHERE parent_id IS NULL ORDER BY name`)
	} else {
		err = r.db.SelectContext(ctx, &tags, `SELECT id, name, parent_id FROM tag WHERE parent_id = $1 ORDER BY name`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("list tag children: %w", err)
	}
	return tags, nil
}

// Descendants returns every tag in the subtree rooted at tagID, including
// tagID itself, via a recursive CTE walking the parent/child path.
func (r *TagRepository) Descendants(ctx context.Context, tagID int64) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := r.db.SelectContext(ctx, &tags, `
		WITH RECURSIVE subtree AS (
			SELECT id, name, parent_id FROM tag WHERE id = $1
			UNION ALL
			SELECT t.id, t.name, t.parent_id
			FROM tag t
			JOIN subtree s ON t.parent_id = s.id
		)
		SELECT id, name, parent_id FROM subtree`, tagID)
	if err != nil {
		return nil, fmt.Errorf("walk tag descendants: %w", err)
	}
	return tags, nil
}

// AttachToNote binds a tag to a note, idempotently.
func (r *TagRepository) AttachToNote(ctx context.Context, tagID, noteID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tag_edge (tag_id, note_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, tagID, noteID)
	if err != nil {
		return fmt.Errorf("attach tag to note: %w", err)
	}
	return nil
}

// DetachFromNote removes a tag/note binding.
func (r *TagRepository) DetachFromNote(ctx context.Context, tagID, noteID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tag_edge WHERE tag_id = $1 AND note_id = $2`, tagID, noteID)
	if err != nil {
		return fmt.Errorf("detach tag from note: %w", err)
	}
	return nil
}

// ForNote returns every tag bound to noteID.
func (r *TagRepository) ForNote(ctx context.Context, noteID int64) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := r.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.name, t.parent_id
		FROM tag t JOIN tag_edge e ON e.tag_id = t.id
		WHERE e.note_id = $1 ORDER BY t.name`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list tags for note: %w", err)
	}
	return tags, nil
}

// Delete removes a tag; ON DELETE CASCADE drops its edges and re-parents
// nothing, so callers should re-home children before deleting a parent tag.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tag WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireRowsAffected(res, ErrTagNotFound)
}
