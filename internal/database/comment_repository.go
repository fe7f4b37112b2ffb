package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// CommentRepository persists domain.Comment rows, the store behind
// createCommentTool and the postProcessNote "comment" mode.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository wraps db.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and populates its ID/CreatedAt.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO comment (note_id, owner_id, content, guest_name)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		c.NoteID, c.OwnerID, c.Content, c.GuestName)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ForNote returns every comment bound to noteID, oldest first.
func (r *CommentRepository) ForNote(ctx context.Context, noteID int64) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.SelectContext(ctx, &comments, `
		SELECT id, note_id, owner_id, content, guest_name, created_at
		FROM comment WHERE note_id = $1 ORDER BY created_at`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list comments for note: %w", err)
	}
	return comments, nil
}
