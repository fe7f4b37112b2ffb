package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// CreateCommentTool appends a comment to a note.
type CreateCommentTool struct {
	comments *database.CommentRepository
}

// NewCreateCommentTool wraps comments.
func NewCreateCommentTool(comments *database.CommentRepository) *CreateCommentTool {
	return &CreateCommentTool{comments: comments}
}

func (t *CreateCommentTool) Name() string { return "createCommentTool" }
func (t *CreateCommentTool) Description() string { return "Add a comment to a note." }
func (t *CreateCommentTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{"type": "string"},
			"noteId": map[string]any{"type": "integer"},
			"guestName": map[string]any{"type": "string"},
		},
		"required": []string{"content", "noteId"},
	}
}

type createCommentArgs struct {
	Content string `json:"content"`
	NoteID int64 `json:"noteId"`
	GuestName string `json:"guestName,omitempty"`
}

func (t *CreateCommentTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args createCommentArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode createCommentTool args", err)
	}
	if args.Content == "" {
		return "", platerrors.New(platerrors.ValidationFailed, "content is required")
	}

	c := &domain.Comment{
		NoteID: args.NoteID,
		OwnerID: principal.AccountID,
		Content: args.Content,
		GuestName: args.GuestName,
	}
	if err := t.comments.Create(ctx, c); err != nil {
		return "", err
	}
	return fmt.Sprintf("created comment %d on note %d", c.ID, c.NoteID), nil
}
