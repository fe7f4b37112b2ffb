package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// blinkoTypeToDomain maps the tool-facing type name to the persisted
// NoteType, "blinko" being the quick-capture flash note.
func blinkoTypeToDomain(t string) (domain.NoteType, error) {
	switch t {
	case "blinko", "":
		return domain.NoteTypeFlash, nil
	case "note":
		return domain.NoteTypeNote, nil
	case "todo":
		return domain.NoteTypeTodo, nil
	default:
		return "", platerrors.New(platerrors.ValidationFailed, "unknown blinko type: "+t)
	}
}

// UpsertBlinkoTool creates a note, or overwrites one if the caller supplies
// an existing id, on behalf of the resolved principal.
type UpsertBlinkoTool struct {
	notes *database.NoteRepository
}

// NewUpsertBlinkoTool wraps notes.
func NewUpsertBlinkoTool(notes *database.NoteRepository) *UpsertBlinkoTool {
	return &UpsertBlinkoTool{notes: notes}
}

func (t *UpsertBlinkoTool) Name() string { return "upsertBlinkoTool" }
func (t *UpsertBlinkoTool) Description() string { return "Create or overwrite a note." }
func (t *UpsertBlinkoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "integer", "description": "existing note id to overwrite, omit to create"},
			"content": map[string]any{"type": "string"},
			"type": map[string]any{"type": "string", "enum": []string{"blinko", "note", "todo"}},
		},
		"required": []string{"content"},
	}
}

type upsertBlinkoArgs struct {
	ID *int64 `json:"id,omitempty"`
	Content string `json:"content"`
	Type string `json:"type"`
}

func (t *UpsertBlinkoTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args upsertBlinkoArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode upsertBlinkoTool args", err)
	}
	noteType, err := blinkoTypeToDomain(args.Type)
	if err != nil {
		return "", err
	}

	if args.ID != nil {
		n, err := t.notes.GetByID(ctx, *args.ID, principal.AccountID)
		if err != nil {
			return "", err
		}
		n.Content = args.Content
		n.Type = noteType
		if err := t.notes.Update(ctx, n); err != nil {
			return "", err
		}
		return fmt.Sprintf("updated note %d", n.ID), nil
	}

	n := &domain.Note{OwnerID: principal.AccountID, Type: noteType, Content: args.Content}
	if err := t.notes.Create(ctx, n); err != nil {
		return "", err
	}
	return fmt.Sprintf("created note %d", n.ID), nil
}

// UpdateBlinkoTool edits an existing note's content, type, and flags.
type UpdateBlinkoTool struct {
	notes *database.NoteRepository
}

// NewUpdateBlinkoTool wraps notes.
func NewUpdateBlinkoTool(notes *database.NoteRepository) *UpdateBlinkoTool {
	return &UpdateBlinkoTool{notes: notes}
}

func (t *UpdateBlinkoTool) Name() string { return "updateBlinkoTool" }
func (t *UpdateBlinkoTool) Description() string { return "Edit an existing note's content and flags." }
func (t *UpdateBlinkoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "integer"},
			"content": map[string]any{"type": "string"},
			"type": map[string]any{"type": "string", "enum": []string{"blinko", "note", "todo"}},
			"isArchived": map[string]any{"type": "boolean"},
			"isTop": map[string]any{"type": "boolean"},
			"isShare": map[string]any{"type": "boolean"},
			"isRecycle": map[string]any{"type": "boolean"},
		},
		"required": []string{"id"},
	}
}

type updateBlinkoArgs struct {
	ID int64 `json:"id"`
	Content *string `json:"content,omitempty"`
	Type *string `json:"type,omitempty"`
	IsArchived *bool `json:"isArchived,omitempty"`
	IsTop *bool `json:"isTop,omitempty"`
	IsRecycle *bool `json:"isRecycle,omitempty"`
	// isShare has no persisted counterpart yet; accepted so the tool's
	// surface matches the model's expectations, silently ignored.
	IsShare *bool `json:"isShare,omitempty"`
}

func (t *UpdateBlinkoTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args updateBlinkoArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode updateBlinkoTool args", err)
	}

	n, err := t.notes.GetByID(ctx, args.ID, principal.AccountID)
	if err != nil {
		return "", err
	}
	if args.Content != nil {
		n.Content = *args.Content
	}
	if args.Type != nil {
		noteType, err := blinkoTypeToDomain(*args.Type)
		if err != nil {
			return "", err
		}
		n.Type = noteType
	}
	if args.IsTop != nil {
		n.IsTop = *args.IsTop
	}
	if err := t.notes.Update(ctx, n); err != nil {
		return "", err
	}

	if args.IsArchived != nil {
		if err := t.notes.SetArchived(ctx, n.ID, principal.AccountID, *args.IsArchived); err != nil {
			return "", err
		}
	}
	if args.IsRecycle != nil && *args.IsRecycle {
		if err := t.notes.MoveToRecycle(ctx, n.ID, principal.AccountID); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("updated note %d", n.ID), nil
}

// DeleteBlinkoTool soft-deletes notes, moving them to the recycle bin.
type DeleteBlinkoTool struct {
	notes *database.NoteRepository
}

// NewDeleteBlinkoTool wraps notes.
func NewDeleteBlinkoTool(notes *database.NoteRepository) *DeleteBlinkoTool {
	return &DeleteBlinkoTool{notes: notes}
}

func (t *DeleteBlinkoTool) Name() string { return "deleteBlinkoTool" }
func (t *DeleteBlinkoTool) Description() string { return "Move notes to the recycle bin." }
func (t *DeleteBlinkoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ids": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
		"required": []string{"ids"},
	}
}

type deleteBlinkoArgs struct {
	IDs []int64 `json:"ids"`
}

func (t *DeleteBlinkoTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args deleteBlinkoArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode deleteBlinkoTool args", err)
	}
	for _, id := range args.IDs {
		if err := t.notes.MoveToRecycle(ctx, id, principal.AccountID); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("recycled %d note(s)", len(args.IDs)), nil
}

// SearchBlinkoTool runs a structured note search, optionally backed by RAG
// retrieval instead of a filtered list scan.
type SearchBlinkoTool struct {
	notes *database.NoteRepository
	retriever Retriever
	config *database.AppConfigRepository
}

// NewSearchBlinkoTool wraps its dependencies.
func NewSearchBlinkoTool(notes *database.NoteRepository, retriever Retriever, config *database.AppConfigRepository) *SearchBlinkoTool {
	return &SearchBlinkoTool{notes: notes, retriever: retriever, config: config}
}

func (t *SearchBlinkoTool) Name() string { return "searchBlinkoTool" }
func (t *SearchBlinkoTool) Description() string { return "Search the caller's notes." }
func (t *SearchBlinkoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"searchText": map[string]any{"type": "string"},
			"type": map[string]any{"type": "string", "enum": []string{"blinko", "note", "todo"}},
			"isUseAiQuery": map[string]any{"type": "boolean"},
			"days": map[string]any{"type": "integer"},
		},
	}
}

type searchBlinkoArgs struct {
	SearchText string `json:"searchText"`
	Type string `json:"type,omitempty"`
	IsUseAiQuery bool `json:"isUseAiQuery,omitempty"`
	Days *int `json:"days,omitempty"`
}

func (t *SearchBlinkoTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args searchBlinkoArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode searchBlinkoTool args", err)
	}

	if args.IsUseAiQuery {
		if args.SearchText == "" {
			return "", platerrors.New(platerrors.ValidationFailed, "searchText is required for isUseAiQuery")
		}
		cfg, err := t.config.Get(ctx)
		if err != nil {
			return "", err
		}
		matches, err := t.retriever.Query(ctx, args.SearchText, cfg.EmbeddingTopK, cfg.EmbeddingScore, nil)
		if err != nil {
			return "", err
		}
		return aggregateContext(matches), nil
	}

	filter := domain.NoteListFilter{SearchText: args.SearchText, Size: 20}
	if args.Type != "" {
		noteType, err := blinkoTypeToDomain(args.Type)
		if err != nil {
			return "", err
		}
		filter.Type = &noteType
	}
	if args.Days != nil {
		end := time.Now()
		start := end.AddDate(0, 0, -*args.Days)
		filter.StartDate = &start
		filter.EndDate = &end
	}

	notes, err := t.notes.List(ctx, principal.AccountID, filter)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("marshal search results: %w", err)
	}
	return string(out), nil
}
