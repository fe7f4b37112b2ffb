package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/retry"
)

const rebuildProgressKey = "embedding_rebuild"

// Engine is the vector-embedding index's facade: chunk, embed, upsert, query, and the
// resumable full-rebuild protocol.
type Engine struct {
	store *Store
	notes *database.NoteRepository
	attachments *database.AttachmentRepository
	progressRepo *database.ProgressCacheRepository
	embedder Embedder
	chunkCfg ChunkConfig
	log logger.Logger

	mu sync.Mutex
	running bool
	cancel context.CancelFunc
}

// NewEngine wires an Engine from its dependencies. embedder is supplied by
// the caller (cmd/brainhubd passes a ProviderEmbedder) rather than
// constructed here.
func NewEngine(
	store *Store,
	notes *database.NoteRepository,
	attachments *database.AttachmentRepository,
	progressRepo *database.ProgressCacheRepository,
	embedder Embedder,
	log logger.Logger,
) *Engine {
	return &Engine{
		store: store,
		notes: notes,
		attachments: attachments,
		progressRepo: progressRepo,
		embedder: embedder,
		chunkCfg: DefaultChunkConfig(),
		log: log,
	}
}

// UpsertNote re-chunks and re-embeds note's content, replacing any prior
// chunks for it, then marks the note indexed.
func (e *Engine) UpsertNote(ctx context.Context, note *domain.Note) error {
	chunks := ChunkMarkdown(note.Content, e.chunkCfg)
	if len(chunks) == 0 {
		if err := e.store.ReplaceNote(ctx, note.ID, nil); err != nil {
			return err
		}
		return e.notes.MarkIndexed(ctx, note.ID, true, note.Metadata.IsAttachmentsIndexed)
	}

	vectors, err := e.embedChunks(ctx, note.ID, chunks, false, "")
	if err != nil {
		return fmt.Errorf("embed note %d: %w", note.ID, err)
	}
	if err := e.store.ReplaceNote(ctx, note.ID, vectors); err != nil {
		return err
	}
	return e.notes.MarkIndexed(ctx, note.ID, true, note.Metadata.IsAttachmentsIndexed)
}

// UpsertAttachmentText re-chunks and re-embeds extracted attachment text
// (PDF/DOCX/image-caption/audio-transcript,), replacing only that
// attachment's prior chunks.
func (e *Engine) UpsertAttachmentText(ctx context.Context, noteID, attachmentID int64, text string) error {
	prefix := fmt.Sprintf("att-%d-", attachmentID)
	chunks := ChunkMarkdown(text, e.chunkCfg)
	if len(chunks) == 0 {
		return e.store.ReplaceAttachment(ctx, noteID, prefix, nil)
	}
	vectors, err := e.embedChunks(ctx, noteID, chunks, true, prefix)
	if err != nil {
		return fmt.Errorf("embed attachment %d: %w", attachmentID, err)
	}
	return e.store.ReplaceAttachment(ctx, noteID, prefix, vectors)
}

// DeleteNote removes every vector belonging to noteID, note and attachment
// chunks alike.
func (e *Engine) DeleteNote(ctx context.Context, noteID int64) error {
	return e.store.DeleteNote(ctx, noteID)
}

func (e *Engine) embedChunks(ctx context.Context, noteID int64, chunks []string, isAttachment bool, idPrefix string) ([]domain.VectorRecord, error) {
	var embeddings [][]float32
	err := retry.Retry(ctx, retry.DefaultConfig(), func() error {
		var innerErr error
		embeddings, innerErr = e.embedder.Embed(ctx, chunks)
		return innerErr
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.VectorRecord{
			VectorID: fmt.Sprintf("%s%d-%d", idPrefix, noteID, i),
			NoteID: noteID,
			Text: c,
			Embedding: embeddings[i],
			IsAttachment: isAttachment,
			CreateTime: now,
			UpdatedAt: now,
		}
	}
	return records, nil
}

// Query embeds text and returns the most similar chunks, honoring the
// global embedding top-k/score-threshold settings and an optional
// exclusion set of note ids (the "excludeEmbeddingTagId" note set,).
func (e *Engine) Query(ctx context.Context, text string, topK int, minScore float64, excludeNoteIDs map[int64]bool) ([]Match, error) {
	vecs, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return e.store.Query(ctx, vecs[0], topK, minScore, excludeNoteIDs)
}

// IsRunning reports whether a rebuild is currently in flight on this
// engine instance.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Stop requests cancellation of an in-flight rebuild; the rebuild persists
// its progress cache before returning. A later incremental Rebuild skips
// the notes the stopped run already indexed.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Progress returns the last persisted rebuild progress, if any.
func (e *Engine) Progress(ctx context.Context) (domain.RebuildProgress, bool, error) {
	var p domain.RebuildProgress
	found, err := e.progressRepo.Get(ctx, rebuildProgressKey, &p)
	return p, found, err
}

// Rebuild walks every indexable note for ownerID and re-embeds it,
// persisting a progress record after each note for Progress and
// RetryFailed. Rebuild itself starts a fresh record and does not read the
// previous one. When incremental is true, notes already marked isIndexed
// are skipped, so an incremental call after a crash or an explicit Stop
// picks up the notes the earlier run did not reach; a non-incremental call
// re-embeds every note.
func (e *Engine) Rebuild(ctx context.Context, ownerID int64, incremental bool) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("rebuild already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.mu.Unlock()
	}()

	ids, err := e.notes.AllIndexableIDs(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list indexable notes: %w", err)
	}

	progress := domain.RebuildProgress{
		Total: len(ids),
		IsRunning: true,
		StartTime: time.Now().UTC(),
		IsIncremental: incremental,
		LastUpdate: time.Now().UTC(),
	}

	for i, id := range ids {
		select {
		case <-ctx.Done():
			progress.IsRunning = false
			progress.RecordResult("stopped before completion")
			_ = e.progressRepo.Set(context.Background(), rebuildProgressKey, progress)
			return ctx.Err()
		default:
		}

		note, err := e.notes.GetByID(ctx, id, ownerID)
		if err != nil {
			progress.FailedNoteIDs = append(progress.FailedNoteIDs, id)
			progress.RecordResult(fmt.Sprintf("note %d: fetch failed: %v", id, err))
			e.touchProgress(ctx, &progress, i+1)
			continue
		}
		if incremental && note.Metadata.IsIndexed {
			progress.SkippedNoteIDs = append(progress.SkippedNoteIDs, id)
			e.touchProgress(ctx, &progress, i+1)
			continue
		}

		if err := e.UpsertNote(ctx, note); err != nil {
			progress.FailedNoteIDs = append(progress.FailedNoteIDs, id)
			progress.RecordResult(fmt.Sprintf("note %d: %v", id, err))
			e.log.Warn("rebuild: note failed", logger.Int64("note_id", id), logger.Error(err))
		} else {
			progress.ProcessedNoteIDs = append(progress.ProcessedNoteIDs, id)
			lastID := id
			progress.LastProcessedID = &lastID
		}
		e.touchProgress(ctx, &progress, i+1)
	}

	progress.IsRunning = false
	return e.progressRepo.Set(ctx, rebuildProgressKey, progress)
}

// RetryFailed re-runs the notes recorded as failed in the last rebuild
// pass, without touching notes that already succeeded or were skipped.
func (e *Engine) RetryFailed(ctx context.Context, ownerID int64) error {
	progress, found, err := e.Progress(ctx)
	if err != nil {
		return err
	}
	if !found || len(progress.FailedNoteIDs) == 0 {
		return nil
	}

	progress.RetryCount++
	stillFailed := make([]int64, 0, len(progress.FailedNoteIDs))
	for _, id := range progress.FailedNoteIDs {
		note, err := e.notes.GetByID(ctx, id, ownerID)
		if err != nil {
			stillFailed = append(stillFailed, id)
			progress.RecordResult(fmt.Sprintf("retry note %d: fetch failed: %v", id, err))
			continue
		}
		if err := e.UpsertNote(ctx, note); err != nil {
			stillFailed = append(stillFailed, id)
			progress.RecordResult(fmt.Sprintf("retry note %d: %v", id, err))
			continue
		}
		progress.ProcessedNoteIDs = append(progress.ProcessedNoteIDs, id)
	}
	progress.FailedNoteIDs = stillFailed
	progress.LastUpdate = time.Now().UTC()
	return e.progressRepo.Set(ctx, rebuildProgressKey, progress)
}

func (e *Engine) touchProgress(ctx context.Context, progress *domain.RebuildProgress, current int) {
	progress.Touch(current)
	if err := e.progressRepo.Set(ctx, rebuildProgressKey, progress); err != nil {
		e.log.Warn("rebuild: failed to persist progress", logger.Error(err))
	}
}
