package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

const defaultSystemPrompt = "You are a helpful personal knowledge assistant."

// PostProcessMode selects one of postProcessNote's four behaviors.
type PostProcessMode string

const (
	PostProcessComment PostProcessMode = "comment"
	PostProcessTags PostProcessMode = "tags"
	PostProcessSmartEdit PostProcessMode = "smartEdit"
	PostProcessCustom PostProcessMode = "custom"
	PostProcessBoth PostProcessMode = "both"
)

// Agent holds the dependencies the chat and post-processing flows draw on.
// cmd/brainhubd builds one Agent at startup and every request shares it;
// it is not rebuilt per request.
type Agent struct {
	facade *aiprovider.Facade
	providers *database.AIProviderRepository
	config *database.AppConfigRepository
	notes *database.NoteRepository
	tags *database.TagRepository
	comments *database.CommentRepository
	retriever Retriever
	resolver *PrincipalResolver
	registry *Registry
	log logger.Logger
}

// Deps bundles the Agent's dependencies, constructed once at process
// startup and shared across requests (the Agent itself holds no
// per-request state beyond what a method call threads through ctx).
type Deps struct {
	Facade *aiprovider.Facade
	Providers *database.AIProviderRepository
	Config *database.AppConfigRepository
	Notes *database.NoteRepository
	Tags *database.TagRepository
	Comments *database.CommentRepository
	Retriever Retriever
	Resolver *PrincipalResolver
	Registry *Registry
	Log logger.Logger
}

// New builds an Agent from deps.
func New(deps Deps) *Agent {
	return &Agent{
		facade: deps.Facade,
		providers: deps.Providers,
		config: deps.Config,
		notes: deps.Notes,
		tags: deps.Tags,
		comments: deps.Comments,
		retriever: deps.Retriever,
		resolver: deps.Resolver,
		registry: deps.Registry,
		log: deps.Log,
	}
}

// CompletionResult is what Completions hands back before streaming starts:
// the `{notes}` handshake payload of completion flow.
type CompletionResult struct {
	Notes []*domain.Note
	Chunks <-chan ChatChunk
}

// Completions runs the chat flow described in: append question and
// system messages, optionally retrieve RAG context, then stream the
// model's reply.
func (a *Agent) Completions(
	ctx context.Context,
	question string,
	conversation []ChatMessage,
	withTools, withRAG bool,
	systemPrompt string,
) (CompletionResult, error) {
	principal, err := a.resolver.Resolve(ctx)
	if err != nil {
		return CompletionResult{}, err
	}

	cfg, err := a.config.Get(ctx)
	if err != nil {
		return CompletionResult{}, err
	}
	if systemPrompt == "" {
		systemPrompt = cfg.GlobalPrompt
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	messages := append(append([]ChatMessage{}, conversation...), ChatMessage{Role: "user", Content: question})
	messages = append(messages,
		ChatMessage{Role: "system", Content: "Today is " + time.Now().UTC().Format(time.RFC3339)},
		ChatMessage{Role: "system", Content: systemPrompt},
	)

	var notes []*domain.Note
	if withRAG {
		matches, err := a.retriever.Query(ctx, question, cfg.EmbeddingTopK, cfg.EmbeddingScore, nil)
		if err != nil {
			return CompletionResult{}, err
		}
		if len(matches) > 0 {
			messages = append(messages, ChatMessage{Role: "system", Content: aggregateContext(matches)})
			notes, err = a.hydrateNotes(ctx, principal.AccountID, matchedNoteIDs(matches))
			if err != nil {
				return CompletionResult{}, err
			}
		}
	}

	if withTools && a.registry != nil {
		messages, err = a.runToolPass(ctx, principal, messages)
		if err != nil {
			a.log.Warn("tool pass failed, continuing without it", logger.Error(err))
		}
	}

	llm, err := a.llm(ctx, cfg)
	if err != nil {
		return CompletionResult{}, err
	}
	chunks, err := llm.Stream(ctx, messages)
	if err != nil {
		return CompletionResult{}, err
	}

	return CompletionResult{Notes: notes, Chunks: chunks}, nil
}

func (a *Agent) hydrateNotes(ctx context.Context, ownerID int64, ids []int64) ([]*domain.Note, error) {
	notes := make([]*domain.Note, 0, len(ids))
	for _, id := range ids {
		n, err := a.notes.GetByID(ctx, id, ownerID)
		if err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// runToolPass gives the model one opportunity to invoke a tool before the
// final streamed reply, by asking for a single JSON tool-call object and
// executing it if one comes back. This keeps the tool surface usable
// without building a full multi-round function-calling loop on top of the
// facade's plain chat interface.
func (a *Agent) runToolPass(ctx context.Context, principal Principal, messages []ChatMessage) ([]ChatMessage, error) {
	specs := a.registry.Specs(ctx)
	if len(specs) == 0 {
		return messages, nil
	}
	manifest, err := json.Marshal(specs)
	if err != nil {
		return messages, fmt.Errorf("marshal tool manifest: %w", err)
	}

	probe := append(append([]ChatMessage{}, messages...), ChatMessage{
		Role: "system",
		Content: "Available tools: " + string(manifest) +
			". If calling one helps answer, reply with exactly one JSON object" +
			` {"tool":"<name>","args":{...}} and nothing else. Otherwise reply "none".`,
	})

	cfg, err := a.config.Get(ctx)
	if err != nil {
		return messages, err
	}
	llm, err := a.llm(ctx, cfg)
	if err != nil {
		return messages, err
	}
	result, err := llm.Complete(ctx, probe)
	if err != nil {
		return messages, err
	}

	var call struct {
		Tool string `json:"tool"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Content)), &call); err != nil || call.Tool == "" {
		return messages, nil
	}

	output, err := a.registry.Call(ctx, principal, call.Tool, call.Args)
	if err != nil {
		return messages, fmt.Errorf("run tool %s: %w", call.Tool, err)
	}
	return append(messages, ChatMessage{Role: "system", Content: fmt.Sprintf("Tool %s returned: %s", call.Tool, output)}), nil
}

func (a *Agent) llm(ctx context.Context, cfg domain.GlobalAIConfig) (aiprovider.LLM, error) {
	modelCfg, err := resolveModelConfig(ctx, a.providers, cfg.MainModelID)
	if err != nil {
		return nil, err
	}
	return a.facade.GetLanguageModel(modelCfg)
}

// PostProcessNote runs one of the four automated note-enrichment modes
//.
func (a *Agent) PostProcessNote(ctx context.Context, noteID int64, mode PostProcessMode) error {
	principal, err := a.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	cfg, err := a.config.Get(ctx)
	if err != nil {
		return err
	}
	note, err := a.notes.GetByID(ctx, noteID, principal.AccountID)
	if err != nil {
		return err
	}

	switch mode {
	case PostProcessComment:
		return a.postProcessComment(ctx, principal, note, cfg)
	case PostProcessTags:
		return a.postProcessTags(ctx, principal, note, cfg)
	case PostProcessSmartEdit:
		return a.postProcessSmartEdit(ctx, principal, note, cfg)
	case PostProcessCustom:
		return a.postProcessCustom(ctx, principal, note, cfg)
	case PostProcessBoth:
		return a.postProcessBoth(ctx, principal, note, cfg)
	default:
		return platerrors.New(platerrors.ValidationFailed, "unknown post-process mode: "+string(mode))
	}
}

func (a *Agent) postProcessBoth(ctx context.Context, principal Principal, note *domain.Note, cfg domain.GlobalAIConfig) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = a.postProcessComment(ctx, principal, note, cfg) }()
	go func() { defer wg.Done(); errs[1] = a.postProcessTags(ctx, principal, note, cfg) }()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) postProcessComment(ctx context.Context, principal Principal, note *domain.Note, cfg domain.GlobalAIConfig) error {
	llm, err := a.llm(ctx, cfg)
	if err != nil {
		return err
	}
	prompt := cfg.AICommentPrompt
	if prompt == "" {
		prompt = "Write one short, useful comment on this note."
	}
	result, err := llm.Complete(ctx, []ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: note.Content},
	})
	if err != nil {
		return err
	}
	return a.comments.Create(ctx, &domain.Comment{NoteID: note.ID, OwnerID: principal.AccountID, Content: result.Content})
}

func (a *Agent) postProcessTags(ctx context.Context, principal Principal, note *domain.Note, cfg domain.GlobalAIConfig) error {
	llm, err := a.llm(ctx, cfg)
	if err != nil {
		return err
	}
	prompt := cfg.AITagsPrompt
	if prompt == "" {
		prompt = "List 1-5 short tags for this note, comma-separated, no punctuation."
	}
	result, err := llm.Complete(ctx, []ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: note.Content},
	})
	if err != nil {
		return err
	}

	var hashtags []string
	for _, raw := range strings.Split(result.Content, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		tag, err := a.tags.Create(ctx, name, nil)
		if err != nil {
			return err
		}
		if err := a.tags.AttachToNote(ctx, tag.ID, note.ID); err != nil {
			return err
		}
		hashtags = append(hashtags, "#"+name)
	}
	if len(hashtags) == 0 {
		return nil
	}
	note.Content = note.Content + "\n\n" + strings.Join(hashtags, " ")
	return a.notes.Update(ctx, note)
}

func (a *Agent) postProcessSmartEdit(ctx context.Context, principal Principal, note *domain.Note, cfg domain.GlobalAIConfig) error {
	prompt := cfg.AISmartEditPrompt
	if prompt == "" {
		prompt = "Improve this note in place using the available tools."
	}
	_, err := a.Completions(ctx, note.Content, nil, true, false, prompt)
	return err
}

func (a *Agent) postProcessCustom(ctx context.Context, principal Principal, note *domain.Note, cfg domain.GlobalAIConfig) error {
	tags, err := a.tags.ForNote(ctx, note.ID)
	if err != nil {
		return err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	prompt := cfg.AICustomPrompt
	prompt = strings.ReplaceAll(prompt, "{tags}", strings.Join(names, ", "))
	prompt = strings.ReplaceAll(prompt, "{note}", note.Content)

	_, err = a.Completions(ctx, prompt, nil, true, false, prompt)
	return err
}
