package agent

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

// RunScheduledPrompt runs prompt as a single-turn, non-streaming completion
// on behalf of the principal already resolved into ctx.
// scheduler.AIScheduledTaskJob's execution worker calls this once per
// firing of a user-scheduled AI task,
// after stashing the task's owner with WithAccountID — the same resolved-
// principal contract every tool call already relies on, just entered from a
// queue worker instead of an inbound request.
func (a *Agent) RunScheduledPrompt(ctx context.Context, prompt string) (string, error) {
	principal, err := a.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	cfg, err := a.config.Get(ctx)
	if err != nil {
		return "", err
	}

	messages := []ChatMessage{
		{Role: "system", Content: "Today is " + time.Now().UTC().Format(time.RFC3339)},
		{Role: "user", Content: prompt},
	}

	if a.registry != nil {
		messages, err = a.runToolPass(ctx, principal, messages)
		if err != nil {
			a.log.Warn("scheduled prompt tool pass failed, continuing without it", logger.Error(err))
		}
	}

	llm, err := a.llm(ctx, cfg)
	if err != nil {
		return "", err
	}
	result, err := llm.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}
