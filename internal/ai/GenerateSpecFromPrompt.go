package ai

import (
	"context"
	"fmt"
	"log"

	"landing_ai_server/internal/ai/prompts"
	"landing_ai_server/internal/types"

	openai "github.com/sashabaranov/go-openai"
)

// GenerateSpecFromPrompt drafts a landing page spec from a free-form description.
func (g *Generator) GenerateSpecFromPrompt(ctx context.Context, userPrompt string) (*types.GeneratedResult, error) {
	rawText, err := g.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompts.GetPromptSpecSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompts.GetUserRequest(userPrompt)},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("LLM raw output for prompt spec: %s", rawText)

	var spec types.GeneratedSpec
	if err := ExtractJSONObject(rawText, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse landing page spec: %w", err)
	}

	return &types.GeneratedResult{Spec: spec, RawText: rawText}, nil
}
