package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"landing_ai_server/internal/ai/prompts"
	"landing_ai_server/internal/types"

	openai "github.com/sashabaranov/go-openai"
)

// GenerateFullPage asks the model for a runnable page: build steps, html and optional css/js.
func (g *Generator) GenerateFullPage(ctx context.Context, userPrompt string) (*types.GeneratedCodeResult, error) {
	rawText, err := g.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompts.GetFullPageSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompts.GetUserRequest(userPrompt)},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("LLM raw output for full page: %d bytes", len(rawText))

	var obj map[string]any
	if err := ExtractJSONObject(rawText, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse full page output: %w", err)
	}

	return &types.GeneratedCodeResult{
		Steps:   coerceSteps(obj["steps"]),
		HTML:    coerceString(obj["html"]),
		CSS:     coerceOptionalString(obj["css"]),
		JS:      coerceOptionalString(obj["js"]),
		RawText: rawText,
	}, nil
}

// coerceSteps keeps an array as an ordered list of strings. Anything that is
// not an array yields an empty list.
func coerceSteps(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	steps := make([]string, 0, len(items))
	for _, item := range items {
		steps = append(steps, coerceString(item))
	}
	return steps
}

// coerceString turns any decoded JSON value into text; null becomes "".
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, float64:
		return fmt.Sprint(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

// coerceOptionalString returns nil for missing, null, false or empty values.
func coerceOptionalString(v any) *string {
	if v == nil || v == false || v == "" {
		return nil
	}
	s := coerceString(v)
	return &s
}
