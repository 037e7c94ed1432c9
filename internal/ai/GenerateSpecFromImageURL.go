package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"

	"landing_ai_server/internal/ai/prompts"
	"landing_ai_server/internal/types"
	"landing_ai_server/internal/utils"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxImageBytes   = 10 << 20
	defaultMimeType = "image/png"
)

// GenerateSpecFromImageURL drafts a landing page spec from a screenshot. The
// screenshot download is best effort: when it fails the model is given the URL
// as text instead and the failure is reported on the result.
func (g *Generator) GenerateSpecFromImageURL(ctx context.Context, imageURL string) (*types.GeneratedResult, error) {
	if !g.HasCredential() {
		return nil, ErrMissingAPIKey
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompts.GetScreenshotSpecPrompt()},
	}

	var fetchErrMsg string
	imageBytes, mimeType, err := g.fetchImage(ctx, imageURL)
	if err != nil {
		log.Printf("WARN: Could not fetch screenshot %s, falling back to URL description: %v", imageURL, err)
		fetchErrMsg = err.Error()
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: prompts.GetImageURLDescription(imageURL),
		})
	} else {
		dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
		})
	}

	rawText, err := g.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, MultiContent: parts},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("LLM raw output for screenshot spec: %s", rawText)

	var spec types.GeneratedSpec
	if err := ExtractJSONObject(rawText, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse landing page spec: %w", err)
	}

	return &types.GeneratedResult{Spec: spec, RawText: rawText, ImageFetchError: fetchErrMsg}, nil
}

// fetchImage downloads the screenshot and works out its mime type.
func (g *Generator) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := g.fetchClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("image request returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("image body is empty")
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return data, detectMimeType(resp.Header.Get("Content-Type"), imageURL), nil
}

// detectMimeType prefers the response header, then the URL extension, then PNG.
func detectMimeType(contentType, imageURL string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			return mediaType
		}
	}
	if u, err := url.Parse(imageURL); err == nil {
		if guessed := utils.DetermineImageMimeType(u.Path); guessed != "" {
			return guessed
		}
	}
	return defaultMimeType
}
