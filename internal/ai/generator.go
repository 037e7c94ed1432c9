package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned by every generation call while no credential is configured.
var ErrMissingAPIKey = errors.New("model API key is not set")

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("model returned empty response")

// Generator talks to an OpenAI-compatible chat completions endpoint.
type Generator struct {
	apiKey      func() string // Read on every call so credential changes apply without a restart
	baseURL     string
	modelID     string
	temperature float32
	fetchClient *http.Client // Used for screenshot downloads only
}

// NewGenerator creates a Generator. apiKey is consulted on every call; an empty
// baseURL keeps the go-openai default endpoint.
func NewGenerator(apiKey func() string, modelID, baseURL string, imageFetchTimeout time.Duration) *Generator {
	if imageFetchTimeout <= 0 {
		imageFetchTimeout = 15 * time.Second
	}
	return &Generator{
		apiKey:      apiKey,
		baseURL:     baseURL,
		modelID:     modelID,
		temperature: 0.7,
		fetchClient: &http.Client{
			Timeout: imageFetchTimeout,
		},
	}
}

// HasCredential reports whether an API key is currently configured.
func (g *Generator) HasCredential() bool {
	return g.apiKey != nil && g.apiKey() != ""
}

func (g *Generator) newClient() (*openai.Client, error) {
	if !g.HasCredential() {
		return nil, ErrMissingAPIKey
	}
	config := openai.DefaultConfig(g.apiKey())
	if g.baseURL != "" {
		config.BaseURL = g.baseURL
	}
	return openai.NewClientWithConfig(config), nil
}

// complete sends one chat completion round trip and returns the raw model text.
func (g *Generator) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	client, err := g.newClient()
	if err != nil {
		return "", err
	}

	resp, err := client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       g.modelID,
			Messages:    messages,
			Temperature: g.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Printf("Model usage for empty response: %+v", resp.Usage)
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
