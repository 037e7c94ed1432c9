package utils

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Error classes reported on fallback metrics.
const (
	ErrorClassRateLimit  = "rate_limit"
	ErrorClassServer     = "server"
	ErrorClassClient     = "client"
	ErrorClassTimeout    = "timeout"
	ErrorClassNetwork    = "network"
	ErrorClassCredential = "credential"
	ErrorClassOther      = "other"
)

// ClassifyError buckets a generation failure for metrics and logs.
// Generation is never retried; this only labels what went wrong.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	// Check for specific OpenAI error types first
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "api key"):
		return ErrorClassCredential
	case strings.Contains(errMsg, "rate limit"):
		return ErrorClassRateLimit
	case strings.Contains(errMsg, "timeout"),
		strings.Contains(errMsg, "deadline exceeded"):
		return ErrorClassTimeout
	case strings.Contains(errMsg, "connection reset by peer"),
		strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"):
		return ErrorClassNetwork
	}
	return ErrorClassOther
}

func classifyStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassCredential
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	}
	return ErrorClassOther
}

// DetermineFileType labels a bundle file by its extension.
func DetermineFileType(filename string) string {
	lowerFilename := strings.ToLower(filename)
	ext := filepath.Ext(lowerFilename)
	switch ext {
	case ".html", ".htm":
		return "HTML"
	case ".css":
		return "CSS"
	case ".js", ".mjs":
		return "JavaScript"
	case ".json":
		return "JSON"
	case ".md":
		return "Markdown"
	case ".txt":
		return "Text"
	case ".svg":
		return "SVG"
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "Image"
	default:
		return "Unknown"
	}
}

// DetermineImageMimeType guesses an image mime type from a URL path or file
// name. Empty when the extension is not a known image type.
func DetermineImageMimeType(name string) string {
	// Drop query string and fragment so "shot.png?v=2" still resolves
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".bmp":
		return "image/bmp"
	default:
		return ""
	}
}
