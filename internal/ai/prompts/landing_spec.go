package prompts

import "fmt"

// GetScreenshotSpecPrompt is sent together with the screenshot (or its URL).
func GetScreenshotSpecPrompt() string {
	return `You are a product landing page copy and structure generator.
Analyze the uploaded screenshot and produce a concise JSON spec with:
title, hero {headline, subheadline, ctaText}, and 2-4 sections [{title, body}].
Keep text succinct, credible, and user-focused. Return only JSON.`
}

// GetPromptSpecSystemPrompt instructs the model for free-form prompt input.
func GetPromptSpecSystemPrompt() string {
	return `You are a product landing page copy and structure generator.
Produce only JSON with the following shape:
{ "title": "...", "hero": { "headline": "...", "subheadline": "...", "ctaText": "..." }, "sections": [{ "title": "...", "body": "..." }] }
Keep copy crisp, credible, and user-focused.`
}

// GetUserRequest wraps the raw user input.
func GetUserRequest(userPrompt string) string {
	return fmt.Sprintf("User request: %s", userPrompt)
}

// GetImageURLDescription stands in for the screenshot when it could not be downloaded.
func GetImageURLDescription(imageURL string) string {
	return fmt.Sprintf("Image URL: %s", imageURL)
}
