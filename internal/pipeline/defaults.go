package pipeline

import "landing_ai_server/internal/types"

// Progress messages, in the order a run emits them.
const (
	MsgDetectedScreenshot = "Detected screenshot URL"
	MsgDetectedPrompt     = "Detected free-form prompt"
	MsgMissingAPIKey      = "API key missing – using defaults"
	MsgCallingModel       = "Calling the model to draft the page spec and code"
	MsgImageFetchFailed   = "Screenshot could not be fetched – describing the URL instead"
	MsgDraftReady         = "AI draft ready"
	MsgFallback           = "AI failed — using a sensible default"
	MsgCodeFailed         = "Code generation failed, preview will show the spec only"
	MsgAssembling         = "Assembling preview"

	// MsgUnexpectedError is the only text a client ever sees for an aborted run.
	MsgUnexpectedError = "Unexpected error"
)

// DefaultSpec is substituted whenever spec generation fails.
func DefaultSpec() types.GeneratedSpec {
	return types.GeneratedSpec{
		Title: "Generated Landing Page",
		Hero: types.SpecHero{
			Headline:    "Grow your audience with clear storytelling",
			Subheadline: "Turn ideas into a compelling personal brand with simple, effective content systems.",
			CtaText:     "Get Started",
		},
		Sections: []types.Section{
			{
				Title: "What you’ll get",
				Body:  "A clean hero, clear value props, and a focused call-to-action. Optimized for speed and clarity.",
			},
			{
				Title: "Why it works",
				Body:  "Less fluff, more signal. Build credibility with social proof and results that speak for themselves.",
			},
		},
	}
}
