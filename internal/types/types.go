package types

// GeneratedFile represents a single file of an exported page bundle.
type GeneratedFile struct {
	Filename string `json:"filename"`
	Type     string `json:"type"` // e.g., "HTML", "CSS", "JavaScript"
	Content  string `json:"content"`
}

// Hero is the top block of a landing page.
type Hero struct {
	ImageURL    string `json:"imageUrl"`
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CtaText     string `json:"ctaText"`
}

// Section is one titled block of body copy. Order is generation order.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// GeneratedPage is what the store holds and the preview server renders.
type GeneratedPage struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Hero     Hero      `json:"hero"`
	Sections []Section `json:"sections"`
	HTML     string    `json:"html,omitempty"` // Only set when full-page code generation succeeded
}

// SpecHero mirrors Hero without the image URL, which the model never produces.
type SpecHero struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CtaText     string `json:"ctaText"`
}

// GeneratedSpec is the structured landing page description parsed from model text.
type GeneratedSpec struct {
	Title    string    `json:"title"`
	Hero     SpecHero  `json:"hero"`
	Sections []Section `json:"sections"`
}

// GeneratedResult is the outcome of a spec generation call.
type GeneratedResult struct {
	Spec    GeneratedSpec
	RawText string
	// ImageFetchError is set when the screenshot could not be downloaded and
	// the model only saw a text description of the URL.
	ImageFetchError string
}

// GeneratedCodeResult is the outcome of a full-page generation call.
type GeneratedCodeResult struct {
	Steps   []string
	HTML    string
	CSS     *string
	JS      *string
	RawText string
}
