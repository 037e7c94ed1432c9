package types

// Event type discriminators carried in the "type" field of every stream event.
const (
	EventTypeProgress = "progress"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

// StreamEvent is one message on a progress channel.
type StreamEvent interface {
	EventType() string
	// Terminal reports whether the event ends the channel.
	Terminal() bool
}

// ProgressEvent is a human-readable step notification.
type ProgressEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewProgressEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventTypeProgress, Message: message}
}

func (e ProgressEvent) EventType() string { return e.Type }
func (e ProgressEvent) Terminal() bool    { return false }

// Diagnostics carries failures that were recovered from during a run.
type Diagnostics struct {
	AIError         string `json:"aiError,omitempty"`
	CodeError       string `json:"codeError,omitempty"`
	ImageFetchError string `json:"imageFetchError,omitempty"`
}

// Empty reports whether no diagnostic was recorded.
func (d Diagnostics) Empty() bool {
	return d.AIError == "" && d.CodeError == "" && d.ImageFetchError == ""
}

// CompleteEvent ends a successful run.
type CompleteEvent struct {
	Type        string        `json:"type"`
	Spec        GeneratedPage `json:"spec"`
	PreviewURL  string        `json:"previewUrl"`
	RawText     string        `json:"rawText"`
	Steps       []string      `json:"steps,omitempty"`
	CodeHTML    *string       `json:"codeHtml,omitempty"`
	CodeCSS     *string       `json:"codeCss,omitempty"`
	CodeJS      *string       `json:"codeJs,omitempty"`
	CodeRawText *string       `json:"codeRawText,omitempty"`
	Diagnostics *Diagnostics  `json:"diagnostics,omitempty"`
}

func (e CompleteEvent) EventType() string { return e.Type }
func (e CompleteEvent) Terminal() bool    { return true }

// ErrorEvent ends a run that failed unexpectedly. Message never carries internal error details.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventTypeError, Message: message}
}

func (e ErrorEvent) EventType() string { return e.Type }
func (e ErrorEvent) Terminal() bool    { return true }
