package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"landing_ai_server/internal/bundle"
	"landing_ai_server/internal/metrics"
	"landing_ai_server/internal/store"
	"landing_ai_server/internal/types"
	"landing_ai_server/internal/utils"
)

// Mode is how a run interprets its input.
type Mode string

const (
	ModeImage  Mode = "image"
	ModePrompt Mode = "prompt"
)

const (
	defaultProgressDelay = 350 * time.Millisecond
	maxIDAttempts        = 8
)

// Generator is the generation capability a run drives.
type Generator interface {
	HasCredential() bool
	GenerateSpecFromImageURL(ctx context.Context, imageURL string) (*types.GeneratedResult, error)
	GenerateSpecFromPrompt(ctx context.Context, userPrompt string) (*types.GeneratedResult, error)
	GenerateFullPage(ctx context.Context, userPrompt string) (*types.GeneratedCodeResult, error)
}

// Orchestrator runs the generate pipeline for one input at a time. It holds no
// per-run state, so one instance serves all requests.
type Orchestrator struct {
	generator     Generator
	pages         store.PageStore
	metrics       *metrics.GenerationMetrics
	tracer        trace.Tracer
	progressDelay time.Duration
	exportDir     string
	newID         func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgressDelay sets the pause after each progress event. Zero disables pacing.
func WithProgressDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d < 0 {
			d = 0
		}
		o.progressDelay = d
	}
}

// WithExportDir makes every run with generated code write its bundle below dir.
func WithExportDir(dir string) Option {
	return func(o *Orchestrator) { o.exportDir = dir }
}

// WithIDGenerator replaces the page id source.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// WithMetrics replaces the metrics recorder.
func WithMetrics(m *metrics.GenerationMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func NewOrchestrator(generator Generator, pages store.PageStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator:     generator,
		pages:         pages,
		tracer:        otel.Tracer("landing-pipeline"),
		progressDelay: defaultProgressDelay,
		newID:         NewPageID,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		m, err := metrics.NewGenerationMetrics()
		if err != nil {
			log.Printf("WARN: Generation metrics disabled: %v", err)
		}
		o.metrics = m
	}
	return o
}

// NewPageID returns 8 random lowercase alphanumeric characters.
func NewPageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// DetectMode classifies raw input. Absolute URLs with a host are screenshots;
// everything else is a prompt, including host-less absolute URLs such as
// "mailto:a@b.c" or "localhost:3000" (parsed as scheme "localhost"), since no
// screenshot can be fetched from them. The normalized URL is returned for
// image mode.
func DetectMode(input string) (Mode, string) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ModePrompt, ""
	}
	return ModeImage, u.String()
}

// Run executes one orchestration run, sending events in order and closing
// events after exactly one terminal event. Run does not return early when the
// consumer goes away; callers must keep draining events.
func (o *Orchestrator) Run(ctx context.Context, input string, events chan<- types.StreamEvent) {
	start := time.Now()
	mode, _ := DetectMode(input)

	ctx, span := o.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()
	if o.metrics != nil {
		o.metrics.RecordRunStarted(ctx, string(mode))
		defer o.metrics.RecordRunFinished(ctx, string(mode))
	}

	em := &emitter{events: events, delay: o.progressDelay}
	defer close(events)
	defer func() {
		if r := recover(); r != nil {
			o.abort(ctx, span, em, mode, start, fmt.Errorf("panic: %v", r))
		}
	}()

	outcome, err := o.run(ctx, input, em)
	if err != nil {
		o.abort(ctx, span, em, mode, start, err)
		return
	}
	if o.metrics != nil {
		o.metrics.RecordRunCompleted(ctx, string(mode), outcome, time.Since(start))
	}
}

// abort logs the real failure and ends the channel with a generic error event.
func (o *Orchestrator) abort(ctx context.Context, span trace.Span, em *emitter, mode Mode, start time.Time, err error) {
	log.Printf("ERROR: Generation run failed: %v", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "generation run failed")
	if em.send(types.NewErrorEvent(MsgUnexpectedError)) && o.metrics != nil {
		o.metrics.RecordRunFailed(ctx, string(mode), time.Since(start))
	}
}

func (o *Orchestrator) run(ctx context.Context, input string, em *emitter) (string, error) {
	mode, imageURL := DetectMode(input)
	if mode == ModeImage {
		em.progress(ctx, MsgDetectedScreenshot)
	} else {
		em.progress(ctx, MsgDetectedPrompt)
	}

	if !o.generator.HasCredential() {
		em.progress(ctx, MsgMissingAPIKey)
	}

	em.progress(ctx, MsgCallingModel)

	var (
		result  *types.GeneratedResult
		code    *types.GeneratedCodeResult
		specErr error
		codeErr error
	)
	if mode == ModeImage {
		result, specErr = o.generator.GenerateSpecFromImageURL(ctx, imageURL)
	} else {
		// Spec and code are independent: one failing never discards the other.
		var wg conc.WaitGroup
		wg.Go(func() { result, specErr = o.generator.GenerateSpecFromPrompt(ctx, input) })
		wg.Go(func() { code, codeErr = o.generator.GenerateFullPage(ctx, input) })
		wg.Wait()
		if codeErr == nil && code == nil {
			codeErr = errors.New("generator returned no code result")
		}
	}
	if specErr == nil && result == nil {
		specErr = errors.New("generator returned no spec result")
	}

	var diagnostics types.Diagnostics
	outcome := metrics.OutcomeGenerated
	if specErr != nil {
		log.Printf("WARN: Spec generation failed (%s mode), using default spec: %v", mode, specErr)
		diagnostics.AIError = specErr.Error()
		o.recordFallback(ctx, mode, "spec", specErr)
		em.progress(ctx, MsgFallback)
		result = &types.GeneratedResult{Spec: DefaultSpec()}
		outcome = metrics.OutcomeFallback
	} else {
		if result.ImageFetchError != "" {
			diagnostics.ImageFetchError = result.ImageFetchError
			em.progress(ctx, MsgImageFetchFailed)
		}
		em.progress(ctx, MsgDraftReady)
	}

	if codeErr != nil {
		log.Printf("WARN: Full page generation failed, preview will have no HTML: %v", codeErr)
		diagnostics.CodeError = codeErr.Error()
		o.recordFallback(ctx, mode, "code", codeErr)
		code = nil
		if specErr == nil {
			em.progress(ctx, MsgCodeFailed)
		}
	}

	em.progress(ctx, MsgAssembling)

	page := types.GeneratedPage{
		Title: result.Spec.Title,
		Hero: types.Hero{
			ImageURL:    imageURL,
			Headline:    result.Spec.Hero.Headline,
			Subheadline: result.Spec.Hero.Subheadline,
			CtaText:     result.Spec.Hero.CtaText,
		},
		Sections: result.Spec.Sections,
	}
	if page.Sections == nil {
		page.Sections = []types.Section{}
	}
	if code != nil {
		page.HTML = code.HTML
	}

	page, err := o.insertPage(page)
	if err != nil {
		return "", err
	}
	log.Printf("Stored generated page %s (%s mode, outcome %s)", page.ID, mode, outcome)

	if code != nil && o.exportDir != "" {
		if _, err := bundle.SaveFilesDisk(o.exportDir, page.ID, bundle.Files(*code)); err != nil {
			log.Printf("WARN: Failed to export bundle for page %s: %v", page.ID, err)
		}
	}

	complete := types.CompleteEvent{
		Type:       types.EventTypeComplete,
		Spec:       page,
		PreviewURL: "/preview/" + page.ID,
		RawText:    result.RawText,
	}
	if code != nil {
		complete.Steps = code.Steps
		complete.CodeHTML = &code.HTML
		complete.CodeCSS = code.CSS
		complete.CodeJS = code.JS
		complete.CodeRawText = &code.RawText
	}
	if !diagnostics.Empty() {
		complete.Diagnostics = &diagnostics
	}
	em.send(complete)

	return outcome, nil
}

// insertPage allocates a fresh id and stores the page under it. Ids already
// present in the store are never handed out again.
func (o *Orchestrator) insertPage(page types.GeneratedPage) (types.GeneratedPage, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		page.ID = o.newID()
		if page.ID == "" {
			continue
		}
		if o.pages.Insert(page.ID, page) {
			return page, nil
		}
		log.Printf("WARN: Page id %s already taken, drawing another", page.ID)
	}
	return page, fmt.Errorf("could not allocate a page id after %d attempts", maxIDAttempts)
}

func (o *Orchestrator) recordFallback(ctx context.Context, mode Mode, stage string, err error) {
	if o.metrics != nil {
		o.metrics.RecordFallback(ctx, string(mode), stage, utils.ClassifyError(err))
	}
}

// emitter enforces the channel contract: progress events only before the
// single terminal event, nothing after it.
type emitter struct {
	events   chan<- types.StreamEvent
	delay    time.Duration
	finished bool
}

// send delivers evt unless a terminal event was already sent. It reports whether evt was delivered.
func (e *emitter) send(evt types.StreamEvent) bool {
	if e.finished {
		return false
	}
	e.events <- evt
	if evt.Terminal() {
		e.finished = true
	}
	return true
}

// progress sends a progress event and pauses so clients can follow along.
func (e *emitter) progress(ctx context.Context, message string) {
	if !e.send(types.NewProgressEvent(message)) || e.delay <= 0 {
		return
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
