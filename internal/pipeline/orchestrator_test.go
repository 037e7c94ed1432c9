package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"landing_ai_server/internal/ai"
	"landing_ai_server/internal/metrics"
	"landing_ai_server/internal/store"
	"landing_ai_server/internal/types"
)

var previewURLPattern = regexp.MustCompile(`^/preview/[a-z0-9]{8}$`)

// fakeGenerator returns canned results and records which operations ran.
type fakeGenerator struct {
	credential bool

	spec     *types.GeneratedResult
	specErr  error
	code     *types.GeneratedCodeResult
	codeErr  error
	panicMsg string

	imageCalls  atomic.Int32
	promptCalls atomic.Int32
	codeCalls   atomic.Int32
	lastImage   atomic.Value
}

func (f *fakeGenerator) HasCredential() bool { return f.credential }

func (f *fakeGenerator) GenerateSpecFromImageURL(ctx context.Context, imageURL string) (*types.GeneratedResult, error) {
	f.imageCalls.Add(1)
	f.lastImage.Store(imageURL)
	return f.spec, f.specErr
}

func (f *fakeGenerator) GenerateSpecFromPrompt(ctx context.Context, userPrompt string) (*types.GeneratedResult, error) {
	f.promptCalls.Add(1)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.spec, f.specErr
}

func (f *fakeGenerator) GenerateFullPage(ctx context.Context, userPrompt string) (*types.GeneratedCodeResult, error) {
	f.codeCalls.Add(1)
	return f.code, f.codeErr
}

func strPtr(s string) *string { return &s }

func bakeryResult() *types.GeneratedResult {
	return &types.GeneratedResult{
		RawText: `{"title":"Crumb & Co"}`,
		Spec: types.GeneratedSpec{
			Title:    "Crumb & Co",
			Hero:     types.SpecHero{Headline: "Bread", Subheadline: "Warm", CtaText: "Order"},
			Sections: []types.Section{{Title: "Starter", Body: "Old and bubbly"}},
		},
	}
}

func bakeryCode() *types.GeneratedCodeResult {
	return &types.GeneratedCodeResult{
		Steps:   []string{"Plan", "Build"},
		HTML:    "<!DOCTYPE html><h1>Crumb</h1>",
		CSS:     strPtr("h1{}"),
		RawText: "raw code",
	}
}

// runAndCollect executes one run and returns every event in order.
func runAndCollect(t *testing.T, o *Orchestrator, input string) []types.StreamEvent {
	t.Helper()
	events := make(chan types.StreamEvent, 4)
	go o.Run(context.Background(), input, events)

	var out []types.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, evt)
		case <-timeout:
			t.Fatal("run did not close its channel")
		}
	}
}

func progressMessages(events []types.StreamEvent) []string {
	var msgs []string
	for _, evt := range events {
		if p, ok := evt.(types.ProgressEvent); ok {
			msgs = append(msgs, p.Message)
		}
	}
	return msgs
}

// assertSingleTerminal checks the channel contract and returns the terminal event.
func assertSingleTerminal(t *testing.T, events []types.StreamEvent) types.StreamEvent {
	t.Helper()
	require.NotEmpty(t, events)
	for i, evt := range events[:len(events)-1] {
		assert.False(t, evt.Terminal(), "event %d is terminal but not last", i)
		assert.Equal(t, types.EventTypeProgress, evt.EventType())
	}
	last := events[len(events)-1]
	require.True(t, last.Terminal())
	return last
}

func newTestOrchestrator(gen Generator, pages store.PageStore, opts ...Option) *Orchestrator {
	opts = append([]Option{WithProgressDelay(0)}, opts...)
	return NewOrchestrator(gen, pages, opts...)
}

func TestDetectMode(t *testing.T) {
	// Only absolute URLs with a host count as screenshots: host-less absolute
	// URLs such as mailto: or "localhost:3000" stay prompts.
	tests := []struct {
		input string
		mode  Mode
	}{
		{"https://example.com/shot.png", ModeImage},
		{"  http://localhost:3000/a.jpg  ", ModeImage},
		{"a bakery landing page", ModePrompt},
		{"make a bakery site", ModePrompt},
		{"example.com/shot.png", ModePrompt},
		{"/relative/shot.png", ModePrompt},
		{"mailto:hello@example.com", ModePrompt},
		{"localhost:3000", ModePrompt},
		{"Title: my bakery", ModePrompt},
		{"", ModePrompt},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, _ := DetectMode(tt.input)
			assert.Equal(t, tt.mode, mode)
		})
	}

	_, normalized := DetectMode(" https://example.com/shot.png ")
	assert.Equal(t, "https://example.com/shot.png", normalized)
}

func TestNewPageID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewPageID()
		assert.Regexp(t, `^[a-z0-9]{8}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95)
}

func TestRun_PromptModeSuccess(t *testing.T) {
	gen := &fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}
	pages := store.NewMemoryStore()
	o := newTestOrchestrator(gen, pages)

	events := runAndCollect(t, o, "a bakery landing page")
	terminal := assertSingleTerminal(t, events)

	assert.Equal(t, []string{MsgDetectedPrompt, MsgCallingModel, MsgDraftReady, MsgAssembling}, progressMessages(events))
	assert.EqualValues(t, 1, gen.promptCalls.Load())
	assert.EqualValues(t, 1, gen.codeCalls.Load())
	assert.EqualValues(t, 0, gen.imageCalls.Load())

	complete, ok := terminal.(types.CompleteEvent)
	require.True(t, ok)
	assert.Regexp(t, previewURLPattern, complete.PreviewURL)
	assert.Equal(t, "Crumb & Co", complete.Spec.Title)
	assert.Equal(t, "", complete.Spec.Hero.ImageURL)
	assert.Equal(t, bakeryCode().HTML, complete.Spec.HTML)
	assert.Equal(t, []string{"Plan", "Build"}, complete.Steps)
	require.NotNil(t, complete.CodeHTML)
	assert.Equal(t, bakeryCode().HTML, *complete.CodeHTML)
	require.NotNil(t, complete.CodeCSS)
	assert.Nil(t, complete.CodeJS)
	require.NotNil(t, complete.CodeRawText)
	assert.Equal(t, "raw code", *complete.CodeRawText)
	assert.Equal(t, `{"title":"Crumb & Co"}`, complete.RawText)
	assert.Nil(t, complete.Diagnostics)

	stored, found := pages.Get(complete.Spec.ID)
	require.True(t, found)
	assert.Equal(t, complete.Spec, stored)
}

func TestRun_ImageMode(t *testing.T) {
	result := bakeryResult()
	gen := &fakeGenerator{credential: true, spec: result}
	pages := store.NewMemoryStore()
	o := newTestOrchestrator(gen, pages)

	events := runAndCollect(t, o, "https://example.com/shot.png")
	terminal := assertSingleTerminal(t, events)

	assert.Equal(t, MsgDetectedScreenshot, progressMessages(events)[0])
	assert.EqualValues(t, 1, gen.imageCalls.Load())
	assert.EqualValues(t, 0, gen.promptCalls.Load())
	assert.EqualValues(t, 0, gen.codeCalls.Load())
	assert.Equal(t, "https://example.com/shot.png", gen.lastImage.Load())

	complete := terminal.(types.CompleteEvent)
	assert.Equal(t, "https://example.com/shot.png", complete.Spec.Hero.ImageURL)
	assert.Empty(t, complete.Spec.HTML)
	assert.Nil(t, complete.CodeHTML)
	assert.Nil(t, complete.Steps)
}

func TestRun_ImageFetchFailureIsSurfaced(t *testing.T) {
	result := bakeryResult()
	result.ImageFetchError = "image request returned HTTP 404"
	gen := &fakeGenerator{credential: true, spec: result}
	o := newTestOrchestrator(gen, store.NewMemoryStore())

	events := runAndCollect(t, o, "https://example.com/missing.png")
	complete := assertSingleTerminal(t, events).(types.CompleteEvent)

	assert.Contains(t, progressMessages(events), MsgImageFetchFailed)
	require.NotNil(t, complete.Diagnostics)
	assert.Equal(t, "image request returned HTTP 404", complete.Diagnostics.ImageFetchError)
	assert.Empty(t, complete.Diagnostics.AIError)
}

func TestRun_MissingCredentialFallsBack(t *testing.T) {
	gen := &fakeGenerator{credential: false, specErr: ai.ErrMissingAPIKey, codeErr: ai.ErrMissingAPIKey}
	pages := store.NewMemoryStore()
	o := newTestOrchestrator(gen, pages)

	events := runAndCollect(t, o, "make a bakery site")
	complete := assertSingleTerminal(t, events).(types.CompleteEvent)

	assert.Equal(t, []string{MsgDetectedPrompt, MsgMissingAPIKey, MsgCallingModel, MsgFallback, MsgAssembling}, progressMessages(events))
	assert.Equal(t, "Generated Landing Page", complete.Spec.Title)
	assert.Regexp(t, previewURLPattern, complete.PreviewURL)
	assert.Equal(t, "", complete.RawText)
	require.NotNil(t, complete.Diagnostics)
	assert.NotEmpty(t, complete.Diagnostics.AIError)
	assert.Nil(t, complete.CodeHTML)

	stored, found := pages.Get(complete.Spec.ID)
	require.True(t, found)
	def := DefaultSpec()
	assert.Equal(t, def.Title, stored.Title)
	assert.Equal(t, def.Hero.Headline, stored.Hero.Headline)
	assert.Equal(t, def.Hero.CtaText, stored.Hero.CtaText)
	assert.Equal(t, def.Sections, stored.Sections)
	assert.Empty(t, stored.HTML)
}

func TestRun_ImageModeGenerationFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{credential: true, specErr: errors.New("Gemini HTTP 500")}
	o := newTestOrchestrator(gen, store.NewMemoryStore())

	events := runAndCollect(t, o, "https://example.com/shot.png")
	complete := assertSingleTerminal(t, events).(types.CompleteEvent)

	assert.Equal(t, "Generated Landing Page", complete.Spec.Title)
	assert.Equal(t, "https://example.com/shot.png", complete.Spec.Hero.ImageURL)
	require.NotNil(t, complete.Diagnostics)
	assert.Equal(t, "Gemini HTTP 500", complete.Diagnostics.AIError)
}

func TestRun_CodeFailureKeepsSpec(t *testing.T) {
	gen := &fakeGenerator{credential: true, spec: bakeryResult(), codeErr: errors.New("bad code json")}
	pages := store.NewMemoryStore()
	o := newTestOrchestrator(gen, pages)

	events := runAndCollect(t, o, "a bakery landing page")
	complete := assertSingleTerminal(t, events).(types.CompleteEvent)

	assert.Contains(t, progressMessages(events), MsgCodeFailed)
	assert.NotContains(t, progressMessages(events), MsgFallback)
	assert.Equal(t, "Crumb & Co", complete.Spec.Title)
	assert.Empty(t, complete.Spec.HTML)
	assert.Nil(t, complete.CodeHTML)
	require.NotNil(t, complete.Diagnostics)
	assert.Equal(t, "bad code json", complete.Diagnostics.CodeError)
	assert.Empty(t, complete.Diagnostics.AIError)
}

func TestRun_SpecFailureKeepsCode(t *testing.T) {
	gen := &fakeGenerator{credential: true, specErr: errors.New("unparsable"), code: bakeryCode()}
	o := newTestOrchestrator(gen, store.NewMemoryStore())

	complete := assertSingleTerminal(t, runAndCollect(t, o, "a bakery")).(types.CompleteEvent)

	assert.Equal(t, "Generated Landing Page", complete.Spec.Title)
	assert.Equal(t, bakeryCode().HTML, complete.Spec.HTML)
	require.NotNil(t, complete.CodeHTML)
}

func TestRun_PanicEndsWithErrorEvent(t *testing.T) {
	gen := &fakeGenerator{credential: true, panicMsg: "boom: secret internals"}
	pages := store.NewMemoryStore()
	o := newTestOrchestrator(gen, pages)

	events := runAndCollect(t, o, "a bakery")
	terminal := assertSingleTerminal(t, events)

	errEvt, ok := terminal.(types.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, MsgUnexpectedError, errEvt.Message)
	assert.Equal(t, 0, pages.Len())
}

// fullStore rejects every insert to force id allocation failure.
type fullStore struct{ *store.MemoryStore }

func (fullStore) Insert(string, types.GeneratedPage) bool { return false }

func TestRun_IDAllocationFailureEndsWithErrorEvent(t *testing.T) {
	gen := &fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}
	o := newTestOrchestrator(gen, fullStore{store.NewMemoryStore()})

	events := runAndCollect(t, o, "a bakery")
	terminal := assertSingleTerminal(t, events)
	assert.Equal(t, types.EventTypeError, terminal.EventType())
}

func TestRun_IDCollisionDrawsAgain(t *testing.T) {
	pages := store.NewMemoryStore()
	pages.Put("aaaaaaaa", types.GeneratedPage{ID: "aaaaaaaa", Title: "Existing"})

	ids := []string{"aaaaaaaa", "bbbbbbbb"}
	var next atomic.Int32
	o := newTestOrchestrator(
		&fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()},
		pages,
		WithIDGenerator(func() string { return ids[next.Add(1)-1] }),
	)

	complete := assertSingleTerminal(t, runAndCollect(t, o, "a bakery")).(types.CompleteEvent)
	assert.Equal(t, "/preview/bbbbbbbb", complete.PreviewURL)

	existing, _ := pages.Get("aaaaaaaa")
	assert.Equal(t, "Existing", existing.Title)
}

func TestRun_ExportsBundle(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}
	o := newTestOrchestrator(gen, store.NewMemoryStore(), WithExportDir(dir))

	complete := assertSingleTerminal(t, runAndCollect(t, o, "a bakery")).(types.CompleteEvent)

	content, err := os.ReadFile(filepath.Join(dir, complete.Spec.ID, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, bakeryCode().HTML, string(content))
}

func TestRun_ProgressIsPaced(t *testing.T) {
	gen := &fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}
	o := NewOrchestrator(gen, store.NewMemoryStore(), WithProgressDelay(20*time.Millisecond))

	start := time.Now()
	events := runAndCollect(t, o, "a bakery")
	assertSingleTerminal(t, events)

	// Four progress events, each followed by a pause.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestEmitter_DropsEventsAfterTerminal(t *testing.T) {
	ch := make(chan types.StreamEvent, 4)
	em := &emitter{events: ch}

	assert.True(t, em.send(types.NewProgressEvent("a")))
	assert.True(t, em.send(types.NewErrorEvent("x")))
	assert.False(t, em.send(types.NewProgressEvent("late")))
	assert.False(t, em.send(types.CompleteEvent{Type: types.EventTypeComplete}))
	close(ch)

	var got []types.StreamEvent
	for evt := range ch {
		got = append(got, evt)
	}
	assert.Len(t, got, 2)
}

// activeRuns sums the landing.runs.active data points across modes.
func activeRuns(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "landing.runs.active" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRun_ActiveRunsReturnToZero(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	m, err := metrics.NewGenerationMetricsWithProvider(provider)
	require.NoError(t, err)

	pages := store.NewMemoryStore()
	ok := newTestOrchestrator(&fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}, pages, WithMetrics(m))
	panics := newTestOrchestrator(&fakeGenerator{credential: true, panicMsg: "boom"}, pages, WithMetrics(m))
	full := newTestOrchestrator(&fakeGenerator{credential: true, spec: bakeryResult(), code: bakeryCode()}, fullStore{store.NewMemoryStore()}, WithMetrics(m))

	runAndCollect(t, ok, "a bakery")
	runAndCollect(t, panics, "a bakery")
	runAndCollect(t, full, "https://example.com/shot.png")

	assert.Equal(t, int64(0), activeRuns(t, reader))
}

func TestGenerationMetrics_FinishedDecrementsWithoutTerminalRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	m, err := metrics.NewGenerationMetricsWithProvider(provider)
	require.NoError(t, err)

	// A run whose failure could not be reported still leaves the gauge.
	ctx := context.Background()
	m.RecordRunStarted(ctx, string(ModePrompt))
	assert.Equal(t, int64(1), activeRuns(t, reader))
	m.RecordRunFinished(ctx, string(ModePrompt))
	assert.Equal(t, int64(0), activeRuns(t, reader))
}
