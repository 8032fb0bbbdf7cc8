package pipeline

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"subflow/internal/language"
	"subflow/internal/logging"
	"subflow/internal/media"
	"subflow/internal/notifications"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

// RemoteService is the subset of the subtitle service the controller drives.
type RemoteService interface {
	Upload(ctx context.Context, m media.SelectedMedia) (media.UploadHandle, error)
	Transcribe(ctx context.Context, handle media.UploadHandle, language string) (subtitle.TranscriptionResult, error)
	Translate(ctx context.Context, segments []subtitle.Segment, source, target string) ([]subtitle.Segment, error)
	GenerateSubtitle(ctx context.Context, segments []subtitle.Segment, format subtitle.Format, filename string) (subtitle.Artifact, error)
	Cleanup(ctx context.Context, handle media.UploadHandle) error
	Languages(ctx context.Context) (language.Catalog, error)
}

// Navigator delivers a generated artifact to the user and returns where it
// ended up (a local path or URL).
type Navigator interface {
	Navigate(ctx context.Context, artifact subtitle.Artifact) (string, error)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, artifact subtitle.Artifact) (string, error)

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, artifact subtitle.Artifact) (string, error) {
	return f(ctx, artifact)
}

// PreviewFunc receives the display rows each time the translation is set or
// cleared.
type PreviewFunc func(rows iter.Seq[subtitle.Row])

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the sink for user-facing notices.
func WithNotifier(sink notifications.Sink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.notifier = sink
		}
	}
}

// WithObserver sets the structured event observer.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithPreview sets the row preview callback.
func WithPreview(fn PreviewFunc) Option {
	return func(c *Controller) { c.preview = fn }
}

// WithGate replaces the default selection gate.
func WithGate(gate media.Gate) Option {
	return func(c *Controller) { c.gate = gate }
}

// WithSelectionDelay sets the pause between accepting a file and enabling
// transcription. Zero disables it.
func WithSelectionDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.selectionDelay = d
		}
	}
}

// WithNavigator sets how generated artifacts reach the user.
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) { c.navigator = nav }
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFormats restricts the subtitle formats Download accepts. The first
// format is the default.
func WithFormats(formats ...subtitle.Format) Option {
	return func(c *Controller) {
		if len(formats) > 0 {
			c.formats = slices.Clone(formats)
		}
	}
}

// WithLogger sets the logger used for collaborator failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "pipeline")
		}
	}
}

// Controller owns a single pipeline run at a time.
type Controller struct {
	svc            RemoteService
	notifier       notifications.Sink
	observer       Observer
	preview        PreviewFunc
	navigator      Navigator
	gate           media.Gate
	selectionDelay time.Duration
	formats        []subtitle.Format
	now            func() time.Time
	logger         *slog.Logger

	mu            sync.Mutex
	state         State
	generation    uint64
	runID         string
	startedAt     time.Time
	media         *media.SelectedMedia
	handle        media.UploadHandle
	transcription *subtitle.TranscriptionResult
	translation   *subtitle.TranslationResult
	catalog       language.Catalog
	busy          bool
	inFlight      Stage
	completed     bool
	last          *Summary
}

// New constructs a controller in the Idle state.
func New(svc RemoteService, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		notifier: notifications.Noop{},
		observer: Observers(),
		gate:     media.DefaultGate(),
		formats:  []subtitle.Format{subtitle.FormatSRT, subtitle.FormatVTT},
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State         State
	ActiveStage   Stage
	Stages        map[Stage]StageStatus
	RunID         string
	Media         *media.SelectedMedia
	Transcription *subtitle.TranscriptionResult
	Translation   *subtitle.TranslationResult
	Busy          bool
	InFlight      Stage
	Completed     bool
	LastRun       *Summary
}

// Snapshot returns copies of the current state and results.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:       c.state,
		ActiveStage: c.state.ActiveStage(),
		Stages:      make(map[Stage]StageStatus, len(Stages)),
		RunID:       c.runID,
		Busy:        c.busy,
		InFlight:    c.inFlight,
		Completed:   c.completed,
	}
	for _, stage := range Stages {
		snap.Stages[stage] = c.state.StatusOf(stage)
	}
	if c.media != nil {
		m := *c.media
		snap.Media = &m
	}
	if c.transcription != nil {
		tr := c.transcription.Clone()
		snap.Transcription = &tr
	}
	if c.translation != nil {
		tl := c.translation.Clone()
		snap.Translation = &tl
	}
	if c.last != nil {
		last := *c.last
		snap.LastRun = &last
	}
	return snap
}

// Controls describes which user actions are currently enabled.
type Controls struct {
	Busy          bool
	InFlight      Stage
	CanSelect     bool
	CanTranscribe bool
	CanTranslate  bool
	CanDownload   bool
}

// Controls derives control enablement from the state and busy flag.
func (c *Controller) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	idle := !c.busy
	return Controls{
		Busy:          c.busy,
		InFlight:      c.inFlight,
		CanSelect:     idle,
		CanTranscribe: idle && c.state == StateAwaitingTranscription && c.media != nil,
		CanTranslate:  idle && c.state == StateAwaitingTranslation && c.transcription != nil,
		CanDownload:   idle && c.state == StateAwaitingDownload && c.translation != nil,
	}
}

// Rows returns the display rows for the current translation. The sequence is
// empty when no translation exists.
func (c *Controller) Rows() iter.Seq[subtitle.Row] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.translation == nil {
		return subtitle.Rows(nil)
	}
	return subtitle.Rows(c.translation.Segments)
}

// Formats returns the accepted subtitle formats.
func (c *Controller) Formats() []subtitle.Format {
	return slices.Clone(c.formats)
}

// Catalog returns the language catalog loaded by LoadLanguages.
func (c *Controller) Catalog() language.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// LoadLanguages fetches the language catalog. On failure the catalog is left
// empty and a warning is shown.
func (c *Controller) LoadLanguages(ctx context.Context) (language.Catalog, error) {
	catalog, err := c.svc.Languages(ctx)
	if err != nil {
		c.mu.Lock()
		c.catalog = language.Catalog{}
		c.mu.Unlock()
		c.notify(ctx, notifications.Notice{
			Level:   notifications.LevelWarning,
			Title:   "Languages unavailable",
			Message: services.Message(err),
		})
		return language.Catalog{}, err
	}
	c.mu.Lock()
	c.catalog = catalog
	c.mu.Unlock()
	return catalog, nil
}

// Reset clears the run from any state and invalidates in-flight responses.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	runID := c.runID
	hadTranslation := c.translation != nil
	c.generation++
	c.clearRunLocked()
	c.state = StateIdle
	c.completed = false
	c.mu.Unlock()

	if hadTranslation {
		c.renderPreview(nil)
	}
	c.emit(ctx, Event{Kind: EventReset, RunID: runID})
}

// Abandon resets the controller and releases any upload the run still holds.
// Callers use it when no further stage will be attempted.
func (c *Controller) Abandon(ctx context.Context) {
	c.mu.Lock()
	handle := c.handle
	c.mu.Unlock()

	c.Reset(ctx)
	c.releaseUpload(ctx, handle)
}

func (c *Controller) clearRunLocked() {
	c.runID = ""
	c.media = nil
	c.handle = media.UploadHandle{}
	c.transcription = nil
	c.translation = nil
	c.busy = false
	c.inFlight = 0
}

// beginLocked marks stage in flight and returns the generation it belongs to.
func (c *Controller) beginLocked(stage Stage) uint64 {
	c.busy = true
	c.inFlight = stage
	return c.generation
}

// stale reports whether gen no longer matches the current run.
func (c *Controller) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation
}

func (c *Controller) discard(ctx context.Context, runID string, stage Stage) error {
	c.emit(ctx, Event{Kind: EventStaleDiscarded, RunID: runID, Stage: stage})
	return ErrSuperseded
}

// fail clears the busy flag, surfaces err, and returns it. Errors that carry no
// classification are treated as remote failures.
func (c *Controller) fail(ctx context.Context, gen uint64, runID string, stage Stage, op string, err error) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.discard(ctx, runID, stage)
	}
	c.busy = false
	c.inFlight = 0
	mediaName := ""
	if c.media != nil {
		mediaName = c.media.Name
	}
	c.mu.Unlock()

	if services.Classify(err) == services.KindOther {
		err = services.Wrap(services.ErrRemote, stage.String(), op, "", err)
	}
	c.emit(ctx, Event{Kind: EventStageFailed, RunID: runID, Stage: stage, MediaName: mediaName, Detail: op, Err: err})
	c.notifyError(ctx, stage, err)
	return err
}

// reject surfaces a precondition failure without touching state.
func (c *Controller) reject(ctx context.Context, stage Stage, err error) error {
	c.notifyError(ctx, stage, err)
	return err
}

func (c *Controller) notifyError(ctx context.Context, stage Stage, err error) {
	level := notifications.LevelDanger
	title := stage.Title() + " failed"
	switch services.Classify(err) {
	case services.KindValidation:
		level = notifications.LevelWarning
		title = ""
	case services.KindCanceled:
		level = notifications.LevelWarning
		title = stage.Title() + " canceled"
	}
	c.notify(ctx, notifications.Notice{
		Level:   level,
		Title:   title,
		Message: services.Message(err),
		Stage:   stage.String(),
	})
}

func (c *Controller) notify(ctx context.Context, notice notifications.Notice) {
	if err := c.notifier.Notify(ctx, notice); err != nil {
		c.logger.Debug("notification delivery failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err),
		)
	}
}

func (c *Controller) emit(ctx context.Context, event Event) {
	if event.Time.IsZero() {
		event.Time = c.now()
	}
	c.observer.Observe(ctx, event)
}

func (c *Controller) renderPreview(segments []subtitle.Segment) {
	if c.preview != nil {
		c.preview(subtitle.Rows(segments))
	}
}

// stageContext stamps ctx with the run, stage, and a fresh correlation id.
func stageContext(ctx context.Context, runID string, stage Stage) context.Context {
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, stage.String())
	return services.WithRequestID(ctx, uuid.NewString())
}
