package pipeline

import (
	"context"
	"log/slog"
	"time"

	"subflow/internal/logging"
	"subflow/internal/services"
)

// EventKind names a structured pipeline event.
type EventKind string

const (
	EventRunStarted        EventKind = "run_started"
	EventSelectionRejected EventKind = "selection_rejected"
	EventStageStarted      EventKind = "stage_started"
	EventStageCompleted    EventKind = "stage_completed"
	EventStageFailed       EventKind = "stage_failed"
	EventCleanupFailed     EventKind = "cleanup_failed"
	EventRunCompleted      EventKind = "run_completed"
	EventReset             EventKind = "reset"
	EventStaleDiscarded    EventKind = "stale_discarded"
)

// Event is emitted to the Observer for every state-relevant step.
type Event struct {
	Kind      EventKind
	RunID     string
	Stage     Stage
	Time      time.Time
	MediaName string
	MediaSize int64
	Detail    string
	Err       error
	Summary   *Summary
}

// Observer receives pipeline events. Implementations must not block for long;
// they run on the caller's goroutine.
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, event Event) { f(ctx, event) }

type observers []Observer

// Observers fans events out to each non-nil observer in order.
func Observers(list ...Observer) Observer {
	filtered := make(observers, 0, len(list))
	for _, o := range list {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

func (o observers) Observe(ctx context.Context, event Event) {
	for _, observer := range o {
		observer.Observe(ctx, event)
	}
}

type logObserver struct {
	logger *slog.Logger
}

// LogObserver writes every event to logger using the standard field names.
func LogObserver(logger *slog.Logger) Observer {
	return logObserver{logger: logging.NewComponentLogger(logger, "pipeline")}
}

func (l logObserver) Observe(ctx context.Context, event Event) {
	logger := logging.WithContext(ctx, l.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, string(event.Kind)),
	}
	if _, ok := services.RunIDFromContext(ctx); !ok && event.RunID != "" {
		attrs = append(attrs, logging.String(logging.FieldRunID, event.RunID))
	}
	if _, ok := services.StageFromContext(ctx); !ok && event.Stage != 0 {
		attrs = append(attrs, logging.String(logging.FieldStage, event.Stage.String()))
	}
	if event.MediaName != "" {
		attrs = append(attrs, logging.String("media", event.MediaName))
	}
	if event.Detail != "" {
		attrs = append(attrs, logging.String("detail", event.Detail))
	}

	switch event.Kind {
	case EventStageFailed:
		attrs = append(attrs, logging.Error(event.Err))
		if services.Classify(event.Err) == services.KindValidation {
			logging.WarnWithContext(logger, "stage rejected", string(event.Kind),
				append(attrs,
					logging.String(logging.FieldErrorHint, "check the input and retry the stage"),
					logging.String(logging.FieldImpact, "stage did not advance"),
				)...)
			return
		}
		logging.ErrorWithContext(logger, "stage failed", string(event.Kind),
			append(attrs, logging.String(logging.FieldErrorHint, "retry the stage or check the subtitle service logs"))...)
	case EventCleanupFailed:
		attrs = append(attrs, logging.Error(event.Err))
		logging.WarnWithContext(logger, "cleanup of uploaded file failed", string(event.Kind),
			append(attrs,
				logging.Alert("upload_retained"),
				logging.String(logging.FieldErrorHint, "the service may keep the upload until its own cleanup runs"),
				logging.String(logging.FieldImpact, "uploaded file remains on the server"),
			)...)
	case EventSelectionRejected:
		attrs = append(attrs, logging.Error(event.Err))
		logging.WarnWithContext(logger, "selection rejected", string(event.Kind),
			append(attrs,
				logging.String(logging.FieldErrorHint, "choose a supported audio or video file"),
				logging.String(logging.FieldImpact, "pipeline state unchanged"),
			)...)
	case EventStaleDiscarded, EventStageStarted:
		logger.Debug(eventMessage(event.Kind), logging.Args(attrs...)...)
	case EventRunCompleted:
		if s := event.Summary; s != nil {
			attrs = append(attrs,
				logging.Int("segments", s.Segments),
				logging.String("format", string(s.Format)),
				logging.String("location", s.Location),
				logging.Bool("cleanup_failed", s.CleanupFailed),
				logging.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
			)
		}
		logger.Info(eventMessage(event.Kind), logging.Args(attrs...)...)
	default:
		logger.Info(eventMessage(event.Kind), logging.Args(attrs...)...)
	}
}

func eventMessage(kind EventKind) string {
	switch kind {
	case EventRunStarted:
		return "run started"
	case EventStageStarted:
		return "stage started"
	case EventStageCompleted:
		return "stage completed"
	case EventRunCompleted:
		return "run completed"
	case EventReset:
		return "pipeline reset"
	case EventStaleDiscarded:
		return "stale response discarded"
	default:
		return string(kind)
	}
}
