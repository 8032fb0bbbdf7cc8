package history

import (
	"context"
	"log/slog"
	"time"

	"subflow/internal/logging"
	"subflow/internal/pipeline"
	"subflow/internal/services"
)

type observer struct {
	store  *Store
	logger *slog.Logger
}

// Observer records pipeline events into the store. Write failures are logged
// and never reach the pipeline.
func (s *Store) Observer(logger *slog.Logger) pipeline.Observer {
	return observer{store: s, logger: logging.NewComponentLogger(logger, "history")}
}

func (o observer) Observe(ctx context.Context, event pipeline.Event) {
	if o.store == nil {
		return
	}
	at := event.Time
	if at.IsZero() {
		at = time.Now()
	}
	// History writes must finish even when the stage context was canceled.
	ctx = context.WithoutCancel(ctx)

	var err error
	switch event.Kind {
	case pipeline.EventRunStarted:
		if _, err = o.store.AbandonOpen(ctx, at); err == nil {
			err = o.store.Start(ctx, event.RunID, event.MediaName, event.MediaSize, at)
		}
	case pipeline.EventStageStarted, pipeline.EventStageCompleted:
		err = o.store.Advance(ctx, event.RunID, event.Stage.String(), at)
	case pipeline.EventStageFailed:
		err = o.store.Fail(ctx, event.RunID, event.Stage.String(), services.Message(event.Err), at)
	case pipeline.EventCleanupFailed:
		err = o.store.MarkCleanupFailed(ctx, event.RunID, at)
	case pipeline.EventRunCompleted:
		completion := Completion{}
		if s := event.Summary; s != nil {
			completion = Completion{
				SourceLanguage: s.SourceLanguage,
				TargetLanguage: s.TargetLanguage,
				Format:         string(s.Format),
				Segments:       s.Segments,
				Location:       s.Location,
				CleanupFailed:  s.CleanupFailed,
			}
		}
		err = o.store.Complete(ctx, event.RunID, completion, at)
	case pipeline.EventReset:
		if event.RunID != "" {
			err = o.store.Abandon(ctx, event.RunID, at)
		}
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(o.logger, "history write failed", "history_write_failed",
			logging.String(logging.FieldRunID, event.RunID),
			logging.String("event", string(event.Kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on paths.state_dir"),
			logging.String(logging.FieldImpact, "run history may be incomplete"),
		)
	}
}
