package remote

import (
	"context"
	"log/slog"
	"time"

	"subflow/internal/logging"
	"subflow/internal/pipeline"
	"subflow/internal/services"
)

// errorReporter forwards failure events to the service's error log.
type errorReporter struct {
	client  *Client
	logger  *slog.Logger
	timeout time.Duration
}

// ErrorReporter returns an observer that posts stage and cleanup failures to
// /api/log-error. Superseded and canceled operations are not reported.
func ErrorReporter(client *Client, logger *slog.Logger) pipeline.Observer {
	return &errorReporter{
		client:  client,
		logger:  logging.NewComponentLogger(logger, "error-reporter"),
		timeout: 5 * time.Second,
	}
}

func (r *errorReporter) Observe(ctx context.Context, event pipeline.Event) {
	if r.client == nil || event.Err == nil {
		return
	}
	if event.Kind != pipeline.EventStageFailed && event.Kind != pipeline.EventCleanupFailed {
		return
	}
	switch services.Classify(event.Err) {
	case services.KindCanceled, services.KindSuperseded:
		return
	}

	details := map[string]any{
		"run_id": event.RunID,
		"stage":  event.Stage.String(),
		"kind":   string(services.Classify(event.Err)),
	}
	if event.MediaName != "" {
		details["media"] = event.MediaName
	}
	if code := StatusCode(event.Err); code != 0 {
		details["status_code"] = code
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		details["correlation_id"] = rid
	}

	function := event.Stage.String()
	if event.Detail != "" {
		function = event.Detail
	}
	if event.Kind == pipeline.EventCleanupFailed {
		function = "process-complete"
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	err := r.client.ReportError(reportCtx, ErrorReport{
		Function:  function,
		Error:     services.Message(event.Err),
		Details:   details,
		Timestamp: event.Time.UTC(),
	})
	if err != nil {
		r.logger.Debug("error report not delivered",
			logging.String(logging.FieldEventType, "error_report_failed"),
			logging.Error(err),
		)
	}
}
