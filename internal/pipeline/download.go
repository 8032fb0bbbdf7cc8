package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"subflow/internal/notifications"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

// DownloadRequest selects the output format and base filename.
type DownloadRequest struct {
	Format   subtitle.Format
	Filename string
}

// Summary describes a completed run.
type Summary struct {
	RunID          string            `json:"run_id"`
	MediaName      string            `json:"media_name"`
	Artifact       subtitle.Artifact `json:"artifact"`
	Location       string            `json:"location,omitempty"`
	Format         subtitle.Format   `json:"format"`
	Segments       int               `json:"segments"`
	Translated     bool              `json:"translated"`
	SourceLanguage string            `json:"source_language,omitempty"`
	TargetLanguage string            `json:"target_language,omitempty"`
	CleanupFailed  bool              `json:"cleanup_failed"`
	CleanupError   string            `json:"cleanup_error,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
}

// Download generates the subtitle file, delivers it, and releases the upload.
// A failed cleanup only produces a warning; the run still completes.
func (c *Controller) Download(ctx context.Context, req DownloadRequest) (Summary, error) {
	format := subtitle.ParseFormat(string(req.Format))
	if format == "" && len(c.formats) > 0 {
		format = c.formats[0]
	}
	if !slices.Contains(c.formats, format) {
		return Summary{}, c.reject(ctx, StageDownload, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}

	c.mu.Lock()
	switch {
	case c.busy:
		c.mu.Unlock()
		return Summary{}, c.reject(ctx, StageDownload, ErrBusy)
	case c.translation == nil:
		c.mu.Unlock()
		return Summary{}, c.reject(ctx, StageDownload, ErrNoTranslation)
	case c.state != StateAwaitingDownload:
		c.mu.Unlock()
		return Summary{}, c.reject(ctx, StageDownload, ErrOutOfOrder)
	}
	gen := c.beginLocked(StageDownload)
	translation := c.translation.Clone()
	handle := c.handle
	runID := c.runID
	mediaName := ""
	if c.media != nil {
		mediaName = c.media.Name
	}
	startedAt := c.startedAt
	c.mu.Unlock()

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = strings.TrimSuffix(mediaName, filepath.Ext(mediaName))
	}
	if filename == "" {
		filename = "subtitles"
	}

	ctx = stageContext(ctx, runID, StageDownload)
	c.emit(ctx, Event{Kind: EventStageStarted, RunID: runID, Stage: StageDownload, MediaName: mediaName, Detail: string(format)})

	artifact, err := c.svc.GenerateSubtitle(ctx, translation.Segments, format, filename)
	if c.stale(gen) {
		return Summary{}, c.discard(ctx, runID, StageDownload)
	}
	if err != nil {
		return Summary{}, c.fail(ctx, gen, runID, StageDownload, "generate-subtitle", err)
	}

	location := artifact.DownloadURL
	if c.navigator != nil {
		location, err = c.navigator.Navigate(ctx, artifact)
		if c.stale(gen) {
			return Summary{}, c.discard(ctx, runID, StageDownload)
		}
		if err != nil {
			return Summary{}, c.fail(ctx, gen, runID, StageDownload, "deliver", err)
		}
	}

	summary := Summary{
		RunID:          runID,
		MediaName:      mediaName,
		Artifact:       artifact,
		Location:       location,
		Format:         format,
		Segments:       len(translation.Segments),
		Translated:     translation.Translated,
		SourceLanguage: translation.SourceLanguage,
		TargetLanguage: translation.TargetLanguage,
		StartedAt:      startedAt,
	}

	if !handle.Empty() {
		if err := c.svc.Cleanup(ctx, handle); err != nil {
			if !errors.Is(err, services.ErrCleanup) {
				err = services.Wrap(services.ErrCleanup, StageDownload.String(), "process-complete", "", err)
			}
			summary.CleanupFailed = true
			summary.CleanupError = services.Message(err)
			c.emit(ctx, Event{Kind: EventCleanupFailed, RunID: runID, Stage: StageDownload, MediaName: mediaName, Err: err})
			c.notify(ctx, notifications.Notice{
				Level:   notifications.LevelWarning,
				Title:   "Cleanup failed",
				Message: "uploaded file could not be removed from the server",
				Stage:   StageDownload.String(),
			})
		}
		if c.stale(gen) {
			return Summary{}, c.discard(ctx, runID, StageDownload)
		}
	}

	summary.FinishedAt = c.now()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return Summary{}, c.discard(ctx, runID, StageDownload)
	}
	c.generation++
	c.clearRunLocked()
	c.state = StateIdle
	c.completed = true
	last := summary
	c.last = &last
	c.mu.Unlock()

	c.renderPreview(nil)
	c.emit(ctx, Event{Kind: EventRunCompleted, RunID: runID, Stage: StageDownload, MediaName: mediaName, Summary: &summary})
	c.notify(ctx, notifications.Notice{
		Level:   notifications.LevelSuccess,
		Title:   "Subtitle downloaded",
		Message: location,
		Stage:   StageDownload.String(),
	})
	return summary, nil
}
