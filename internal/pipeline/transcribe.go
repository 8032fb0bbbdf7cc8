package pipeline

import (
	"context"
	"fmt"
	"strings"

	"subflow/internal/language"
	"subflow/internal/logging"
	"subflow/internal/media"
	"subflow/internal/notifications"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

// BeginTranscription uploads the selected media and transcribes it. On
// failure the controller stays in AwaitingTranscription and a retry uploads
// again from scratch.
func (c *Controller) BeginTranscription(ctx context.Context, sourceLanguage string) (subtitle.TranscriptionResult, error) {
	c.mu.Lock()
	catalog := c.catalog
	c.mu.Unlock()
	lang, err := normalizeSource(catalog, sourceLanguage)
	if err != nil {
		return subtitle.TranscriptionResult{}, c.reject(ctx, StageTranscribe, err)
	}

	c.mu.Lock()
	switch {
	case c.busy:
		c.mu.Unlock()
		return subtitle.TranscriptionResult{}, c.reject(ctx, StageTranscribe, ErrBusy)
	case c.media == nil:
		c.mu.Unlock()
		return subtitle.TranscriptionResult{}, c.reject(ctx, StageTranscribe, ErrNoMedia)
	case c.state != StateAwaitingTranscription:
		c.mu.Unlock()
		return subtitle.TranscriptionResult{}, c.reject(ctx, StageTranscribe, ErrOutOfOrder)
	case !c.catalog.SupportsSource(lang):
		c.mu.Unlock()
		return subtitle.TranscriptionResult{}, c.reject(ctx, StageTranscribe,
			services.Wrap(services.ErrValidation, "", "", fmt.Sprintf("source language %q is not offered by the service", lang), nil))
	}
	gen := c.beginLocked(StageTranscribe)
	selected := *c.media
	runID := c.runID
	c.mu.Unlock()

	ctx = stageContext(ctx, runID, StageTranscribe)
	c.emit(ctx, Event{Kind: EventStageStarted, RunID: runID, Stage: StageTranscribe, MediaName: selected.Name, MediaSize: selected.SizeBytes, Detail: lang})

	handle, err := c.svc.Upload(ctx, selected)
	if c.stale(gen) {
		if err == nil {
			c.releaseUpload(ctx, handle)
		}
		return subtitle.TranscriptionResult{}, c.discard(ctx, runID, StageTranscribe)
	}
	if err != nil {
		return subtitle.TranscriptionResult{}, c.fail(ctx, gen, runID, StageTranscribe, "upload", err)
	}
	c.emit(ctx, Event{Kind: EventStageCompleted, RunID: runID, Stage: StageUpload, MediaName: selected.Name, MediaSize: selected.SizeBytes, Detail: handle.FilePath})

	result, err := c.svc.Transcribe(ctx, handle, lang)
	if c.stale(gen) {
		c.releaseUpload(ctx, handle)
		return subtitle.TranscriptionResult{}, c.discard(ctx, runID, StageTranscribe)
	}
	if err != nil {
		c.releaseUpload(ctx, handle)
		return subtitle.TranscriptionResult{}, c.fail(ctx, gen, runID, StageTranscribe, "transcribe", err)
	}
	if result.Segments == nil {
		result.Segments = []subtitle.Segment{}
	}
	if strings.TrimSpace(result.Language) == "" && lang != language.Auto {
		result.Language = lang
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.releaseUpload(ctx, handle)
		return subtitle.TranscriptionResult{}, c.discard(ctx, runID, StageTranscribe)
	}
	stored := result.Clone()
	c.transcription = &stored
	c.handle = handle
	c.state = StateAwaitingTranslation
	c.busy = false
	c.inFlight = 0
	c.mu.Unlock()

	message := fmt.Sprintf("%d segments detected", len(result.Segments))
	if result.Language != "" {
		message = fmt.Sprintf("%s (%s)", message, language.DisplayName(result.Language))
	}
	if len(result.Segments) == 0 {
		message = "no speech detected"
	}
	c.emit(ctx, Event{Kind: EventStageCompleted, RunID: runID, Stage: StageTranscribe, MediaName: selected.Name, Detail: message})
	c.notify(ctx, notifications.Notice{
		Level:   notifications.LevelSuccess,
		Title:   "Transcription complete",
		Message: message,
		Stage:   StageTranscribe.String(),
	})
	return result.Clone(), nil
}

// releaseUpload drops an upload that will never be transcribed. The next
// attempt uploads again, so the handle is not kept.
func (c *Controller) releaseUpload(ctx context.Context, handle media.UploadHandle) {
	if handle.Empty() {
		return
	}
	if err := c.svc.Cleanup(ctx, handle); err != nil {
		c.logger.Debug("orphaned upload cleanup failed",
			logging.String(logging.FieldEventType, "orphan_cleanup_failed"),
			logging.String("file_path", handle.FilePath),
			logging.Error(err),
		)
	}
}

func normalizeSource(catalog language.Catalog, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return language.Auto, nil
	}
	lang, err := catalog.ResolveSource(code)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "", err.Error(), nil)
	}
	return lang, nil
}
