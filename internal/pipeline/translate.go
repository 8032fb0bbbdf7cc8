package pipeline

import (
	"context"
	"fmt"

	"subflow/internal/language"
	"subflow/internal/notifications"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

// TranslateRequest selects what BeginTranslation does.
type TranslateRequest struct {
	Skip           bool
	SourceLanguage string
	TargetLanguage string
}

// BeginTranslation produces the translation result. Skipping, or a
// transcription with no segments, copies the transcription without a remote
// call.
func (c *Controller) BeginTranslation(ctx context.Context, req TranslateRequest) (subtitle.TranslationResult, error) {
	c.mu.Lock()
	switch {
	case c.busy:
		c.mu.Unlock()
		return subtitle.TranslationResult{}, c.reject(ctx, StageTranslate, ErrBusy)
	case c.transcription == nil:
		c.mu.Unlock()
		return subtitle.TranslationResult{}, c.reject(ctx, StageTranslate, ErrNoTranscription)
	case c.state != StateAwaitingTranslation:
		c.mu.Unlock()
		return subtitle.TranslationResult{}, c.reject(ctx, StageTranslate, ErrOutOfOrder)
	}
	transcription := c.transcription.Clone()
	runID := c.runID

	if req.Skip || len(transcription.Segments) == 0 {
		result := subtitle.PassThrough(transcription)
		c.applyTranslationLocked(result)
		c.mu.Unlock()

		detail := "translation skipped"
		if !req.Skip {
			detail = "nothing to translate"
		}
		c.finishTranslation(ctx, runID, result, detail)
		return result.Clone(), nil
	}

	source, target, err := c.translationLanguagesLocked(req, transcription)
	if err != nil {
		c.mu.Unlock()
		return subtitle.TranslationResult{}, c.reject(ctx, StageTranslate, err)
	}
	gen := c.beginLocked(StageTranslate)
	c.mu.Unlock()

	ctx = stageContext(ctx, runID, StageTranslate)
	c.emit(ctx, Event{Kind: EventStageStarted, RunID: runID, Stage: StageTranslate, Detail: source + "->" + target})

	translated, err := c.svc.Translate(ctx, transcription.Segments, source, target)
	if c.stale(gen) {
		return subtitle.TranslationResult{}, c.discard(ctx, runID, StageTranslate)
	}
	if err == nil && len(translated) != len(transcription.Segments) {
		err = services.Wrap(services.ErrRemote, StageTranslate.String(), "translate",
			fmt.Sprintf("service returned %d segments for %d", len(translated), len(transcription.Segments)), nil)
	}
	if err != nil {
		return subtitle.TranslationResult{}, c.fail(ctx, gen, runID, StageTranslate, "translate", err)
	}

	// Timing always comes from the transcription; only text is replaced.
	segments := make([]subtitle.Segment, len(transcription.Segments))
	for i, seg := range transcription.Segments {
		seg.Text = translated[i].Text
		segments[i] = seg
	}
	result := subtitle.TranslationResult{
		Segments:       segments,
		SourceLanguage: source,
		TargetLanguage: target,
		Translated:     true,
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return subtitle.TranslationResult{}, c.discard(ctx, runID, StageTranslate)
	}
	c.applyTranslationLocked(result)
	c.busy = false
	c.inFlight = 0
	c.mu.Unlock()

	c.finishTranslation(ctx, runID, result, fmt.Sprintf("translated %d segments to %s", len(segments), language.DisplayName(target)))
	return result.Clone(), nil
}

func (c *Controller) applyTranslationLocked(result subtitle.TranslationResult) {
	stored := result.Clone()
	c.translation = &stored
	c.state = StateAwaitingDownload
}

func (c *Controller) finishTranslation(ctx context.Context, runID string, result subtitle.TranslationResult, detail string) {
	c.renderPreview(result.Segments)
	c.emit(ctx, Event{Kind: EventStageCompleted, RunID: runID, Stage: StageTranslate, Detail: detail})
	level := notifications.LevelSuccess
	if !result.Translated {
		level = notifications.LevelInfo
	}
	c.notify(ctx, notifications.Notice{
		Level:   level,
		Title:   "Translation",
		Message: detail,
		Stage:   StageTranslate.String(),
	})
}

// translationLanguagesLocked resolves the source and target codes. An "auto"
// source falls back to the language the transcription detected.
func (c *Controller) translationLanguagesLocked(req TranslateRequest, tr subtitle.TranscriptionResult) (string, string, error) {
	target, err := c.catalog.ResolveTarget(req.TargetLanguage)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "", "", "target language: "+err.Error(), nil)
	}
	if !c.catalog.SupportsTarget(target) {
		return "", "", services.Wrap(services.ErrValidation, "", "", fmt.Sprintf("target language %q is not offered by the service", target), nil)
	}
	source := language.Auto
	if req.SourceLanguage != "" {
		source, err = c.catalog.ResolveSource(req.SourceLanguage)
		if err != nil {
			return "", "", services.Wrap(services.ErrValidation, "", "", "source language: "+err.Error(), nil)
		}
	}
	if source == language.Auto && tr.Language != "" {
		if detected, err := c.catalog.ResolveSource(tr.Language); err == nil {
			source = detected
		}
	}
	return source, target, nil
}
