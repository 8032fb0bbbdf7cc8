package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"subflow/internal/media"
	"subflow/internal/notifications"
)

// SelectMedia validates a candidate and, if accepted, starts a fresh run in
// AwaitingTranscription. Rejected candidates leave the state unchanged.
func (c *Controller) SelectMedia(ctx context.Context, candidate media.Candidate) (media.SelectedMedia, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return media.SelectedMedia{}, c.reject(ctx, StageUpload, ErrBusy)
	}
	gen := c.generation
	c.mu.Unlock()

	selected, err := c.gate.Check(candidate)
	if err != nil {
		c.emit(ctx, Event{Kind: EventSelectionRejected, Stage: StageUpload, MediaName: candidate.Name, MediaSize: candidate.SizeBytes, Err: err})
		return media.SelectedMedia{}, c.reject(ctx, StageUpload, err)
	}

	if c.selectionDelay > 0 {
		timer := time.NewTimer(c.selectionDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return media.SelectedMedia{}, ctx.Err()
		case <-timer.C:
		}
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return media.SelectedMedia{}, c.discard(ctx, "", StageUpload)
	}
	if c.busy {
		c.mu.Unlock()
		return media.SelectedMedia{}, c.reject(ctx, StageUpload, ErrBusy)
	}
	hadTranslation := c.translation != nil
	c.generation++
	c.clearRunLocked()
	c.runID = uuid.NewString()
	c.startedAt = c.now()
	c.media = &selected
	c.state = StateAwaitingTranscription
	c.completed = false
	runID := c.runID
	c.mu.Unlock()

	if hadTranslation {
		c.renderPreview(nil)
	}
	c.emit(ctx, Event{Kind: EventRunStarted, RunID: runID, Stage: StageUpload, MediaName: selected.Name, MediaSize: selected.SizeBytes})
	c.notify(ctx, notifications.Notice{
		Level:   notifications.LevelInfo,
		Title:   "File ready",
		Message: fmt.Sprintf("%s (%s)", selected.Name, media.HumanSize(selected.SizeBytes)),
		Stage:   StageUpload.String(),
	})
	return selected, nil
}
