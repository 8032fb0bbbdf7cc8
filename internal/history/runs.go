package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Run is one recorded pipeline run.
type Run struct {
	RunID          string     `json:"run_id"`
	MediaName      string     `json:"media_name"`
	MediaSize      int64      `json:"media_size"`
	Status         Status     `json:"status"`
	Stage          string     `json:"stage"`
	SourceLanguage string     `json:"source_language,omitempty"`
	TargetLanguage string     `json:"target_language,omitempty"`
	Format         string     `json:"format,omitempty"`
	Segments       int        `json:"segments"`
	Location       string     `json:"location,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CleanupFailed  bool       `json:"cleanup_failed"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

const runColumns = `run_id, media_name, media_size, status, stage, source_language, target_language,
	format, segments, location, last_error, cleanup_failed, started_at, updated_at, finished_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Start inserts a new running row.
func (s *Store) Start(ctx context.Context, runID, mediaName string, mediaSize int64, at time.Time) error {
	if runID == "" {
		return errors.New("history: run id is required")
	}
	ts := formatTime(at)
	_, err := s.exec(ctx,
		`INSERT INTO runs (run_id, media_name, media_size, status, stage, started_at, updated_at)
		 VALUES (?, ?, ?, ?, 'upload', ?, ?)`,
		runID, mediaName, mediaSize, StatusRunning, ts, ts)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Advance marks stage as the run's latest progress and clears any error.
func (s *Store) Advance(ctx context.Context, runID, stage string, at time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE runs SET status = ?, stage = ?, last_error = '', updated_at = ? WHERE run_id = ? AND finished_at IS NULL`,
		StatusRunning, stage, formatTime(at), runID)
	if err != nil {
		return fmt.Errorf("advance run: %w", err)
	}
	return nil
}

// Fail records a stage failure. The run stays open for a retry.
func (s *Store) Fail(ctx context.Context, runID, stage, message string, at time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE runs SET status = ?, stage = ?, last_error = ?, updated_at = ? WHERE run_id = ? AND finished_at IS NULL`,
		StatusFailed, stage, message, formatTime(at), runID)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// MarkCleanupFailed flags that the uploaded file could not be removed.
func (s *Store) MarkCleanupFailed(ctx context.Context, runID string, at time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE runs SET cleanup_failed = 1, updated_at = ? WHERE run_id = ?`,
		formatTime(at), runID)
	if err != nil {
		return fmt.Errorf("record cleanup failure: %w", err)
	}
	return nil
}

// Completion carries the details stored when a run finishes.
type Completion struct {
	SourceLanguage string
	TargetLanguage string
	Format         string
	Segments       int
	Location       string
	CleanupFailed  bool
}

// Complete closes the run as completed.
func (s *Store) Complete(ctx context.Context, runID string, c Completion, at time.Time) error {
	ts := formatTime(at)
	_, err := s.exec(ctx,
		`UPDATE runs SET status = ?, stage = 'download', source_language = ?, target_language = ?, format = ?,
		 segments = ?, location = ?, last_error = '', cleanup_failed = MAX(cleanup_failed, ?), updated_at = ?, finished_at = ?
		 WHERE run_id = ?`,
		StatusCompleted, c.SourceLanguage, c.TargetLanguage, c.Format, c.Segments, c.Location,
		boolToInt(c.CleanupFailed), ts, ts, runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// closeStatus keeps a failed run marked failed when it is closed.
const closeStatus = `CASE WHEN status = 'failed' THEN status ELSE ? END`

// Abandon closes an unfinished run after a reset or a new selection. Failed
// runs keep their status and error.
func (s *Store) Abandon(ctx context.Context, runID string, at time.Time) error {
	ts := formatTime(at)
	_, err := s.exec(ctx,
		`UPDATE runs SET status = `+closeStatus+`, updated_at = ?, finished_at = ? WHERE run_id = ? AND finished_at IS NULL`,
		StatusAbandoned, ts, ts, runID)
	if err != nil {
		return fmt.Errorf("abandon run: %w", err)
	}
	return nil
}

// AbandonOpen closes every unfinished run. A new process cannot resume them.
func (s *Store) AbandonOpen(ctx context.Context, at time.Time) (int64, error) {
	ts := formatTime(at)
	n, err := s.exec(ctx,
		`UPDATE runs SET status = `+closeStatus+`, updated_at = ?, finished_at = ? WHERE finished_at IS NULL`,
		StatusAbandoned, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("abandon open runs: %w", err)
	}
	return n, nil
}

// Get returns a run by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. A limit of 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Clear deletes every recorded run and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run              Run
		status           string
		cleanup          int
		started, updated string
		finished         sql.NullString
	)
	if err := row.Scan(&run.RunID, &run.MediaName, &run.MediaSize, &status, &run.Stage,
		&run.SourceLanguage, &run.TargetLanguage, &run.Format, &run.Segments, &run.Location,
		&run.LastError, &cleanup, &started, &updated, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.CleanupFailed = cleanup != 0
	run.StartedAt = parseTime(started)
	run.UpdatedAt = parseTime(updated)
	if finished.Valid && finished.String != "" {
		t := parseTime(finished.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
