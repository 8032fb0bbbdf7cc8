package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"subflow/internal/config"
	"subflow/internal/history"
	"subflow/internal/pipeline"
	"subflow/internal/session"
	"subflow/internal/subtitle"
	"subflow/internal/testsupport"
)

func TestRunTranslatesAndDownloads(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "", "run", env.mediaPath, "--target", "fr", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var summary pipeline.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary %q: %v", out, err)
	}
	if summary.Segments != 2 || !summary.Translated || summary.TargetLanguage != "fr" || summary.SourceLanguage != "en" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	want := filepath.Join(env.cfg.Paths.DownloadDir, "talk.srt")
	if summary.Location != want {
		t.Fatalf("location = %q, want %q", summary.Location, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read subtitle: %v", err)
	}
	requireContains(t, string(data), "HELLO THERE")
	if got := subtitle.CountCues(data); got != 2 {
		t.Fatalf("expected 2 cues, got %d", got)
	}
	if cleaned := env.server.CleanedUp(); !slices.Equal(cleaned, []string{"/uploads/talk.wav"}) {
		t.Fatalf("unexpected cleanup calls %v", cleaned)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusCompleted || runs[0].Location != want {
		t.Fatalf("unexpected history %+v", runs)
	}
}

func TestRunSkipTranslationPrintsPreview(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "", "run", env.mediaPath, "--skip-translation", "--format", "vtt")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "hello there")
	requireContains(t, out, "00:00:01.500")
	requireContains(t, out, "Subtitle saved")
	requireContains(t, out, "not translated")
	if env.server.Calls("translate") != 0 {
		t.Fatalf("translate should be skipped, got %d calls", env.server.Calls("translate"))
	}
	data, err := os.ReadFile(filepath.Join(env.cfg.Paths.DownloadDir, "talk.vtt"))
	if err != nil {
		t.Fatalf("read subtitle: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") {
		t.Fatalf("expected WebVTT output, got %q", data)
	}
}

func TestRunWritesToOutDir(t *testing.T) {
	env := setupCLITestEnv(t)
	outDir := filepath.Join(t.TempDir(), "subs")

	if _, _, err := env.run(t, "", "run", env.mediaPath, "--skip-translation", "--no-preview", "--out", outDir); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "talk.srt")); err != nil {
		t.Fatalf("expected subtitle in --out dir: %v", err)
	}
}

func TestRunRetriesFailedStageWhenConfirmed(t *testing.T) {
	env := setupCLITestEnv(t)
	forceInteractive(t)
	env.server.FailNext("transcribe", 1)

	_, stderr, err := env.run(t, "y\n", "run", env.mediaPath, "--skip-translation", "--no-preview")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, stderr, "Transcribe failed. Retry?")
	if env.server.Calls("transcribe") != 2 {
		t.Fatalf("expected 2 transcribe calls, got %d", env.server.Calls("transcribe"))
	}
	// The first upload is released after the failed transcription, the second
	// after download.
	if len(env.server.CleanedUp()) != 2 {
		t.Fatalf("expected 2 cleanups, got %v", env.server.CleanedUp())
	}
}

func TestRunDeclinedRetryFails(t *testing.T) {
	env := setupCLITestEnv(t)
	forceInteractive(t)
	env.server.FailNext("transcribe", 1)

	_, _, err := env.run(t, "n\n", "run", env.mediaPath)
	if err == nil {
		t.Fatal("expected failure")
	}
	if env.server.Calls("transcribe") != 1 {
		t.Fatalf("expected a single transcribe call, got %d", env.server.Calls("transcribe"))
	}
}

func TestRunFailureReleasesUploadAndReports(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) { cfg.Service.ReportErrors = true })
	env.server.FailNext("translate", 1)

	_, stderr, err := env.run(t, "", "run", env.mediaPath, "--target", "de")
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, stderr, "Translate failed")
	if cleaned := env.server.CleanedUp(); len(cleaned) != 1 {
		t.Fatalf("expected upload released after giving up, got %v", cleaned)
	}
	reports := env.server.Reports()
	if len(reports) != 1 || reports[0]["function"] != "translate" {
		t.Fatalf("unexpected error reports %v", reports)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, _ := store.List(context.Background(), 0)
	if len(runs) != 1 || runs[0].Status != history.StatusFailed || runs[0].FinishedAt == nil {
		t.Fatalf("expected closed failed run, got %+v", runs)
	}
}

func TestRunRejectsUnsupportedMedia(t *testing.T) {
	env := setupCLITestEnv(t)
	notes := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notes, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := env.run(t, "", "run", notes)
	if err == nil {
		t.Fatal("expected rejection")
	}
	requireContains(t, stderr, "[warn]")
	if env.server.Calls("upload") != 0 {
		t.Fatal("rejected media must not be uploaded")
	}
}

func TestRunRejectsUnconfiguredFormatBeforeUpload(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "", "run", env.mediaPath, "--format", "ass")
	if err == nil || !strings.Contains(err.Error(), `unsupported --format "ass"`) {
		t.Fatalf("expected format error, got %v", err)
	}
	if env.server.Calls("upload") != 0 {
		t.Fatal("a run with an unusable format must not upload")
	}
}

func TestRunRefusesConcurrentSession(t *testing.T) {
	env := setupCLITestEnv(t)
	lock, err := session.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = lock.Release() })

	_, _, err = env.run(t, "", "run", env.mediaPath)
	if !errors.Is(err, session.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestArtifactFilename(t *testing.T) {
	tests := []struct {
		artifact subtitle.Artifact
		want     string
	}{
		{subtitle.Artifact{Filename: "talk.srt", Format: subtitle.FormatSRT}, "talk.srt"},
		{subtitle.Artifact{Filename: "../../etc/passwd", Format: subtitle.FormatVTT}, "passwd.vtt"},
		{subtitle.Artifact{Format: subtitle.FormatSRT}, "subtitles.srt"},
	}
	for _, tt := range tests {
		if got := artifactFilename(tt.artifact); got != tt.want {
			t.Errorf("artifactFilename(%+v) = %q, want %q", tt.artifact, got, tt.want)
		}
	}
}
