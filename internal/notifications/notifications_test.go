package notifications_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"subflow/internal/config"
	"subflow/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func TestNewNtfyReturnsNilWithoutTopic(t *testing.T) {
	cfg := config.Default()
	if notifications.NewNtfy(cfg.Notifications) != nil {
		t.Fatal("expected nil ntfy sink without topic")
	}
}

func TestNtfyPublishesEnabledLevels(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Warnings = false

	sink := notifications.NewNtfy(cfg.Notifications)
	ctx := context.Background()

	if err := sink.Notify(ctx, notifications.Notice{Level: notifications.LevelSuccess, Title: "Done", Message: "subtitle downloaded", Stage: "download"}); err != nil {
		t.Fatalf("notify success: %v", err)
	}
	if err := sink.Notify(ctx, notifications.Notice{Level: notifications.LevelWarning, Message: "muted"}); err != nil {
		t.Fatalf("notify warning: %v", err)
	}
	if err := sink.Notify(ctx, notifications.Notice{Level: notifications.LevelDanger, Title: "Failed", Message: "transcription failed"}); err != nil {
		t.Fatalf("notify danger: %v", err)
	}

	got := requests()
	if len(got) != 2 {
		t.Fatalf("expected 2 published notices, got %d", len(got))
	}
	if got[0].title != "Subflow - Done" || got[0].body != "subtitle downloaded" || got[0].tags != "subflow,success,download" {
		t.Fatalf("unexpected success request %+v", got[0])
	}
	if got[1].priority != "high" {
		t.Fatalf("expected high priority for danger, got %q", got[1].priority)
	}
}

func TestNtfyReportsHTTPFailure(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusInternalServerError)
	sink := notifications.NewNtfy(config.Notifications{NtfyTopic: srv.URL, Errors: true})
	err := sink.Notify(context.Background(), notifications.Notice{Level: notifications.LevelDanger, Message: "x"})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestConsoleRendersLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := notifications.NewConsole(&buf, false)
	_ = sink.Notify(context.Background(), notifications.Notice{Level: notifications.LevelWarning, Message: "upload a file first"})
	_ = sink.Notify(context.Background(), notifications.Notice{Level: notifications.LevelSuccess, Title: "Transcription", Message: "12 segments"})

	want := "[warn] upload a file first\n[ok] Transcription: 12 segments\n"
	if buf.String() != want {
		t.Fatalf("console output = %q, want %q", buf.String(), want)
	}
}

func TestConsoleColorize(t *testing.T) {
	var buf bytes.Buffer
	_ = notifications.NewConsole(&buf, true).Notify(context.Background(), notifications.Notice{Level: notifications.LevelDanger, Message: "boom"})
	if !strings.HasPrefix(buf.String(), "\033[31m[error]\033[0m") {
		t.Fatalf("expected red label, got %q", buf.String())
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	var delivered int
	ok := notifications.SinkFunc(func(context.Context, notifications.Notice) error {
		delivered++
		return nil
	})
	failing := notifications.SinkFunc(func(context.Context, notifications.Notice) error {
		return errors.New("down")
	})

	sink := notifications.Multi(ok, nil, failing, ok)
	err := sink.Notify(context.Background(), notifications.Notice{Level: notifications.LevelInfo})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}

	if _, ok := notifications.Multi().(notifications.Noop); !ok {
		t.Fatal("expected noop for empty fan-out")
	}
}

func TestNewSinkWithoutTopicIsConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	sink := notifications.NewSink(&cfg, &buf, false)
	if err := sink.Notify(context.Background(), notifications.Notice{Level: notifications.LevelInfo, Message: "hello"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if buf.String() != "[info] hello\n" {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}
