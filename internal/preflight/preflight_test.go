package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subflow/internal/language"
	"subflow/internal/remote"
	"subflow/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type languageFunc func(ctx context.Context) (language.Catalog, error)

func (f languageFunc) Languages(ctx context.Context) (language.Catalog, error) { return f(ctx) }

func TestCheckService_OK(t *testing.T) {
	source := languageFunc(func(context.Context) (language.Catalog, error) {
		return language.Catalog{
			Transcription: map[string]string{"en": "english"},
			Translation:   map[string]string{"en": "English", "fr": "French"},
		}, nil
	})
	result := CheckService(context.Background(), source)
	if !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 transcription, 2 translation") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckService_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", context.DeadlineExceeded, "timed out"},
		{"auth", &remote.StatusError{Op: "languages", StatusCode: http.StatusUnauthorized}, "api_token"},
		{"server", &remote.StatusError{Op: "languages", StatusCode: http.StatusBadGateway}, "(502)"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := languageFunc(func(context.Context) (language.Catalog, error) { return language.Catalog{}, tt.err })
			result := CheckService(context.Background(), source)
			if result.Passed {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Detail, tt.want) {
				t.Fatalf("detail %q missing %q", result.Detail, tt.want)
			}
		})
	}
}

func TestCheckService_Nil(t *testing.T) {
	if CheckService(context.Background(), nil).Passed {
		t.Fatal("expected failure for nil source")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_HealthyService(t *testing.T) {
	srv := testsupport.NewSubtitleServer(t, "en", nil)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURL(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if srv.Calls("languages") != 1 {
		t.Fatalf("expected one languages call, got %d", srv.Calls("languages"))
	}
}

func TestRunAll_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURL(srv.URL), testsupport.WithHistoryDisabled())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Subtitle service" {
		t.Fatalf("expected only the service check to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Detail, "(503)") {
		t.Fatalf("unexpected detail %q", failed[0].Detail)
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := CheckNotificationsFromConfig(cfg); !got.Passed || got.Detail != "Console only" {
		t.Fatalf("unexpected result %+v", got)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/subs"
	cfg.Notifications.Warnings = true
	got := CheckNotificationsFromConfig(cfg)
	if !strings.Contains(got.Detail, "success, warnings, errors") {
		t.Fatalf("unexpected detail %q", got.Detail)
	}
}
