package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subflow/internal/config"
	"subflow/internal/subtitle"
	"subflow/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	server     *testsupport.SubtitleServer
	configPath string
	mediaPath  string
}

var testSegments = []subtitle.Segment{
	{Start: 0, End: 1.5, Text: "hello there"},
	{Start: 1.5, End: 3.25, Text: "general kenobi"},
}

func setupCLITestEnv(t *testing.T, opts ...func(*config.Config)) *cliTestEnv {
	t.Helper()

	t.Setenv("SUBFLOW_BASE_URL", "")
	t.Setenv("SUBFLOW_API_TOKEN", "")
	t.Setenv("SUBFLOW_NTFY_TOPIC", "")

	srv := testsupport.NewSubtitleServer(t, "en", testSegments)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURL(srv.URL))
	for _, opt := range opts {
		opt(cfg)
	}

	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	mediaPath := filepath.Join(base, "media", "talk.wav")
	testsupport.WriteWAV(t, mediaPath, 4096)

	return &cliTestEnv{
		cfg:        cfg,
		server:     srv,
		configPath: configPath,
		mediaPath:  mediaPath,
	}
}

func (e *cliTestEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...), strings.NewReader(stdin))
}

func runCLI(t *testing.T, args []string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func forceInteractive(t *testing.T) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func(io.Reader) bool { return true }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
