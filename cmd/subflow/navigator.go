package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subflow/internal/fileutil"
	"subflow/internal/language"
	"subflow/internal/logging"
	"subflow/internal/pipeline"
	"subflow/internal/remote"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

// newDownloadNavigator saves generated artifacts into dir and returns the
// local path. The file only appears once the whole body has been fetched.
func newDownloadNavigator(client *remote.Client, dir string, logger *slog.Logger) pipeline.Navigator {
	logger = logging.NewComponentLogger(logger, "download")
	return pipeline.NavigatorFunc(func(ctx context.Context, artifact subtitle.Artifact) (string, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", services.Wrap(services.ErrConfiguration, "download", "save", "create download directory", err)
		}

		var buf bytes.Buffer
		if _, err := client.Fetch(ctx, artifact.DownloadURL, &buf); err != nil {
			return "", err
		}

		target := filepath.Join(dir, artifactFilename(artifact))
		if err := fileutil.WriteAtomic(target, buf.Bytes(), 0o644); err != nil {
			return "", services.Wrap(services.ErrConfiguration, "download", "save", target, err)
		}

		attrs := []any{
			logging.String("path", target),
			logging.Int("bytes", buf.Len()),
		}
		if artifact.Format != subtitle.FormatJSON {
			attrs = append(attrs, logging.Int("cues", subtitle.CountCues(buf.Bytes())))
		}
		logger.Info("subtitle saved", attrs...)
		return target, nil
	})
}

// artifactFilename returns a safe local name for the artifact.
func artifactFilename(artifact subtitle.Artifact) string {
	name := fileutil.SanitizeFileName(filepath.Base(strings.TrimSpace(artifact.Filename)))
	if name == "" {
		name = "subtitles"
	}
	if ext := artifact.Format.Extension(); ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

func displayLanguage(code string) string {
	if code == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}
