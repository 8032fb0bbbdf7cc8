package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"subflow/internal/config"
	"subflow/internal/history"
	"subflow/internal/logging"
	"subflow/internal/media"
	"subflow/internal/notifications"
	"subflow/internal/pipeline"
	"subflow/internal/remote"
	"subflow/internal/services"
	"subflow/internal/session"
	"subflow/internal/subtitle"
)

type runOptions struct {
	source          string
	target          string
	skipTranslation bool
	format          string
	outDir          string
	copyURL         bool
	noPreview       bool
	jsonOutput      bool
}

// withDefaults fills unset options from the pipeline config section.
func (o runOptions) withDefaults(cfg *config.Config) (runOptions, error) {
	if strings.TrimSpace(o.source) == "" {
		o.source = cfg.Pipeline.SourceLanguage
	}
	if strings.TrimSpace(o.target) == "" {
		o.target = cfg.Pipeline.TargetLanguage
	}
	if cfg.Pipeline.SkipTranslation {
		o.skipTranslation = true
	}
	if strings.TrimSpace(o.format) == "" {
		o.format = cfg.Pipeline.SubtitleFormat
	}
	if !cfg.SupportsFormat(string(subtitle.ParseFormat(o.format))) {
		return o, fmt.Errorf("unsupported --format %q (configured: %s)", o.format, strings.Join(cfg.Pipeline.SubtitleFormats, ", "))
	}
	if strings.TrimSpace(o.outDir) == "" {
		o.outDir = cfg.Paths.DownloadDir
	} else {
		expanded, err := config.ExpandPath(o.outDir)
		if err != nil {
			return o, fmt.Errorf("resolve --out: %w", err)
		}
		o.outDir = expanded
	}
	return o, nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Upload a media file and download its subtitles",
		Long: `Run the full subtitle pipeline for one audio or video file:
upload and transcribe, translate (or skip), then generate and download the
subtitle file. In an interactive terminal a failed stage can be retried once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, err := opts.withDefaults(cfg)
			if err != nil {
				return err
			}
			client, err := ctx.remoteClient()
			if err != nil {
				return err
			}
			return executeRun(cmd, cfg, client, ctx.log(), args[0], resolved)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Spoken language code, or auto to detect (default from config)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Translation target language code (default from config)")
	cmd.Flags().BoolVar(&opts.skipTranslation, "skip-translation", false, "Keep the transcription language")
	cmd.Flags().StringVar(&opts.format, "format", "", "Subtitle format (default from config)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for the downloaded subtitle file (default paths.download_dir)")
	cmd.Flags().BoolVar(&opts.copyURL, "copy-url", false, "Copy the artifact URL to the clipboard")
	cmd.Flags().BoolVar(&opts.noPreview, "no-preview", false, "Do not print the subtitle preview table")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func executeRun(cmd *cobra.Command, cfg *config.Config, client *remote.Client, logger *slog.Logger, file string, opts runOptions) error {
	lock, err := session.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("session lock release failed", logging.Error(err))
		}
	}()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log*",
		Exclude: []string{cfg.LogPath()},
	})

	path, err := config.ExpandPath(file)
	if err != nil {
		return fmt.Errorf("resolve media path: %w", err)
	}
	candidate, err := media.FromPath(path)
	if err != nil {
		return err
	}

	observers := []pipeline.Observer{pipeline.LogObserver(logger)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on paths.state_dir"),
				logging.String(logging.FieldImpact, "this run will not be recorded"),
			)
		} else {
			defer store.Close()
			observers = append(observers, store.Observer(logger))
		}
	}
	if cfg.Service.ReportErrors {
		observers = append(observers, remote.ErrorReporter(client, logger))
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	formats := make([]subtitle.Format, 0, len(cfg.Pipeline.SubtitleFormats))
	for _, f := range cfg.Pipeline.SubtitleFormats {
		formats = append(formats, subtitle.ParseFormat(f))
	}

	controllerOpts := []pipeline.Option{
		pipeline.WithNotifier(notifications.NewSink(cfg, stderr, shouldColorize(stderr))),
		pipeline.WithObserver(pipeline.Observers(observers...)),
		pipeline.WithGate(media.Gate{MaxBytes: cfg.MaxUploadBytes()}),
		pipeline.WithSelectionDelay(cfg.SelectionDelay()),
		pipeline.WithNavigator(newDownloadNavigator(client, opts.outDir, logger)),
		pipeline.WithFormats(formats...),
		pipeline.WithLogger(logger),
	}
	if !opts.noPreview && !opts.jsonOutput {
		controllerOpts = append(controllerOpts, pipeline.WithPreview(func(rows iter.Seq[subtitle.Row]) {
			printPreview(stdout, rows)
		}))
	}
	ctrl := pipeline.New(client, controllerOpts...)

	runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
	if _, err := ctrl.LoadLanguages(runCtx); err != nil {
		logger.Debug("language catalog unavailable; accepting any language", logging.Error(err))
	}
	if _, err := ctrl.SelectMedia(runCtx, candidate); err != nil {
		return err
	}

	r := &stageRunner{
		ctrl:        ctrl,
		in:          bufio.NewReader(cmd.InOrStdin()),
		prompt:      stderr,
		interactive: !opts.jsonOutput && stdinIsTerminal(cmd.InOrStdin()),
	}
	// Abandon must reach the service even after an interrupt.
	giveUp := func(err error) error {
		ctrl.Abandon(context.WithoutCancel(runCtx))
		return err
	}

	if err := r.attempt(pipeline.StageTranscribe, func() error {
		_, err := ctrl.BeginTranscription(runCtx, opts.source)
		return err
	}); err != nil {
		return giveUp(err)
	}

	if err := r.attempt(pipeline.StageTranslate, func() error {
		_, err := ctrl.BeginTranslation(runCtx, pipeline.TranslateRequest{
			Skip:           opts.skipTranslation,
			SourceLanguage: opts.source,
			TargetLanguage: opts.target,
		})
		return err
	}); err != nil {
		return giveUp(err)
	}

	var summary pipeline.Summary
	if err := r.attempt(pipeline.StageDownload, func() error {
		var err error
		summary, err = ctrl.Download(runCtx, pipeline.DownloadRequest{Format: subtitle.ParseFormat(opts.format)})
		return err
	}); err != nil {
		return giveUp(err)
	}

	if opts.copyURL {
		copyArtifactURL(client, summary.Artifact, stderr, logger)
	}
	if opts.jsonOutput {
		return writeJSON(cmd, summary)
	}
	printSummary(stdout, summary)
	return nil
}

// stageRunner retries a failed stage once when the user confirms at a
// terminal. Only remote failures are retryable.
type stageRunner struct {
	ctrl        *pipeline.Controller
	in          *bufio.Reader
	prompt      io.Writer
	interactive bool
}

func (r *stageRunner) attempt(stage pipeline.Stage, fn func() error) error {
	err := fn()
	if err == nil || !r.interactive || services.Classify(err) != services.KindRemote {
		return err
	}
	if !r.confirm(fmt.Sprintf("%s failed. Retry? [y/N] ", stage.Title())) {
		return err
	}
	return fn()
}

func (r *stageRunner) confirm(question string) bool {
	fmt.Fprint(r.prompt, question)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printPreview(w io.Writer, rows iter.Seq[subtitle.Row]) {
	var body [][]string
	for row := range rows {
		body = append(body, []string{fmt.Sprintf("%d", row.Index), row.Start, row.End, row.Text})
	}
	if len(body) == 0 {
		return
	}
	fmt.Fprintln(w, renderTable([]column{
		{Header: "#", Align: alignRight},
		{Header: "Start"},
		{Header: "End"},
		{Header: "Text", MaxWidth: 60},
	}, body))
}

func printSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "Subtitle saved: %s\n", s.Location)
	fmt.Fprintf(w, "  Format:     %s\n", s.Format)
	fmt.Fprintf(w, "  Segments:   %d\n", s.Segments)
	switch {
	case s.Translated:
		fmt.Fprintf(w, "  Languages:  %s -> %s\n", displayLanguage(s.SourceLanguage), displayLanguage(s.TargetLanguage))
	case s.SourceLanguage != "":
		fmt.Fprintf(w, "  Language:   %s (not translated)\n", displayLanguage(s.SourceLanguage))
	}
	if s.CleanupFailed {
		fmt.Fprintln(w, "  Cleanup:    failed (uploaded file remains on the server)")
	}
}

func copyArtifactURL(client *remote.Client, artifact subtitle.Artifact, stderr io.Writer, logger *slog.Logger) {
	url, err := client.ResolveURL(artifact.DownloadURL)
	if err == nil {
		err = clipboard.WriteAll(url)
	}
	if err != nil {
		logger.Warn("copy artifact url failed", logging.Error(err))
		fmt.Fprintf(stderr, "Could not copy the download URL: %v\n", err)
		return
	}
	fmt.Fprintf(stderr, "Copied %s to the clipboard\n", url)
}
