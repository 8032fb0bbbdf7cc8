package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subflow/internal/config"
)

const userAgent = "subflow/0.1.0"

// NewSink builds the sink set for a CLI session: the console sink plus ntfy
// when a topic is configured.
func NewSink(cfg *config.Config, console io.Writer, colorize bool) Sink {
	var sinks []Sink
	if console != nil {
		sinks = append(sinks, NewConsole(console, colorize))
	}
	if cfg != nil {
		if ntfy := NewNtfy(cfg.Notifications); ntfy != nil {
			sinks = append(sinks, ntfy)
		}
	}
	return Multi(sinks...)
}

// Ntfy publishes notices to an ntfy topic URL. Levels can be muted per config.
type Ntfy struct {
	endpoint string
	client   *http.Client
	success  bool
	warnings bool
	errors   bool
}

// NewNtfy returns nil when no topic is configured.
func NewNtfy(cfg config.Notifications) *Ntfy {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return nil
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Ntfy{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		success:  cfg.Success,
		warnings: cfg.Warnings,
		errors:   cfg.Errors,
	}
}

// Notify implements Sink.
func (n *Ntfy) Notify(ctx context.Context, notice Notice) error {
	if n == nil || n.client == nil || !n.enabled(notice.Level) {
		return nil
	}
	title := "Subflow"
	if t := strings.TrimSpace(notice.Title); t != "" {
		title = "Subflow - " + t
	}
	tags := []string{"subflow", string(notice.Level)}
	if notice.Stage != "" {
		tags = append(tags, notice.Stage)
	}
	priority := ""
	if notice.Level == LevelDanger {
		priority = "high"
	}
	return n.send(ctx, title, strings.TrimSpace(notice.Message), tags, priority)
}

func (n *Ntfy) enabled(level Level) bool {
	switch level {
	case LevelSuccess:
		return n.success
	case LevelWarning:
		return n.warnings
	case LevelDanger:
		return n.errors
	default:
		return false
	}
}

func (n *Ntfy) send(ctx context.Context, title, message string, tags []string, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
