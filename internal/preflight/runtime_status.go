package preflight

import (
	"context"
	"fmt"
	"strings"

	"subflow/internal/config"
	"subflow/internal/history"
	"subflow/internal/remote"
)

// CheckServiceFromConfig builds a remote client from config and checks it.
func CheckServiceFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Subtitle service"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Service.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing base_url"}
	}
	client, err := remote.NewFromConfig(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	check := CheckService(ctx, client)
	check.Detail = fmt.Sprintf("%s: %s", client.BaseURL(), check.Detail)
	return check
}

// CheckHistoryFromConfig opens the history database and counts recorded runs.
func CheckHistoryFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Run history"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.History.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	store, err := history.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	defer store.Close()

	runs, err := store.List(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", store.Path(), len(runs))}
}

// CheckNotificationsFromConfig describes the ntfy setup. It never fails; a
// missing topic only means notices stay on the console.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Console only"}
	}
	var levels []string
	if cfg.Notifications.Success {
		levels = append(levels, "success")
	}
	if cfg.Notifications.Warnings {
		levels = append(levels, "warnings")
	}
	if cfg.Notifications.Errors {
		levels = append(levels, "errors")
	}
	if len(levels) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (all levels muted)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(levels, ", "))}
}
