package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiCyan   = "\033[36m"
)

// Console writes one line per notice, optionally colorized by level.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
}

// NewConsole returns a console sink writing to w.
func NewConsole(w io.Writer, colorize bool) *Console {
	return &Console{w: w, colorize: colorize}
}

// Notify implements Sink.
func (c *Console) Notify(_ context.Context, notice Notice) error {
	if c == nil || c.w == nil {
		return nil
	}
	label := levelLabel(notice.Level)
	if c.colorize {
		label = levelColor(notice.Level) + label + ansiReset
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", label, notice.Text())
	return err
}

func levelLabel(level Level) string {
	switch level {
	case LevelSuccess:
		return "[ok]"
	case LevelWarning:
		return "[warn]"
	case LevelDanger:
		return "[error]"
	default:
		return "[info]"
	}
}

func levelColor(level Level) string {
	switch level {
	case LevelSuccess:
		return ansiGreen
	case LevelWarning:
		return ansiYellow
	case LevelDanger:
		return ansiRed
	default:
		return ansiCyan
	}
}
