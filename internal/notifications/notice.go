package notifications

import (
	"context"
	"errors"
	"strings"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notice is a transient user-facing message.
type Notice struct {
	Level   Level
	Title   string
	Message string
	Stage   string
}

// Text returns the message with the title prefixed when present.
func (n Notice) Text() string {
	title := strings.TrimSpace(n.Title)
	message := strings.TrimSpace(n.Message)
	switch {
	case title == "":
		return message
	case message == "":
		return title
	default:
		return title + ": " + message
	}
}

// Sink receives notices.
type Sink interface {
	Notify(ctx context.Context, notice Notice) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, notice Notice) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, notice Notice) error { return f(ctx, notice) }

// Noop discards every notice.
type Noop struct{}

// Notify implements Sink.
func (Noop) Notify(context.Context, Notice) error { return nil }

type multiSink []Sink

// Multi delivers each notice to every sink and joins their errors. Nil sinks
// are skipped.
func Multi(sinks ...Sink) Sink {
	filtered := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	switch len(filtered) {
	case 0:
		return Noop{}
	case 1:
		return filtered[0]
	default:
		return filtered
	}
}

func (m multiSink) Notify(ctx context.Context, notice Notice) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
