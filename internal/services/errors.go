package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrRemote        = errors.New("remote call failed")
	ErrCleanup       = errors.New("cleanup failed")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
	ErrSuperseded    = errors.New("superseded by reset")
)

// Kind groups errors by how the pipeline surfaces them to the user.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRemote     Kind = "remote"
	KindCleanup    Kind = "cleanup"
	KindSuperseded Kind = "superseded"
	KindCanceled   Kind = "canceled"
	KindOther      Kind = "other"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the Kind the controller uses to pick a notice level.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSuperseded):
		return KindSuperseded
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return KindValidation
	case errors.Is(err, ErrCleanup):
		return KindCleanup
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrRemote), errors.Is(err, ErrTransient):
		return KindRemote
	default:
		return KindOther
	}
}

// Message returns the trailing human-readable portion of a wrapped error,
// dropping the marker prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrValidation, ErrRemote, ErrCleanup, ErrConfiguration, ErrTransient, ErrSuperseded} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
