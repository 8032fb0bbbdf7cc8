// Package pipeline drives one media file through upload, transcription,
// optional translation, and subtitle download.
//
// Controller owns the run state exclusively and exposes one method per user
// action. Each stage validates its preconditions, marks itself busy, performs
// its remote calls without holding the lock, and applies the result only if
// no reset or new selection happened in the meantime. A generation counter
// makes that check: responses that arrive for an older generation are dropped
// and the call returns ErrSuperseded.
//
// Presentation and observability are collaborators chosen at construction:
// a notifications.Sink for user-facing notices, an Observer for structured
// events (logging, history, remote error reporting), a PreviewFunc that
// receives the rendered rows whenever the translation changes, and a Navigator
// that delivers the generated artifact.
package pipeline
