// Package remote talks to the subtitle service over its HTTP API.
//
// Client covers upload, transcription, translation, subtitle generation,
// cleanup, the language catalog, artifact fetches, and error reporting. Every
// failure is tagged with services.ErrRemote; non-2xx responses surface as
// *StatusError carrying the service's own error message when it sent one.
package remote
