// Package language normalizes language codes and builds the catalogs shown in
// the source and target pickers.
//
// Codes are lowercase ISO 639-1 where one exists. The special code "auto"
// asks the transcription service to detect the spoken language and is only
// valid as a source language.
package language
