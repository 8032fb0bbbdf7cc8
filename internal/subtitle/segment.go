package subtitle

import (
	"fmt"
	"slices"
)

// Segment is one timestamped span of subtitle text. Offsets are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks the ordering constraints of a single segment.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment start %.3f is negative", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("segment end %.3f precedes start %.3f", s.End, s.Start)
	}
	return nil
}

// TranscriptionResult is produced once per run by the transcription stage.
type TranscriptionResult struct {
	Language string    `json:"language"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration,omitempty"`
}

// Clone returns a deep copy of the result.
func (r TranscriptionResult) Clone() TranscriptionResult {
	r.Segments = slices.Clone(r.Segments)
	return r
}

// TranslationResult carries the segments that will be rendered and exported.
// Translated is false when the segments are a pass-through copy of the
// transcription.
type TranslationResult struct {
	Segments       []Segment `json:"segments"`
	SourceLanguage string    `json:"source_language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	Translated     bool      `json:"translated"`
}

// Clone returns a deep copy of the result.
func (r TranslationResult) Clone() TranslationResult {
	r.Segments = slices.Clone(r.Segments)
	return r
}

// PassThrough builds an untranslated result that mirrors the transcription
// segments one to one.
func PassThrough(tr TranscriptionResult) TranslationResult {
	segments := make([]Segment, len(tr.Segments))
	copy(segments, tr.Segments)
	return TranslationResult{
		Segments:       segments,
		SourceLanguage: tr.Language,
		TargetLanguage: tr.Language,
	}
}

// ValidateSegments checks every segment and returns the first violation with
// its 1-based cue number.
func ValidateSegments(segments []Segment) error {
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("cue %d: %w", i+1, err)
		}
	}
	return nil
}
