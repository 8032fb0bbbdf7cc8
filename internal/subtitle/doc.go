// Package subtitle holds the segment data model that flows through the
// pipeline, the timecode formatters used to render it, and the row projection
// used for previews.
//
// Segments are plain values. Results handed out by the pipeline are copies, so
// callers may keep or mutate them without affecting controller state.
package subtitle
