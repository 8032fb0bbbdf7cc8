package subtitle_test

import (
	"slices"
	"testing"

	"subflow/internal/subtitle"
)

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "00:00:00.000"},
		{90.5, "00:01:30.500"},
		{3661.234, "01:01:01.234"},
		{59.9999, "00:00:59.999"},
		{86400 + 5, "24:00:05.000"},
		{360000, "100:00:00.000"},
		{-3, "00:00:00.000"},
		{1.001, "00:00:01.001"},
		{0.0009999995, "00:00:00.000"},
		{7199.999, "01:59:59.999"},
	}
	for _, tt := range tests {
		if got := subtitle.FormatTimecode(tt.input); got != tt.want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatSRTTimestamp(t *testing.T) {
	if got := subtitle.FormatSRTTimestamp(3661.234); got != "01:01:01,234" {
		t.Fatalf("FormatSRTTimestamp = %q", got)
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	for _, value := range []string{"00:01:30.500", "01:01:01,234"} {
		seconds, err := subtitle.ParseTimestamp(value)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", value, err)
		}
		if got := subtitle.FormatTimecode(seconds); got[:8] != value[:8] || got[9:] != value[9:] {
			t.Fatalf("round trip %q -> %q", value, got)
		}
	}
	if seconds, err := subtitle.ParseTimestamp("01:30.500"); err != nil || seconds != 90.5 {
		t.Fatalf("short form = %v, %v", seconds, err)
	}
	for _, bad := range []string{"", "1:2", "00:00:01", "aa:00:00.000", "1:00:00:00.000"} {
		if _, err := subtitle.ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", bad)
		}
	}
}

func TestRowsIsRestartable(t *testing.T) {
	segments := []subtitle.Segment{
		{Start: 0, End: 1.5, Text: "hello"},
		{Start: 1.5, End: 3, Text: "world"},
	}
	seq := subtitle.Rows(segments)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Fatalf("rows differ between iterations: %v vs %v", first, second)
	}
	want := subtitle.Row{Index: 2, Start: "00:00:01.500", End: "00:00:03.000", Text: "world"}
	if first[1] != want {
		t.Fatalf("row = %+v, want %+v", first[1], want)
	}

	segments[0].Text = "mutated"
	if again := slices.Collect(seq); again[0].Text != "hello" {
		t.Fatalf("rows should not observe caller mutation, got %q", again[0].Text)
	}
}

func TestRowsStopsEarly(t *testing.T) {
	segments := []subtitle.Segment{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	count := 0
	for range subtitle.Rows(segments) {
		count++
		if count == 1 {
			break
		}
	}
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
}

func TestPassThroughCopiesSegments(t *testing.T) {
	tr := subtitle.TranscriptionResult{
		Language: "fr",
		Segments: []subtitle.Segment{{Start: 0, End: 1, Text: "bonjour"}},
	}
	out := subtitle.PassThrough(tr)
	if out.Translated {
		t.Fatal("pass-through must not be marked translated")
	}
	if !slices.Equal(out.Segments, tr.Segments) {
		t.Fatalf("segments differ: %v", out.Segments)
	}
	out.Segments[0].Text = "changed"
	if tr.Segments[0].Text != "bonjour" {
		t.Fatal("pass-through shares backing array with transcription")
	}
}

func TestValidateSegments(t *testing.T) {
	if err := subtitle.ValidateSegments([]subtitle.Segment{{Start: 0, End: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := subtitle.ValidateSegments([]subtitle.Segment{{Start: 0, End: 1}, {Start: 2, End: 1}}); err == nil {
		t.Fatal("expected error for inverted segment")
	}
	if err := subtitle.ValidateSegments([]subtitle.Segment{{Start: -1, End: 1}}); err == nil {
		t.Fatal("expected error for negative start")
	}
}

func TestParseFormatAndCountCues(t *testing.T) {
	if got := subtitle.ParseFormat(" .SRT "); got != subtitle.FormatSRT {
		t.Fatalf("ParseFormat = %q", got)
	}
	if subtitle.FormatVTT.Extension() != ".vtt" {
		t.Fatal("unexpected extension")
	}
	data := []byte("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhi\n\n00:00:01.000 --> 00:00:02.000\nthere\n")
	if got := subtitle.CountCues(data); got != 2 {
		t.Fatalf("CountCues = %d", got)
	}

	mixed := []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n2\n00:01.000 --> 00:02.500 align:start\nthere\n\nnote --> not a cue\n")
	if got := subtitle.CountCues(mixed); got != 2 {
		t.Fatalf("CountCues(mixed) = %d", got)
	}
}
