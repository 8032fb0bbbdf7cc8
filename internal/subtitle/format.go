package subtitle

import (
	"bufio"
	"bytes"
	"strings"
)

// Format names a subtitle file format understood by the generation service.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(value string) Format {
	return Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "."))
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	if f == "" {
		return ""
	}
	return "." + string(f)
}

// CountCues counts timed cues in SRT or WebVTT content. A timing line only
// counts when both of its timestamps parse.
func CountCues(data []byte) int {
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		start, rest, ok := strings.Cut(scanner.Text(), "-->")
		if !ok {
			continue
		}
		// WebVTT allows cue settings after the end timestamp.
		end, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if _, err := ParseTimestamp(start); err != nil {
			continue
		}
		if _, err := ParseTimestamp(end); err != nil {
			continue
		}
		count++
	}
	return count
}

// Artifact references a generated subtitle file on the remote service.
type Artifact struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Format      Format `json:"format"`
}
