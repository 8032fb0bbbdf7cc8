package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	line := renderStatusLine("Subtitle service", statusOK, "reachable", false)
	if !strings.Contains(line, "Subtitle service:") || !strings.Contains(line, "[OK] reachable") {
		t.Fatalf("unexpected line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatal("expected no ANSI codes")
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	line := renderStatusLine("Run history", statusError, "locked", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red line, got %q", line)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
	if stdinIsTerminal(strings.NewReader("y")) {
		t.Fatal("readers are never terminals")
	}
}

func TestRenderTableWrapsLongColumns(t *testing.T) {
	out := renderTable([]column{{Header: "#", Align: alignRight}, {Header: "Text", MaxWidth: 10}},
		[][]string{{"1", "a fairly long subtitle line"}})
	if !strings.Contains(out, "Text") || strings.Count(out, "\n") < 4 {
		t.Fatalf("unexpected table %q", out)
	}
}
