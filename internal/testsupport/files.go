package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteWAV writes a minimal RIFF/WAVE header padded to size bytes so media
// sniffing identifies the file as audio regardless of the host mime tables.
func WriteWAV(t testing.TB, path string, size int) {
	t.Helper()

	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	if size < len(header)+64 {
		size = len(header) + 64
	}
	data := make([]byte, size)
	copy(data, header)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
