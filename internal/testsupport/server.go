package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"subflow/internal/subtitle"
)

// SubtitleServer is an in-memory stand-in for the remote subtitle service.
type SubtitleServer struct {
	*httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	failures  map[string]int
	segments  []subtitle.Segment
	language  string
	files     map[string]string
	cleanedUp []string
	reports   []map[string]any
}

// NewSubtitleServer starts a server that transcribes every upload into the
// given segments and "translates" by uppercasing text.
func NewSubtitleServer(t testing.TB, lang string, segments []subtitle.Segment) *SubtitleServer {
	t.Helper()
	s := &SubtitleServer{
		calls:    map[string]int{},
		failures: map[string]int{},
		segments: segments,
		language: lang,
		files:    map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/generate-subtitle", s.handleGenerate)
	mux.HandleFunc("POST /api/process-complete", s.handleCleanup)
	mux.HandleFunc("POST /api/log-error", s.handleLogError)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("GET /download/{name}", s.handleDownload)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next n calls to the endpoint (e.g. "transcribe") return 500.
func (s *SubtitleServer) FailNext(endpoint string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = n
}

// Calls returns how often the endpoint was hit.
func (s *SubtitleServer) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// CleanedUp returns the file paths released through process-complete.
func (s *SubtitleServer) CleanedUp() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cleanedUp...)
}

// Reports returns the bodies posted to log-error.
func (s *SubtitleServer) Reports() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.reports...)
}

func (s *SubtitleServer) enter(w http.ResponseWriter, endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[endpoint]++
	if s.failures[endpoint] > 0 {
		s.failures[endpoint]--
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": endpoint + " failed"})
		return false
	}
	return true
}

func (s *SubtitleServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "upload") {
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"file_path":     "/uploads/" + header.Filename,
		"filename":      header.Filename,
		"original_name": header.Filename,
	})
}

func (s *SubtitleServer) handleTranscribe(w http.ResponseWriter, _ *http.Request) {
	if !s.enter(w, "transcribe") {
		return
	}
	texts := make([]string, 0, len(s.segments))
	for _, seg := range s.segments {
		texts = append(texts, seg.Text)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":     strings.Join(texts, " "),
		"language": s.language,
		"segments": s.segments,
	})
}

func (s *SubtitleServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "translate") {
		return
	}
	var req struct {
		Segments []subtitle.Segment `json:"segments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Segments) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No segments provided"})
		return
	}
	for i := range req.Segments {
		req.Segments[i].Text = strings.ToUpper(req.Segments[i].Text)
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": req.Segments})
}

func (s *SubtitleServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "generate-subtitle") {
		return
	}
	var req struct {
		Segments []subtitle.Segment `json:"segments"`
		Format   string             `json:"format"`
		Filename string             `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	var b strings.Builder
	if req.Format == "vtt" {
		b.WriteString("WEBVTT\n\n")
	}
	for i, seg := range req.Segments {
		start, end := subtitle.FormatSRTTimestamp(seg.Start), subtitle.FormatSRTTimestamp(seg.End)
		if req.Format == "vtt" {
			start, end = subtitle.FormatTimecode(seg.Start), subtitle.FormatTimecode(seg.End)
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, start, end, seg.Text)
	}
	name := req.Filename + "." + req.Format
	s.mu.Lock()
	s.files[name] = b.String()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"download_url": "/download/" + name, "filename": name})
}

func (s *SubtitleServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "process-complete") {
		return
	}
	var req struct {
		FilePath string `json:"file_path"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	s.cleanedUp = append(s.cleanedUp, req.FilePath)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleaned"})
}

func (s *SubtitleServer) handleLogError(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls["log-error"]++
	s.mu.Unlock()
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	s.reports = append(s.reports, body)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged"})
}

func (s *SubtitleServer) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	if !s.enter(w, "languages") {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"whisper_languages":    map[string]string{"auto": "auto", "en": "english", "fr": "french"},
		"translator_languages": map[string]string{"en": "English", "fr": "French", "de": "German"},
	})
}

func (s *SubtitleServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, ok := s.files[r.PathValue("name")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
