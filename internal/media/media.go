package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"subflow/internal/services"
)

// DefaultMaxBytes is the largest file the gate accepts by default (500 MiB).
const DefaultMaxBytes int64 = 500 * 1024 * 1024

// Candidate describes a file the user selected but that has not been checked.
type Candidate struct {
	Name      string
	MIMEType  string
	SizeBytes int64
	Path      string
}

// SelectedMedia is a candidate that passed the gate. Path is the byte source
// and is opened lazily when the upload starts.
type SelectedMedia struct {
	Name      string `json:"name"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"path"`
}

// Open returns a reader over the media bytes.
func (m SelectedMedia) Open() (io.ReadCloser, error) {
	if strings.TrimSpace(m.Path) == "" {
		return nil, fmt.Errorf("media %q has no byte source", m.Name)
	}
	return os.Open(m.Path)
}

// Reason enumerates why a candidate was rejected.
type Reason string

const (
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonTooLarge        Reason = "too_large"
)

// RejectionError is returned by Gate.Check for candidates that fail policy.
type RejectionError struct {
	Reason   Reason
	Name     string
	MIMEType string
	Size     int64
	Limit    int64
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonTooLarge:
		return fmt.Sprintf("%s is %s, larger than the %s limit", e.Name, HumanSize(e.Size), HumanSize(e.Limit))
	default:
		mimeType := e.MIMEType
		if mimeType == "" {
			mimeType = "unknown type"
		}
		return fmt.Sprintf("%s has unsupported media type %s", e.Name, mimeType)
	}
}

// Unwrap marks every rejection as a validation failure.
func (e *RejectionError) Unwrap() error { return services.ErrValidation }

// IsRejection reports whether err carries a RejectionError and returns it.
func IsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}

// acceptedSubtypes maps media subtypes to the container token they stand for.
var acceptedSubtypes = map[string]string{
	"mp3":       "mp3",
	"mpeg":      "mp3",
	"wav":       "wav",
	"x-wav":     "wav",
	"m4a":       "m4a",
	"x-m4a":     "m4a",
	"flac":      "flac",
	"x-flac":    "flac",
	"aac":       "aac",
	"mp4":       "mp4",
	"avi":       "avi",
	"quicktime": "quicktime",
	"x-msvideo": "x-msvideo",
	"webm":      "webm",
}

// Gate enforces the local selection policy.
type Gate struct {
	MaxBytes int64
}

// DefaultGate returns a gate with the 500 MiB cap.
func DefaultGate() Gate {
	return Gate{MaxBytes: DefaultMaxBytes}
}

// Check validates the candidate against the type allow-list and size cap.
func (g Gate) Check(c Candidate) (SelectedMedia, error) {
	limit := g.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if !Supported(c.MIMEType) {
		return SelectedMedia{}, &RejectionError{Reason: ReasonUnsupportedType, Name: c.Name, MIMEType: c.MIMEType, Size: c.SizeBytes, Limit: limit}
	}
	if c.SizeBytes > limit {
		return SelectedMedia{}, &RejectionError{Reason: ReasonTooLarge, Name: c.Name, MIMEType: c.MIMEType, Size: c.SizeBytes, Limit: limit}
	}
	return SelectedMedia{
		Name:      c.Name,
		MIMEType:  c.MIMEType,
		SizeBytes: c.SizeBytes,
		Path:      c.Path,
	}, nil
}

// Supported reports whether the media type is an accepted audio or video
// container. Parameters such as codecs are ignored.
func Supported(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return false
	}
	top, sub, ok := strings.Cut(mediaType, "/")
	if !ok || (top != "audio" && top != "video") {
		return false
	}
	_, ok = acceptedSubtypes[sub]
	return ok
}

// FromPath builds a candidate from a local file. The media type comes from the
// extension and falls back to content sniffing when the extension is unknown.
func FromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("stat media: %w", err)
	}
	if info.IsDir() {
		return Candidate{}, services.Wrap(services.ErrValidation, "upload", "select media", fmt.Sprintf("%s is a directory", path), nil)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" || !Supported(mimeType) {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return Candidate{}, fmt.Errorf("detect media type: %w", err)
		}
		if mimeType == "" || Supported(detected.String()) {
			mimeType = detected.String()
		}
	}
	return Candidate{
		Name:      filepath.Base(path),
		MIMEType:  mimeType,
		SizeBytes: info.Size(),
		Path:      path,
	}, nil
}

// HumanSize formats a byte count with binary units.
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// UploadHandle references media the remote service stored for this run. It is
// only valid on the server that issued it.
type UploadHandle struct {
	FilePath     string `json:"file_path"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
}

// Empty reports whether the handle carries no server path.
func (h UploadHandle) Empty() bool { return strings.TrimSpace(h.FilePath) == "" }
