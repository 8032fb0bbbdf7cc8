package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"subflow/internal/config"
	"subflow/internal/language"
	"subflow/internal/media"
	"subflow/internal/services"
	"subflow/internal/subtitle"
)

const (
	defaultUserAgent = "subflow/0.1.0"
	maxErrorBody     = 4096
)

// HTTPDoer describes the HTTP client used by the remote service client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes the client configuration.
type Config struct {
	BaseURL    string
	APIToken   string
	UserAgent  string
	HTTPClient HTTPDoer
}

// Client wraps the subtitle service REST API.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	http      HTTPDoer
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "remote client", "base url is required", nil)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "remote client", "parse base url", err)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:   baseURL,
		token:     strings.TrimSpace(cfg.APIToken),
		userAgent: userAgent,
		http:      client,
	}, nil
}

// NewFromConfig builds a client using the service section of cfg.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "remote client", "config is nil", nil)
	}
	var timeout time.Duration
	if cfg.Service.RequestTimeoutSeconds > 0 {
		timeout = cfg.RequestTimeout()
	}
	return New(Config{
		BaseURL:    cfg.Service.BaseURL,
		APIToken:   cfg.Service.APIToken,
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Op, e.StatusCode, msg)
}

// Unwrap tags status errors as remote failures.
func (e *StatusError) Unwrap() error { return services.ErrRemote }

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// StatusError.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Upload streams the media as the multipart field "file".
func (c *Client) Upload(ctx context.Context, m media.SelectedMedia) (media.UploadHandle, error) {
	src, err := m.Open()
	if err != nil {
		return media.UploadHandle{}, services.Wrap(services.ErrValidation, "upload", "open media", m.Name, err)
	}
	defer src.Close()

	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, m.Name))
		contentType := m.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := form.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = form.Close()
		}
		writer.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "api/upload", body)
	if err != nil {
		_ = body.Close()
		return media.UploadHandle{}, services.Wrap(services.ErrRemote, "upload", "build request", "", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var payload struct {
		Success      *bool  `json:"success"`
		FilePath     string `json:"file_path"`
		Filename     string `json:"filename"`
		OriginalName string `json:"original_name"`
	}
	if err := c.do(req, "upload", &payload); err != nil {
		_ = body.Close()
		return media.UploadHandle{}, err
	}
	if payload.Success != nil && !*payload.Success {
		return media.UploadHandle{}, services.Wrap(services.ErrRemote, "upload", "upload", "service reported failure", nil)
	}
	handle := media.UploadHandle{
		FilePath:     payload.FilePath,
		Filename:     payload.Filename,
		OriginalName: payload.OriginalName,
	}
	if handle.Empty() {
		return media.UploadHandle{}, services.Wrap(services.ErrRemote, "upload", "upload", "response missing file_path", nil)
	}
	return handle, nil
}

// Transcribe requests speech-to-text for an uploaded file.
func (c *Client) Transcribe(ctx context.Context, handle media.UploadHandle, lang string) (subtitle.TranscriptionResult, error) {
	request := map[string]string{"file_path": handle.FilePath, "language": lang}
	var payload subtitle.TranscriptionResult
	if err := c.postJSON(ctx, "api/transcribe", "transcribe", request, &payload); err != nil {
		return subtitle.TranscriptionResult{}, err
	}
	if payload.Segments == nil {
		payload.Segments = []subtitle.Segment{}
	}
	if err := subtitle.ValidateSegments(payload.Segments); err != nil {
		return subtitle.TranscriptionResult{}, services.Wrap(services.ErrRemote, "transcribe", "decode response", "invalid segments", err)
	}
	return payload, nil
}

// Translate requests translation of the segment texts. Timing is echoed back by
// the service.
func (c *Client) Translate(ctx context.Context, segments []subtitle.Segment, source, target string) ([]subtitle.Segment, error) {
	request := struct {
		Segments       []subtitle.Segment `json:"segments"`
		SourceLanguage string             `json:"source_language"`
		TargetLanguage string             `json:"target_language"`
	}{segments, source, target}
	var payload struct {
		Segments []subtitle.Segment `json:"segments"`
	}
	if err := c.postJSON(ctx, "api/translate", "translate", request, &payload); err != nil {
		return nil, err
	}
	return payload.Segments, nil
}

// GenerateSubtitle asks the service to render segments into a subtitle file.
func (c *Client) GenerateSubtitle(ctx context.Context, segments []subtitle.Segment, format subtitle.Format, filename string) (subtitle.Artifact, error) {
	request := struct {
		Segments []subtitle.Segment `json:"segments"`
		Format   subtitle.Format    `json:"format"`
		Filename string             `json:"filename"`
	}{segments, format, filename}
	var payload subtitle.Artifact
	if err := c.postJSON(ctx, "api/generate-subtitle", "generate-subtitle", request, &payload); err != nil {
		return subtitle.Artifact{}, err
	}
	if strings.TrimSpace(payload.DownloadURL) == "" {
		return subtitle.Artifact{}, services.Wrap(services.ErrRemote, "download", "generate-subtitle", "response missing download_url", nil)
	}
	payload.Format = format
	return payload, nil
}

// Cleanup tells the service the uploaded file is no longer needed.
func (c *Client) Cleanup(ctx context.Context, handle media.UploadHandle) error {
	if err := c.postJSON(ctx, "api/process-complete", "process-complete", map[string]string{"file_path": handle.FilePath}, nil); err != nil {
		return fmt.Errorf("%w: %w", services.ErrCleanup, err)
	}
	return nil
}

// Languages fetches the transcription and translation language catalogs.
func (c *Client) Languages(ctx context.Context) (language.Catalog, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "api/languages", nil)
	if err != nil {
		return language.Catalog{}, services.Wrap(services.ErrRemote, "", "languages", "build request", err)
	}
	var catalog language.Catalog
	if err := c.do(req, "languages", &catalog); err != nil {
		return language.Catalog{}, err
	}
	return catalog, nil
}

// ErrorReport mirrors the body accepted by the service's error log endpoint.
type ErrorReport struct {
	Function  string         `json:"function"`
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ReportError posts a client-side failure to the service log.
func (c *Client) ReportError(ctx context.Context, report ErrorReport) error {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}
	return c.postJSON(ctx, "api/log-error", "log-error", report, nil)
}

// ResolveURL returns the absolute form of a service URL such as an artifact's
// download_url.
func (c *Client) ResolveURL(raw string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Fetch downloads an artifact into w. Relative URLs resolve against the base
// URL.
func (c *Client) Fetch(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	target, err := c.ResolveURL(downloadURL)
	if err != nil {
		return 0, services.Wrap(services.ErrRemote, "download", "fetch", "parse download url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrRemote, "download", "fetch", "build request", err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrRemote, "download", "fetch", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, statusError("fetch", resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, services.Wrap(services.ErrRemote, "download", "fetch", "read body", err)
	}
	return n, nil
}

func (c *Client) postJSON(ctx context.Context, path, op string, request, response any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", op, "encode request", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrRemote, "", op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, response)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	return req, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if rid, ok := services.RequestIDFromContext(req.Context()); ok {
		req.Header.Set("X-Request-ID", rid)
	}
}

func (c *Client) do(req *http.Request, op string, response any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemote, "", op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp)
	}
	if response == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return services.Wrap(services.ErrRemote, "", op, "decode response", err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && strings.TrimSpace(payload.Error) != "" {
		message = strings.TrimSpace(payload.Error)
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: message}
}
