package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnavailable = errors.New("face service unavailable")
	ErrRejected    = errors.New("face service rejected the request")
)

// Detection statuses reported by the scanner
const (
	StatusWaiting        = "waiting"
	StatusMarked         = "marked"
	StatusAlreadyPresent = "already_present"
	StatusUnknown        = "unknown"
)

// Detection is the scanner's latest recognition result
type Detection struct {
	Name       *string  `json:"name"`
	Timestamp  *float64 `json:"timestamp"`
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	Distance   float64  `json:"distance"`
}

// At converts the service's unix-seconds timestamp. The zero time means none was reported.
func (d Detection) At() time.Time {
	if d.Timestamp == nil {
		return time.Time{}
	}
	sec, frac := splitSeconds(*d.Timestamp)
	return time.Unix(sec, frac).UTC()
}

// Identified reports whether the detection matched a registered face
func (d Detection) Identified() bool {
	return d.Name != nil && (d.Status == StatusMarked || d.Status == StatusAlreadyPresent)
}

func (d Detection) Identity() string {
	if d.Name == nil {
		return ""
	}
	return *d.Name
}

type Health struct {
	Status        string  `json:"status"`
	ScannerActive bool    `json:"scanner_active"`
	Timestamp     float64 `json:"timestamp"`
}

type ScannerStatus struct {
	Active          bool      `json:"active"`
	LatestDetection Detection `json:"latest_detection"`
	RegisteredFaces int       `json:"registered_faces"`
}

type Frame struct {
	// base64 encoded JPEG
	Frame     string    `json:"frame"`
	Detection Detection `json:"detection"`
}

type Ack struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	Name            string `json:"name,omitempty"`
	RegisteredFaces int    `json:"registered_faces,omitempty"`
}

type RegisteredFace struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type SummaryRecord struct {
	Name       string   `json:"name"`
	Time       string   `json:"time"`
	Camera     string   `json:"camera"`
	Confidence *float64 `json:"confidence"`
}

type Summary struct {
	TotalPresent int             `json:"total_present"`
	Records      []SummaryRecord `json:"records"`
}

// Client talks to the face-verification service
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *slog.Logger
}

// NewClient points at the service root; "/api" is appended to every path.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		HTTP: &http.Client{
			Timeout: 25 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, "", &out)
	return out, err
}

func (c *Client) StartScanner(ctx context.Context) (Ack, error) {
	var out Ack
	err := c.do(ctx, http.MethodPost, "/start-scanner", nil, "", &out)
	return out, err
}

func (c *Client) StopScanner(ctx context.Context) (Ack, error) {
	var out Ack
	err := c.do(ctx, http.MethodPost, "/stop-scanner", nil, "", &out)
	return out, err
}

func (c *Client) Frame(ctx context.Context) (Frame, error) {
	var out Frame
	err := c.do(ctx, http.MethodGet, "/scanner-frame", nil, "", &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (ScannerStatus, error) {
	var out ScannerStatus
	err := c.do(ctx, http.MethodGet, "/scanner-status", nil, "", &out)
	return out, err
}

func (c *Client) RegisteredFaces(ctx context.Context) ([]RegisteredFace, error) {
	var out struct {
		Success bool             `json:"success"`
		Faces   []RegisteredFace `json:"faces"`
	}
	err := c.do(ctx, http.MethodGet, "/registered-faces", nil, "", &out)
	return out.Faces, err
}

func (c *Client) AttendanceSummary(ctx context.Context) (Summary, error) {
	var out struct {
		Success bool    `json:"success"`
		Summary Summary `json:"summary"`
	}
	err := c.do(ctx, http.MethodGet, "/attendance-summary", nil, "", &out)
	return out.Summary, err
}

// RegisterFace uploads an image of name's face as multipart form data.
func (c *Client) RegisterFace(ctx context.Context, name, filename string, image []byte) (Ack, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ack{}, fmt.Errorf("%w: name is required", ErrRejected)
	}
	if len(image) == 0 {
		return Ack{}, fmt.Errorf("%w: image is empty", ErrRejected)
	}
	if filename == "" {
		filename = name + "_face.jpg"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("name", name); err != nil {
		return Ack{}, err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(filename)))
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := w.CreatePart(h)
	if err != nil {
		return Ack{}, err
	}
	if _, err := part.Write(image); err != nil {
		return Ack{}, err
	}
	if err := w.Close(); err != nil {
		return Ack{}, err
	}

	var out Ack
	err = c.do(ctx, http.MethodPost, "/register-face", &body, w.FormDataContentType(), &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api"+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger.Warn("face service request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}
	c.logger.Debug("face service call", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 300 {
		detail := errorDetail(raw, resp.StatusCode)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrUnavailable, detail)
		}
		return fmt.Errorf("%w: %s", ErrRejected, detail)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrUnavailable, path, err)
	}
	return nil
}

// errorDetail pulls the service's "detail" message out of an error body
func errorDetail(raw []byte, status int) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 300 {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func splitSeconds(f float64) (int64, int64) {
	sec := int64(f)
	return sec, int64((f - float64(sec)) * 1e9)
}
