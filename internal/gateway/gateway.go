// Package gateway is the HTTP client for the attendance backend: the object
// store behind the API gateway and the recognition and registration routes.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAttendanceBucket = "utar-attendance-images"
	defaultStudentBucket    = "utar-student-images"
	defaultRecognizePath    = "student"
	defaultRegisterPath     = "register"
)

// Client talks to the attendance API gateway.
type Client struct {
	URL       string
	parsedURL *url.URL

	httpClient       *http.Client
	logger           *zap.Logger
	attendanceBucket string
	studentBucket    string
	recognizePath    string
	registerPath     string
	captureDir       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBuckets overrides the object-store buckets. Empty values keep the default.
func WithBuckets(attendance, students string) Option {
	return func(c *Client) {
		if attendance != "" {
			c.attendanceBucket = attendance
		}
		if students != "" {
			c.studentBucket = students
		}
	}
}

// WithRoutes overrides the recognition and registration routes. Empty values
// keep the default.
func WithRoutes(recognize, register string) Option {
	return func(c *Client) {
		if recognize != "" {
			c.recognizePath = recognize
		}
		if register != "" {
			c.registerPath = register
		}
	}
}

// WithCaptureDir records every backend response body under dir.
func WithCaptureDir(dir string) Option {
	return func(c *Client) { c.captureDir = dir }
}

// New creates a client for the API gateway at rawURL (stage included, e.g.
// "https://example.execute-api.region.amazonaws.com/dev").
func New(rawURL string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("invalid gateway URL: empty")
	}
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid gateway URL: unsupported scheme %q", parsed.Scheme)
	}

	c := &Client{
		URL:              parsed.String(),
		parsedURL:        parsed,
		httpClient:       http.DefaultClient,
		logger:           zap.NewNop(),
		attendanceBucket: defaultAttendanceBucket,
		studentBucket:    defaultStudentBucket,
		recognizePath:    defaultRecognizePath,
		registerPath:     defaultRegisterPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("gateway")

	if c.captureDir != "" {
		if err := c.SetCaptureDir(c.captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
// If the last segment contains a query string (e.g. "student?objectKey=a.jpeg"),
// it is split so JoinPath only receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		segments := append([]string{}, pathSegments...)
		segments[len(segments)-1] = pathPart
		result := c.parsedURL.JoinPath(segments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}

// SetCaptureDir enables response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves a response body to a file if capturing is enabled.
// The filename is generated from the endpoint and a timestamp.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	name, _, _ := strings.Cut(endpoint, "?")
	name = strings.TrimPrefix(strings.ReplaceAll(name, "/", "_"), "_")
	name = fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405.000000"))
	path := filepath.Join(c.captureDir, name)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		c.logger.Warn("failed to capture response", zap.String("path", path), zap.Error(err))
	}
}
