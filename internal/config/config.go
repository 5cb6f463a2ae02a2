package config

import (
	_ "embed"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

//go:embed endpoints.yaml
var endpointsYAML []byte

type Config struct {
	API    APIConfig
	Camera CameraConfig
	Admin  AdminConfig
	Web    WebConfig
	Log    LogConfig
}

type APIConfig struct {
	URL              string
	AttendanceBucket string        // object-store bucket for attendance captures
	StudentBucket    string        // object-store bucket for registration photos
	RecognizePath    string        // recognition query route (e.g. "student")
	RegisterPath     string        // registration route (e.g. "register")
	Timeout          time.Duration // per-call bound for upload and recognition requests
	CaptureDir       string        // optional directory to record backend responses
}

type CameraConfig struct {
	SnapshotURL string // HTTP endpoint returning a single still frame
}

// AdminConfig holds the credentials of the admin gate. The gate is a
// client-side convenience, not an access-control boundary: the backend
// does not check it.
type AdminConfig struct {
	Username string
	password string
}

// GetPassword returns the configured admin password.
func (c *AdminConfig) GetPassword() string {
	return c.password
}

// SetPassword overrides the admin password (tests and flags).
func (c *AdminConfig) SetPassword(p string) {
	c.password = p
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string      // CORS whitelist; localhost is always allowed
	RequestTimeout time.Duration // zero means constants.RequestTimeout
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

type endpointDefaults struct {
	APIURL  string `yaml:"api_url"`
	Buckets struct {
		Attendance string `yaml:"attendance"`
		Students   string `yaml:"students"`
	} `yaml:"buckets"`
	Paths struct {
		Recognize string `yaml:"recognize"`
		Register  string `yaml:"register"`
	} `yaml:"paths"`
	HTTPTimeout string `yaml:"http_timeout"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a time.Duration ("15s", "1m").
// Non-positive or unparsable values fall back to the default.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadDefaults() endpointDefaults {
	var d endpointDefaults
	if err := yaml.Unmarshal(endpointsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded endpoints.yaml: " + err.Error())
	}
	return d
}

func Load() *Config {
	defaults := loadDefaults()

	timeout, err := time.ParseDuration(defaults.HTTPTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	cfg := &Config{
		API: APIConfig{
			URL:              envString("ATTENDANCE_API_URL", defaults.APIURL),
			AttendanceBucket: envString("ATTENDANCE_UPLOAD_BUCKET", defaults.Buckets.Attendance),
			StudentBucket:    envString("ATTENDANCE_STUDENT_BUCKET", defaults.Buckets.Students),
			RecognizePath:    defaults.Paths.Recognize,
			RegisterPath:     defaults.Paths.Register,
			Timeout:          envDuration("ATTENDANCE_HTTP_TIMEOUT", timeout),
			CaptureDir:       os.Getenv("ATTENDANCE_CAPTURE_DIR"),
		},
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_SNAPSHOT_URL"),
		},
		Admin: AdminConfig{
			Username: os.Getenv("ADMIN_USERNAME"),
			password: os.Getenv("ADMIN_PASSWORD"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			RequestTimeout: envDuration("WEB_REQUEST_TIMEOUT", constants.RequestTimeout),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
	}
	return cfg
}

// Validate reports configuration that makes the client unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.API.URL == "" {
		errs = append(errs, errors.New("ATTENDANCE_API_URL is required"))
	}
	if c.API.AttendanceBucket == "" {
		errs = append(errs, errors.New("attendance bucket name is empty"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	return errors.Join(errs...)
}

// AdminEnabled reports whether admin credentials are configured.
func (c *Config) AdminEnabled() bool {
	return c.Admin.Username != "" && c.Admin.password != ""
}
