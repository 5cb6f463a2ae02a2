package config

import (
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	t.Setenv("ATTENDANCE_API_URL", "")
	t.Setenv("ATTENDANCE_UPLOAD_BUCKET", "")
	t.Setenv("ATTENDANCE_STUDENT_BUCKET", "")
	t.Setenv("ATTENDANCE_HTTP_TIMEOUT", "")

	cfg := Load()

	if !strings.HasPrefix(cfg.API.URL, "https://") {
		t.Errorf("expected default API URL from endpoints.yaml, got '%s'", cfg.API.URL)
	}
	if cfg.API.AttendanceBucket != "utar-attendance-images" {
		t.Errorf("expected attendance bucket 'utar-attendance-images', got '%s'", cfg.API.AttendanceBucket)
	}
	if cfg.API.StudentBucket != "utar-student-images" {
		t.Errorf("expected student bucket 'utar-student-images', got '%s'", cfg.API.StudentBucket)
	}
	if cfg.API.RecognizePath != "student" {
		t.Errorf("expected recognize path 'student', got '%s'", cfg.API.RecognizePath)
	}
	if cfg.API.RegisterPath != "register" {
		t.Errorf("expected register path 'register', got '%s'", cfg.API.RegisterPath)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.API.Timeout)
	}
}

func TestLoad_APIOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_API_URL", "http://localhost:9000/dev")
	t.Setenv("ATTENDANCE_UPLOAD_BUCKET", "captures")
	t.Setenv("ATTENDANCE_HTTP_TIMEOUT", "3s")
	t.Setenv("ATTENDANCE_CAPTURE_DIR", "/tmp/capture")

	cfg := Load()

	if cfg.API.URL != "http://localhost:9000/dev" {
		t.Errorf("expected URL override, got '%s'", cfg.API.URL)
	}
	if cfg.API.AttendanceBucket != "captures" {
		t.Errorf("expected bucket 'captures', got '%s'", cfg.API.AttendanceBucket)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.API.Timeout)
	}
	if cfg.API.CaptureDir != "/tmp/capture" {
		t.Errorf("expected capture dir '/tmp/capture', got '%s'", cfg.API.CaptureDir)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	tests := []string{"invalid", "-5s", "0s"}
	for _, value := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("ATTENDANCE_HTTP_TIMEOUT", value)

			cfg := Load()

			if cfg.API.Timeout != 10*time.Second {
				t.Errorf("expected fallback timeout 10s for %q, got %v", value, cfg.API.Timeout)
			}
		})
	}
}

func TestLoad_WebPort(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	if cfg := Load(); cfg.Web.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Web.Port)
	}

	t.Setenv("WEB_PORT", "-1")
	if cfg := Load(); cfg.Web.Port != 8080 {
		t.Errorf("expected default port 8080 for negative input, got %d", cfg.Web.Port)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://kiosk.example.com, ,https://admin.example.com")

	cfg := Load()

	if len(cfg.Web.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Web.AllowedOrigins)
	}
	if cfg.Web.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected origin '%s'", cfg.Web.AllowedOrigins[1])
	}
}

func TestLoad_RequestTimeout(t *testing.T) {
	t.Setenv("WEB_REQUEST_TIMEOUT", "")
	if got := Load().Web.RequestTimeout; got != constants.RequestTimeout {
		t.Errorf("expected default %v, got %v", constants.RequestTimeout, got)
	}

	t.Setenv("WEB_REQUEST_TIMEOUT", "90s")
	if got := Load().Web.RequestTimeout; got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}
}

func TestLoad_AdminConfig(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin1")
	t.Setenv("ADMIN_PASSWORD", "secret")

	cfg := Load()

	if cfg.Admin.Username != "admin1" {
		t.Errorf("expected username 'admin1', got '%s'", cfg.Admin.Username)
	}
	if cfg.Admin.GetPassword() != "secret" {
		t.Errorf("expected password 'secret', got '%s'", cfg.Admin.GetPassword())
	}
	if !cfg.AdminEnabled() {
		t.Error("expected admin gate to be enabled")
	}
}

func TestAdminEnabled_MissingPassword(t *testing.T) {
	cfg := &Config{Admin: AdminConfig{Username: "admin1"}}
	if cfg.AdminEnabled() {
		t.Error("expected admin gate to be disabled without a password")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{API: APIConfig{
		URL:              "http://localhost",
		AttendanceBucket: "images",
		Timeout:          time.Second,
	}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.API.URL = ""
	cfg.API.Timeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "ATTENDANCE_API_URL") {
		t.Errorf("expected error to mention ATTENDANCE_API_URL, got '%v'", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected error to mention timeout, got '%v'", err)
	}
}
