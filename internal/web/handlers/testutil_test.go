package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/gateway"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	cfg := &config.Config{
		API:   config.APIConfig{URL: "http://localhost:9000/dev", AttendanceBucket: "images"},
		Admin: config.AdminConfig{Username: "admin1"},
	}
	cfg.Admin.SetPassword("admin1")
	return cfg
}

func testSessionManager(t *testing.T) *middleware.SessionManager {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret")
	t.Cleanup(sm.Stop)
	return sm
}

// testJPEG encodes a small solid image.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

type formFile struct {
	field, name string
	data        []byte
}

// multipartRequest builds a multipart POST request.
func multipartRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(f.data)
	}
	writer.Close()

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// fakeBackend implements the uploader, recognizer and registrar against memory.
type fakeBackend struct {
	mu         sync.Mutex
	uploads    int
	uploadErr  error
	result     *attendance.RecognitionResult
	registered []gateway.Student
	registerFn func(gateway.Student) (*gateway.RegisterResult, error)
}

func (f *fakeBackend) Put(ctx context.Context, p attendance.ImagePayload) (attendance.UploadKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return attendance.UploadKey("key"), nil
}

func (f *fakeBackend) Query(ctx context.Context, key attendance.UploadKey) (*attendance.RecognitionResult, error) {
	if f.result != nil {
		return f.result, nil
	}
	return &attendance.RecognitionResult{Status: attendance.StatusFailure}, nil
}

func (f *fakeBackend) RegisterStudent(ctx context.Context, s gateway.Student, image []byte) (*gateway.RegisterResult, error) {
	f.mu.Lock()
	f.registered = append(f.registered, s)
	f.mu.Unlock()
	if f.registerFn != nil {
		return f.registerFn(s)
	}
	return &gateway.RegisterResult{Message: "Student registered successfully!"}, nil
}

func newTestAttendanceHandler(backend *fakeBackend, camera attendance.Camera) (*AttendanceHandler, *attendance.Workflow) {
	wf := attendance.NewWorkflow(backend, backend)
	return NewAttendanceHandler(wf, camera, zap.NewNop()), wf
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
