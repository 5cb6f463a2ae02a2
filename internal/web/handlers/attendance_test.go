package handlers

import (
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

var janeResult = &attendance.RecognitionResult{
	Status:  attendance.StatusSuccess,
	Message: "Success",
	Students: []attendance.RecognizedStudent{{
		FirstName:   "Jane",
		LastName:    "Doe",
		Confidence:  97.5,
		BoundingBox: attendance.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.5, Height: 0.5},
	}},
}

func TestAttendanceHandler_Get(t *testing.T) {
	handler, _ := newTestAttendanceHandler(&fakeBackend{}, nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/attendance", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var snap attendance.Snapshot
	parseJSONResponse(t, recorder, &snap)
	if snap.State != attendance.StateIdle || len(snap.Log) != 0 {
		t.Errorf("expected empty idle snapshot, got %+v", snap)
	}
}

func TestAttendanceHandler_StageAndSubmit(t *testing.T) {
	backend := &fakeBackend{result: janeResult}
	handler, wf := newTestAttendanceHandler(backend, nil)

	req := multipartRequest(t, "/api/v1/attendance/images", nil,
		formFile{"images", "a.jpg", testJPEG(t, 40, 40)},
		formFile{"images", "b.jpg", testJPEG(t, 40, 40)})
	recorder := httptest.NewRecorder()
	handler.Stage(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if n := len(wf.Snapshot().Staged); n != 2 {
		t.Fatalf("expected 2 staged images, got %d", n)
	}

	recorder = httptest.NewRecorder()
	handler.Submit(recorder, httptest.NewRequest("POST", "/api/v1/attendance/submit", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var snap attendance.Snapshot
	parseJSONResponse(t, recorder, &snap)
	if len(snap.Log) != 2 {
		t.Fatalf("expected one entry per image, got %d", len(snap.Log))
	}
	if !snap.Log[0].Success || snap.Log[0].Student == nil || snap.Log[0].Student.FirstName != "Jane" {
		t.Errorf("unexpected first entry %+v", snap.Log[0])
	}
	if len(snap.Overlays) != 1 || snap.Overlays[0].Label() != "Jane Doe (CS: 0.98)" {
		t.Errorf("unexpected overlays %+v", snap.Overlays)
	}
	if backend.uploads != 2 {
		t.Errorf("expected 2 uploads, got %d", backend.uploads)
	}
}

func TestAttendanceHandler_StageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		files []formFile
		error string
	}{
		{"no files", nil, attendance.MsgNoInput},
		{"wrong field", []formFile{{"files", "a.jpg", []byte("x")}}, attendance.MsgNoInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestAttendanceHandler(&fakeBackend{}, nil)
			recorder := httptest.NewRecorder()

			handler.Stage(recorder, multipartRequest(t, "/api/v1/attendance/images", nil, tt.files...))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.error)
		})
	}

	t.Run("not an image", func(t *testing.T) {
		handler, wf := newTestAttendanceHandler(&fakeBackend{}, nil)
		recorder := httptest.NewRecorder()

		handler.Stage(recorder, multipartRequest(t, "/api/v1/attendance/images", nil,
			formFile{"images", "notes.jpg", []byte("plain text")}))

		assertStatusCode(t, recorder, http.StatusBadRequest)
		if len(wf.Snapshot().Staged) != 0 {
			t.Error("invalid selection must not be staged")
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		handler, _ := newTestAttendanceHandler(&fakeBackend{}, nil)
		recorder := httptest.NewRecorder()

		handler.Stage(recorder, httptest.NewRequest("POST", "/api/v1/attendance/images", nil))

		assertStatusCode(t, recorder, http.StatusBadRequest)
	})
}

func TestAttendanceHandler_SubmitEmpty(t *testing.T) {
	backend := &fakeBackend{}
	handler, _ := newTestAttendanceHandler(backend, nil)
	recorder := httptest.NewRecorder()

	handler.Submit(recorder, httptest.NewRequest("POST", "/api/v1/attendance/submit", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var snap attendance.Snapshot
	parseJSONResponse(t, recorder, &snap)
	if len(snap.Log) != 1 || snap.Log[0].Message != attendance.MsgNoInput {
		t.Errorf("expected single no-input entry, got %+v", snap.Log)
	}
	if backend.uploads != 0 {
		t.Error("expected no upload for an empty batch")
	}
}

func TestAttendanceHandler_UploadFailure(t *testing.T) {
	backend := &fakeBackend{uploadErr: &attendance.UploadError{StatusCode: 500, Message: "boom"}}
	handler, wf := newTestAttendanceHandler(backend, nil)
	wf.Stage([]attendance.ImagePayload{{Name: "a.jpg", Data: testJPEG(t, 8, 8)}})
	recorder := httptest.NewRecorder()

	handler.Submit(recorder, httptest.NewRequest("POST", "/api/v1/attendance/submit", nil))

	var snap attendance.Snapshot
	parseJSONResponse(t, recorder, &snap)
	if len(snap.Log) != 1 || snap.Log[0].Success || snap.Log[0].Outcome != attendance.OutcomeUploadFailed {
		t.Errorf("expected upload failure entry, got %+v", snap.Log)
	}
}

type stubCamera struct {
	frame []byte
	err   error
}

func (c stubCamera) Snapshot(ctx context.Context) ([]byte, error) {
	return c.frame, c.err
}

func TestAttendanceHandler_Capture(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		handler, _ := newTestAttendanceHandler(&fakeBackend{}, nil)
		recorder := httptest.NewRecorder()

		handler.Capture(recorder, httptest.NewRequest("POST", "/api/v1/attendance/capture", nil))

		assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	})

	t.Run("camera error", func(t *testing.T) {
		handler, _ := newTestAttendanceHandler(&fakeBackend{}, stubCamera{err: errors.New("no device")})
		recorder := httptest.NewRecorder()

		handler.Capture(recorder, httptest.NewRequest("POST", "/api/v1/attendance/capture", nil))

		assertStatusCode(t, recorder, http.StatusBadGateway)
	})

	t.Run("success", func(t *testing.T) {
		handler, wf := newTestAttendanceHandler(&fakeBackend{}, stubCamera{frame: testJPEG(t, 16, 16)})
		recorder := httptest.NewRecorder()

		handler.Capture(recorder, httptest.NewRequest("POST", "/api/v1/attendance/capture", nil))

		assertStatusCode(t, recorder, http.StatusOK)
		staged := wf.Snapshot().Staged
		if len(staged) != 1 || staged[0].PreviewID == "" {
			t.Errorf("expected the capture to be staged with a preview, got %+v", staged)
		}
	})
}

func TestAttendanceHandler_Image(t *testing.T) {
	handler, wf := newTestAttendanceHandler(&fakeBackend{result: janeResult}, nil)

	recorder := httptest.NewRecorder()
	handler.Image(recorder, httptest.NewRequest("GET", "/api/v1/attendance/image", nil))
	assertStatusCode(t, recorder, http.StatusNotFound)

	wf.Stage([]attendance.ImagePayload{{Name: "a.jpg", Data: testJPEG(t, 50, 30)}})
	wf.Submit(context.Background())

	recorder = httptest.NewRecorder()
	handler.Image(recorder, httptest.NewRequest("GET", "/api/v1/attendance/image", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "image/png")
	img, err := png.Decode(recorder.Body)
	if err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("expected canvas at native size 50x30, got %v", b)
	}
}

func TestAttendanceHandler_Preview(t *testing.T) {
	handler, wf := newTestAttendanceHandler(&fakeBackend{}, nil)
	data := testJPEG(t, 8, 8)
	wf.Stage([]attendance.ImagePayload{{Name: "a.jpg", Data: data}})
	id := wf.Snapshot().Staged[0].PreviewID

	recorder := httptest.NewRecorder()
	handler.Preview(recorder, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"id": id}))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, attendance.ContentTypeJPEG)
	if recorder.Body.Len() != len(data) {
		t.Errorf("expected %d bytes, got %d", len(data), recorder.Body.Len())
	}

	recorder = httptest.NewRecorder()
	handler.Preview(recorder, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"id": "missing"}))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAttendanceHandler_Reset(t *testing.T) {
	handler, wf := newTestAttendanceHandler(&fakeBackend{result: janeResult}, nil)
	wf.Stage([]attendance.ImagePayload{{Name: "a.jpg", Data: testJPEG(t, 8, 8)}})
	wf.Submit(context.Background())
	recorder := httptest.NewRecorder()

	handler.Reset(recorder, httptest.NewRequest("DELETE", "/api/v1/attendance", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var snap attendance.Snapshot
	parseJSONResponse(t, recorder, &snap)
	if len(snap.Log) != 0 || len(snap.Overlays) != 0 || snap.Displayed != nil {
		t.Errorf("expected cleared snapshot, got %+v", snap)
	}
}

func TestRespondWorkflowError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{attendance.ErrBusy, http.StatusConflict},
		{attendance.ErrNoInput, http.StatusBadRequest},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		recorder := httptest.NewRecorder()
		respondWorkflowError(recorder, tt.err)
		assertStatusCode(t, recorder, tt.status)
	}
}
