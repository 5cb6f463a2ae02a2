package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

// AttendanceHandler exposes the attendance workflow of this kiosk.
type AttendanceHandler struct {
	workflow *attendance.Workflow
	camera   attendance.Camera
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceHandler creates a new attendance handler. camera may be nil
// when no snapshot source is configured.
func NewAttendanceHandler(wf *attendance.Workflow, camera attendance.Camera, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		workflow: wf,
		camera:   camera,
		logger:   logger.Named("attendance"),
		now:      time.Now,
	}
}

// readUploadedImages reads multipart image parts into payloads, in form order.
func readUploadedImages(files []*multipart.FileHeader) ([]attendance.ImagePayload, error) {
	payloads := make([]attendance.ImagePayload, 0, len(files))
	for _, fileHeader := range files {
		payload, err := func() (attendance.ImagePayload, error) {
			file, err := fileHeader.Open()
			if err != nil {
				return attendance.ImagePayload{}, fmt.Errorf("failed to open file: %s", fileHeader.Filename)
			}
			defer file.Close()
			return attendance.ReadImage(fileHeader.Filename, file)
		}()
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// respondWorkflowError maps workflow sentinel errors to HTTP statuses.
func respondWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrBusy):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, attendance.ErrNoInput):
		respondError(w, http.StatusBadRequest, attendance.MsgNoInput)
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// Get returns the current workflow snapshot.
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.workflow.Snapshot())
}

// Stage replaces the selection with the uploaded "images" parts.
func (h *AttendanceHandler) Stage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxFormMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, attendance.MsgNoInput)
		return
	}

	payloads, err := readUploadedImages(files)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.workflow.Stage(payloads); err != nil {
		respondWorkflowError(w, err)
		return
	}
	h.logger.Info("images staged", zap.Int("count", len(payloads)))
	respondJSON(w, http.StatusOK, h.workflow.Snapshot())
}

// Capture takes a still from the camera and makes it the selection.
func (h *AttendanceHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if h.camera == nil {
		respondError(w, http.StatusServiceUnavailable, "camera is not configured")
		return
	}

	payload, err := attendance.Capture(r.Context(), h.camera, h.now())
	if err != nil {
		h.logger.Warn("capture failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.workflow.Stage([]attendance.ImagePayload{payload}); err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.workflow.Snapshot())
}

// Submit processes the staged batch and returns the final snapshot. The batch
// runs to completion even if the client goes away, and the server write
// deadline is lifted so a slow batch still gets its response.
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not lifted", zap.Error(err))
	}
	ctx := context.WithoutCancel(r.Context())
	if _, err := h.workflow.Submit(ctx); err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.workflow.Snapshot())
}

// Image renders the displayed image with its bounding boxes as PNG.
func (h *AttendanceHandler) Image(w http.ResponseWriter, r *http.Request) {
	data, err := h.workflow.RenderDisplayed()
	if errors.Is(err, attendance.ErrNoInput) {
		respondError(w, http.StatusNotFound, "no image displayed")
		return
	}
	if err != nil {
		h.logger.Error("render failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render image")
		return
	}
	respondImage(w, "image/png", data)
}

// Preview serves the raw bytes of a staged or displayed image.
func (h *AttendanceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.workflow.Preview(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "preview not found")
		return
	}
	respondImage(w, payload.ContentType, payload.Data)
}

// Reset clears the selection, the log and the displayed image.
func (h *AttendanceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.Reset(); err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.workflow.Snapshot())
}
