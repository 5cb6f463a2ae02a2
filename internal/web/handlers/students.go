package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/gateway"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

// Registrar enrolls a student with a reference photo.
type Registrar interface {
	RegisterStudent(ctx context.Context, s gateway.Student, image []byte) (*gateway.RegisterResult, error)
}

// StudentsHandler handles student registration.
type StudentsHandler struct {
	registrar Registrar
	logger    *zap.Logger
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(registrar Registrar, logger *zap.Logger) *StudentsHandler {
	return &StudentsHandler{registrar: registrar, logger: logger.Named("students")}
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileName string `json:"file_name"`
}

// Register reads firstName, lastName, email and one "image" part, uploads
// the photo and creates the student record.
func (h *StudentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxFormMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	student := gateway.Student{
		FirstName: strings.TrimSpace(r.FormValue("firstName")),
		LastName:  strings.TrimSpace(r.FormValue("lastName")),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}
	if err := student.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	payload, err := attendance.ReadImage(header.Filename, file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.registrar.RegisterStudent(r.Context(), student, payload.Data)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("file", student.FileName()), zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	fields := []zap.Field{zap.String("file", student.FileName())}
	if session := middleware.SessionFrom(r.Context()); session != nil {
		fields = append(fields, zap.String("admin", session.Username))
	}
	h.logger.Info("student registered", fields...)

	respondJSON(w, http.StatusCreated, RegisterResponse{
		Success:  true,
		Message:  result.Message,
		FileName: student.FileName(),
	})
}
