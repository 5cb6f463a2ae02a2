package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// Student is a registration request.
type Student struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Validate checks that every field is present and the email is well formed.
func (s Student) Validate() error {
	var errs []error
	if strings.TrimSpace(s.FirstName) == "" {
		errs = append(errs, errors.New("first name is required"))
	}
	if strings.TrimSpace(s.LastName) == "" {
		errs = append(errs, errors.New("last name is required"))
	}
	if strings.TrimSpace(s.Email) == "" {
		errs = append(errs, errors.New("email is required"))
	} else if _, err := mail.ParseAddress(s.Email); err != nil {
		errs = append(errs, fmt.Errorf("invalid email %q", s.Email))
	}
	return errors.Join(errs...)
}

// FileName is the object name of the reference photo, "{first}_{last}.jpeg".
func (s Student) FileName() string {
	return strings.TrimSpace(s.FirstName) + "_" + strings.TrimSpace(s.LastName) + ".jpeg"
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	FileName  string `json:"fileName"`
}

// RegisterResult is the decoded answer of the registration route.
type RegisterResult struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RegisterStudent uploads the reference photo to the student bucket and then
// registers the student record pointing at it.
func (c *Client) RegisterStudent(ctx context.Context, s Student, image []byte) (*RegisterResult, error) {
	requestID := uuid.NewString()
	logger := logging.WithOperation(c.logger, "gateway.register", requestID)

	if err := s.Validate(); err != nil {
		return nil, logging.NewOperationError("gateway.register", requestID, err)
	}
	if len(image) == 0 {
		return nil, logging.NewOperationError("gateway.register", requestID, attendance.ErrNoInput)
	}

	fileName := s.FileName()
	if err := doPutObject(ctx, c, attendance.ContentTypeJPEG, image, c.studentBucket, fileName); err != nil {
		return nil, logging.NewOperationError("gateway.register", requestID, fmt.Errorf("could not upload photo: %w", err))
	}
	logger.Info("student photo uploaded", zap.String("file", fileName))

	body, err := doRequest(ctx, c, http.MethodPost, c.registerPath, registerRequest{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		FileName:  fileName,
	}, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, logging.NewOperationError("gateway.register", requestID, fmt.Errorf("could not register student: %w", err))
	}

	var result RegisterResult
	status, err := decodeEnvelope(body, &result)
	if err != nil {
		// Some deployments answer with the plain payload instead of an envelope.
		var plain RegisterResult
		if perr := json.Unmarshal(body, &plain); perr == nil && (plain.Message != "" || plain.Error != "") {
			result, status, err = plain, 0, nil
		}
	}
	if err != nil {
		return nil, logging.NewOperationError("gateway.register", requestID, err)
	}
	if result.Error != "" || (status != 0 && (status < 200 || status > 299)) {
		return nil, logging.NewOperationError("gateway.register", requestID,
			&StatusError{StatusCode: status, Body: result.Error})
	}

	logger.Info("student registered", zap.String("message", result.Message))
	return &result, nil
}
