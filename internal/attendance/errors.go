package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput is returned when an operation needs at least one image.
	ErrNoInput = errors.New("no image selected or captured")
	// ErrBusy is returned when a batch is already being submitted.
	ErrBusy = errors.New("attendance batch in progress")
)

// UploadError reports a failed object upload. StatusCode is 0 when the
// request never produced a response.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// RecognitionTransportError reports a recognition query that never produced a
// response, e.g. a refused connection or an expired deadline.
type RecognitionTransportError struct {
	Err error
}

func (e *RecognitionTransportError) Error() string {
	return fmt.Sprintf("recognition request failed: %v", e.Err)
}

func (e *RecognitionTransportError) Unwrap() error {
	return e.Err
}
