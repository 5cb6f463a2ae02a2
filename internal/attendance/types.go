// Package attendance implements the capture, upload, recognize and record
// workflow of the attendance client.
package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/overlay"
)

// ContentTypeJPEG is the only content type sent to the object store.
const ContentTypeJPEG = "image/jpeg"

// ImagePayload is a staged image ready for upload.
type ImagePayload struct {
	Name        string // original file name or capture label
	Data        []byte
	ContentType string
	PreviewID   string // assigned when staged; released when superseded
}

// UploadKey identifies an uploaded object and correlates the recognition query.
type UploadKey string

// ObjectName returns the object-store file name for the key.
func (k UploadKey) ObjectName() string {
	return string(k) + ".jpeg"
}

// RecognitionStatus is the backend verdict for one uploaded image.
type RecognitionStatus string

const (
	StatusSuccess RecognitionStatus = "success"
	StatusFailure RecognitionStatus = "failure"
)

// BoundingBox is a face rectangle normalized to [0,1] image coordinates.
type BoundingBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// RecognizedStudent is one matched face.
type RecognizedStudent struct {
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Confidence  float64     `json:"confidence"` // 0-100
	BoundingBox BoundingBox `json:"boundingBox"`
}

// FullName returns "First Last".
func (s RecognizedStudent) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Overlay converts the match into a drawable box.
func (s RecognizedStudent) Overlay() overlay.Box {
	return overlay.Box{
		Left:       s.BoundingBox.Left,
		Top:        s.BoundingBox.Top,
		Width:      s.BoundingBox.Width,
		Height:     s.BoundingBox.Height,
		Name:       s.FullName(),
		Confidence: overlay.FormatConfidence(s.Confidence),
	}
}

// RecognitionResult is the decoded answer of the recognition endpoint.
type RecognitionResult struct {
	Status   RecognitionStatus
	Message  string // raw backend message
	Students []RecognizedStudent
}

// Recognized reports whether the backend matched at least one student.
func (r *RecognitionResult) Recognized() bool {
	return r != nil && r.Status == StatusSuccess && len(r.Students) > 0
}

// Outcome categorizes a log entry.
type Outcome string

const (
	OutcomeRecognized   Outcome = "recognized"
	OutcomeRejected     Outcome = "rejected"
	OutcomeUploadFailed Outcome = "upload_failed"
	OutcomeError        Outcome = "error"
	OutcomeNoInput      Outcome = "no_input"
)

// Messages shown to the user for each outcome.
const (
	MsgNoInput  = "No images selected or captured. Please upload or capture an image."
	MsgRejected = "Authentication Failed"
	MsgError    = "Error in authentication process, try again later."
)

// LogEntry is one line of the attendance result log.
type LogEntry struct {
	Message    string             `json:"message"`
	Success    bool               `json:"success"`
	Outcome    Outcome            `json:"outcome"`
	Student    *RecognizedStudent `json:"student,omitempty"`
	Image      string             `json:"image,omitempty"`
	CapturedAt time.Time          `json:"captured_at"`
}

func recordedMessage(s RecognizedStudent) string {
	return fmt.Sprintf("Hi %s, your attendance is recorded! (Confidence: %.2f%%)", s.FullName(), s.Confidence)
}

func uploadFailedMessage(err error) string {
	return fmt.Sprintf("Upload failed: %v", err)
}
