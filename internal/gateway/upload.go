package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// Put uploads one attendance image under a freshly generated key. Failures
// are reported as *attendance.UploadError; nothing is retried.
func (c *Client) Put(ctx context.Context, payload attendance.ImagePayload) (attendance.UploadKey, error) {
	key := attendance.UploadKey(uuid.NewString())
	contentType := payload.ContentType
	if contentType == "" {
		contentType = attendance.ContentTypeJPEG
	}

	if err := doPutObject(ctx, c, contentType, payload.Data, c.attendanceBucket, key.ObjectName()); err != nil {
		return "", toUploadError(err)
	}

	c.logger.Debug("image uploaded",
		zap.String("image", payload.Name),
		zap.String("bucket", c.attendanceBucket),
		zap.String("upload_key", string(key)),
		zap.Int("bytes", len(payload.Data)))
	return key, nil
}

func toUploadError(err error) *attendance.UploadError {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Body
		if msg == "" {
			msg = http.StatusText(statusErr.StatusCode)
		}
		return &attendance.UploadError{StatusCode: statusErr.StatusCode, Message: msg}
	}
	return &attendance.UploadError{Message: err.Error()}
}
