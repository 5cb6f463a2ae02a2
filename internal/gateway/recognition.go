package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// envelope is the proxy response of the backend functions. Body holds the
// real payload, itself JSON-encoded as a string.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// recognitionPayload is the decoded inner body of a recognition response.
type recognitionPayload struct {
	Message            string                         `json:"Message"`
	RecognizedStudents []attendance.RecognizedStudent `json:"recognizedStudents"`
}

// decodeEnvelope unwraps both layers of a proxy response into v. The inner
// body may be a JSON string (the usual case) or an already decoded object.
func decodeEnvelope(data []byte, v any) (int, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, fmt.Errorf("could not unmarshal envelope: %w", err)
	}
	raw := bytes.TrimSpace(env.Body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		// Query reports this as a failure result, not a transport error.
		return env.StatusCode, errors.New("envelope has no body")
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return env.StatusCode, fmt.Errorf("could not unmarshal body string: %w", err)
		}
		raw = []byte(inner)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return env.StatusCode, fmt.Errorf("could not unmarshal body: %w", err)
	}
	return env.StatusCode, nil
}

// Query asks the backend who is in the image uploaded under key.
//
// Only a response whose Message equals "success" (any case) is a success.
// Unexpected statuses and undecodable payloads yield a failure result; only
// a request that never completed returns an error, wrapped in
// *attendance.RecognitionTransportError.
func (c *Client) Query(ctx context.Context, key attendance.UploadKey) (*attendance.RecognitionResult, error) {
	endpoint := c.recognizePath + "?" + url.Values{"objectKey": {key.ObjectName()}}.Encode()
	logger := c.logger.With(zap.String("upload_key", string(key)))

	body, err := doRequest(ctx, c, http.MethodGet, endpoint, nil, http.StatusOK)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			logger.Info("recognition returned non-success status", zap.Int("status", statusErr.StatusCode))
			return failure(statusErr.Body), nil
		}
		return nil, &attendance.RecognitionTransportError{Err: err}
	}

	var payload recognitionPayload
	status, err := decodeEnvelope(body, &payload)
	if err != nil {
		logger.Warn("could not decode recognition response", zap.Error(err))
		return failure(""), nil
	}
	if status != 0 && (status < 200 || status > 299) {
		logger.Info("recognition rejected", zap.Int("status", status), zap.String("message", payload.Message))
		return failure(payload.Message), nil
	}
	if !strings.EqualFold(strings.TrimSpace(payload.Message), string(attendance.StatusSuccess)) {
		return failure(payload.Message), nil
	}

	logger.Debug("recognition succeeded", zap.Int("students", len(payload.RecognizedStudents)))
	return &attendance.RecognitionResult{
		Status:   attendance.StatusSuccess,
		Message:  payload.Message,
		Students: payload.RecognizedStudents,
	}, nil
}

func failure(message string) *attendance.RecognitionResult {
	return &attendance.RecognitionResult{Status: attendance.StatusFailure, Message: message}
}
