package attendance

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/overlay"
)

// DefaultCallTimeout bounds every upload and recognition call.
const DefaultCallTimeout = 10 * time.Second

// Uploader stores an image in the remote object store.
type Uploader interface {
	Put(ctx context.Context, payload ImagePayload) (UploadKey, error)
}

// Recognizer asks the backend who is in a previously uploaded image.
type Recognizer interface {
	Query(ctx context.Context, key UploadKey) (*RecognitionResult, error)
}

// State of the workflow.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

// WithCallTimeout bounds each network call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(w *Workflow) { w.callTimeout = d }
}

// WithClock overrides the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithProgress registers a callback invoked after each processed image.
func WithProgress(fn func(done, total int)) Option {
	return func(w *Workflow) { w.progress = fn }
}

// Workflow owns one attendance session: the staged images, the result log,
// the overlay set and the displayed image. All mutation goes through its
// methods; readers get copies.
type Workflow struct {
	uploader    Uploader
	recognizer  Recognizer
	logger      *zap.Logger
	callTimeout time.Duration
	now         func() time.Time
	progress    func(done, total int)

	mu        sync.Mutex
	state     State
	staged    []ImagePayload
	entries   []LogEntry
	overlays  []overlay.Box
	displayed *ImagePayload
	processed int
	total     int
}

// NewWorkflow creates an idle workflow.
func NewWorkflow(uploader Uploader, recognizer Recognizer, opts ...Option) *Workflow {
	w := &Workflow{
		uploader:    uploader,
		recognizer:  recognizer,
		logger:      zap.NewNop(),
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("attendance")
	return w
}

// Stage replaces the selected images. An empty selection leaves the current
// state untouched and returns ErrNoInput. A non-empty one invalidates every
// previous result: log, overlays and displayed image are cleared.
func (w *Workflow) Stage(payloads []ImagePayload) error {
	if len(payloads) == 0 {
		return ErrNoInput
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return ErrBusy
	}

	staged := make([]ImagePayload, len(payloads))
	for i, p := range payloads {
		if p.ContentType == "" {
			p.ContentType = ContentTypeJPEG
		}
		p.PreviewID = uuid.NewString()
		staged[i] = p
	}

	w.staged = staged
	w.entries = nil
	w.overlays = nil
	w.displayed = nil
	w.processed, w.total = 0, 0
	return nil
}

// Submit uploads and recognizes every staged image, one after another, and
// returns the resulting log. Per-image failures are recorded in the log and
// never abort the batch. With nothing staged the log becomes a single
// no-input entry and no request is made.
func (w *Workflow) Submit(ctx context.Context) ([]LogEntry, error) {
	w.mu.Lock()
	if w.state != StateIdle {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if len(w.staged) == 0 {
		w.entries = []LogEntry{{
			Message:    MsgNoInput,
			Outcome:    OutcomeNoInput,
			CapturedAt: w.now(),
		}}
		entries := slices.Clone(w.entries)
		w.mu.Unlock()
		return entries, nil
	}

	batch := slices.Clone(w.staged)
	w.state = StateSubmitting
	w.entries = nil
	w.overlays = nil
	w.displayed = nil
	w.processed, w.total = 0, len(batch)
	w.mu.Unlock()

	logger := logging.WithOperation(w.logger, "attendance.submit", uuid.NewString())
	logger.Info("batch started", zap.Int("images", len(batch)))

	for i, payload := range batch {
		w.process(ctx, logger, payload)

		w.mu.Lock()
		w.processed = i + 1
		w.mu.Unlock()
		if w.progress != nil {
			w.progress(i+1, len(batch))
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateIdle
	w.staged = nil
	logger.Info("batch finished", zap.Int("entries", len(w.entries)))
	return slices.Clone(w.entries), nil
}

// process runs upload and recognition for one image and records the outcome.
func (w *Workflow) process(ctx context.Context, logger *zap.Logger, payload ImagePayload) {
	imgLogger := logger.With(zap.String("image", payload.Name))
	at := w.now()

	key, err := w.put(ctx, payload)
	if err != nil {
		imgLogger.Warn("upload failed", zap.Error(err))
		w.record(payload, nil, LogEntry{
			Message:    uploadFailedMessage(err),
			Outcome:    OutcomeUploadFailed,
			Image:      payload.Name,
			CapturedAt: at,
		})
		return
	}
	imgLogger = imgLogger.With(zap.String("upload_key", string(key)))

	result, err := w.query(ctx, key)
	switch {
	case err != nil:
		imgLogger.Warn("recognition failed", zap.Error(err))
		w.record(payload, nil, LogEntry{
			Message:    MsgError,
			Outcome:    OutcomeError,
			Image:      payload.Name,
			CapturedAt: at,
		})

	case result.Recognized():
		entries := make([]LogEntry, 0, len(result.Students))
		boxes := make([]overlay.Box, 0, len(result.Students))
		for _, s := range result.Students {
			student := s
			entries = append(entries, LogEntry{
				Message:    recordedMessage(s),
				Success:    true,
				Outcome:    OutcomeRecognized,
				Student:    &student,
				Image:      payload.Name,
				CapturedAt: at,
			})
			boxes = append(boxes, s.Overlay())
		}
		imgLogger.Info("students recognized", zap.Int("count", len(result.Students)))
		w.record(payload, boxes, entries...)

	default:
		imgLogger.Info("recognition rejected", zap.String("message", result.Message))
		w.record(payload, nil, LogEntry{
			Message:    MsgRejected,
			Outcome:    OutcomeRejected,
			Image:      payload.Name,
			CapturedAt: at,
		})
	}
}

func (w *Workflow) put(ctx context.Context, payload ImagePayload) (UploadKey, error) {
	ctx, cancel := w.callContext(ctx)
	defer cancel()

	key, err := w.uploader.Put(ctx, payload)
	if err != nil {
		var uploadErr *UploadError
		if errors.As(err, &uploadErr) {
			return "", uploadErr
		}
		return "", &UploadError{Message: err.Error()}
	}
	return key, nil
}

func (w *Workflow) query(ctx context.Context, key UploadKey) (*RecognitionResult, error) {
	ctx, cancel := w.callContext(ctx)
	defer cancel()

	result, err := w.recognizer.Query(ctx, key)
	if err != nil {
		var transportErr *RecognitionTransportError
		if errors.As(err, &transportErr) {
			return nil, transportErr
		}
		return nil, &RecognitionTransportError{Err: err}
	}
	if result == nil {
		return nil, &RecognitionTransportError{Err: errors.New("empty recognition result")}
	}
	return result, nil
}

func (w *Workflow) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.callTimeout)
}

// record appends entries and makes payload the displayed image with the
// given overlay set (nil clears it).
func (w *Workflow) record(payload ImagePayload, boxes []overlay.Box, entries ...LogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entries...)
	w.overlays = boxes
	w.displayed = &payload
}

// Reset clears staged images, log, overlays and the displayed image.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return ErrBusy
	}
	w.staged = nil
	w.entries = nil
	w.overlays = nil
	w.displayed = nil
	w.processed, w.total = 0, 0
	return nil
}

// ImageInfo describes a staged or displayed image without its bytes.
type ImageInfo struct {
	Name      string `json:"name"`
	PreviewID string `json:"preview_id"`
	Size      int    `json:"size"`
}

func infoOf(p ImagePayload) ImageInfo {
	return ImageInfo{Name: p.Name, PreviewID: p.PreviewID, Size: len(p.Data)}
}

// Snapshot is a consistent, copied view of the workflow.
type Snapshot struct {
	State     State         `json:"state"`
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Staged    []ImageInfo   `json:"staged"`
	Log       []LogEntry    `json:"log"`
	Overlays  []overlay.Box `json:"overlays"`
	Displayed *ImageInfo    `json:"displayed,omitempty"`
}

// Snapshot returns the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		State:     w.state,
		Processed: w.processed,
		Total:     w.total,
		Staged:    make([]ImageInfo, 0, len(w.staged)),
		Log:       append([]LogEntry{}, w.entries...),
		Overlays:  append([]overlay.Box{}, w.overlays...),
	}
	for _, p := range w.staged {
		s.Staged = append(s.Staged, infoOf(p))
	}
	if w.displayed != nil {
		info := infoOf(*w.displayed)
		s.Displayed = &info
	}
	return s
}

// Displayed returns the most recently processed image and its overlay set.
func (w *Workflow) Displayed() (ImagePayload, []overlay.Box, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.displayed == nil {
		return ImagePayload{}, nil, false
	}
	return *w.displayed, slices.Clone(w.overlays), true
}

// Preview returns the staged or displayed image with the given preview ID.
// Previews of superseded selections are no longer reachable.
func (w *Workflow) Preview(id string) (ImagePayload, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.displayed != nil && w.displayed.PreviewID == id {
		return *w.displayed, true
	}
	for _, p := range w.staged {
		if p.PreviewID == id {
			return p, true
		}
	}
	return ImagePayload{}, false
}

// RenderDisplayed renders the displayed image with its overlays as PNG.
func (w *Workflow) RenderDisplayed() ([]byte, error) {
	payload, boxes, ok := w.Displayed()
	if !ok {
		return nil, ErrNoInput
	}
	return overlay.RenderImage(payload.Data, boxes)
}
