package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageSize bounds a single selected or captured image.
const MaxImageSize int64 = 10 << 20

const jpegQuality = 90

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp":
		return true
	}
	return false
}

// NormalizeJPEG validates image data and returns it as JPEG. JPEG input is
// passed through untouched; other formats are decoded, EXIF-oriented and
// re-encoded.
func NormalizeJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("unsupported image data: %w", err)
	} else if format == "jpeg" {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadImage reads one selected image (a multipart part or an open file) into
// a JPEG payload.
func ReadImage(name string, r io.Reader) (ImagePayload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return ImagePayload{}, fmt.Errorf("could not read %s: %w", name, err)
	}
	if int64(len(data)) > MaxImageSize {
		return ImagePayload{}, fmt.Errorf("%s exceeds %d bytes", name, MaxImageSize)
	}
	jpegData, err := NormalizeJPEG(data)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("%s: %w", name, err)
	}
	return ImagePayload{Name: filepath.Base(name), Data: jpegData, ContentType: ContentTypeJPEG}, nil
}

// CollectImages expands paths into image files. Directories contribute the
// image files they contain, in name order, descending into subdirectories
// only when recursive is set. A file named explicitly must have an image
// extension.
func CollectImages(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !info.IsDir() {
			if !IsImageFile(path) {
				return nil, fmt.Errorf("%s is not a supported image file", path)
			}
			files = append(files, path)
			continue
		}

		if recursive {
			err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && IsImageFile(d.Name()) {
					files = append(files, p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", path, err)
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", path, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsImageFile(entry.Name()) {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}
	return files, nil
}

// LoadFiles reads image files from disk in the given order. Any unreadable
// file fails the whole selection so a batch is never silently shortened.
func LoadFiles(paths []string) ([]ImagePayload, error) {
	payloads := make([]ImagePayload, 0, len(paths))
	for _, path := range paths {
		payload, err := func() (ImagePayload, error) {
			f, err := os.Open(path) //nolint:gosec // user-selected image path
			if err != nil {
				return ImagePayload{}, fmt.Errorf("could not open file: %w", err)
			}
			defer f.Close()
			return ReadImage(path, f)
		}()
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// Camera yields a single still frame on demand.
type Camera interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// SnapshotCamera grabs a still frame from an HTTP snapshot endpoint, as
// exposed by most IP cameras and webcam bridges.
type SnapshotCamera struct {
	URL    string
	Client *http.Client
}

// NewSnapshotCamera creates a camera reading stills from url.
func NewSnapshotCamera(url string, timeout time.Duration) *SnapshotCamera {
	return &SnapshotCamera{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Snapshot fetches one frame.
func (c *SnapshotCamera) Snapshot(ctx context.Context) ([]byte, error) {
	if c.URL == "" {
		return nil, errors.New("camera snapshot URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/*")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach camera: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera snapshot failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, fmt.Errorf("snapshot exceeds %d bytes", MaxImageSize)
	}
	return data, nil
}

// Capture takes an instantaneous still from cam and converts it into the
// same payload shape as a selected file.
func Capture(ctx context.Context, cam Camera, at time.Time) (ImagePayload, error) {
	frame, err := cam.Snapshot(ctx)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("capture failed: %w", err)
	}
	data, err := NormalizeJPEG(frame)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("capture failed: %w", err)
	}
	return ImagePayload{
		Name:        "capture-" + at.Format("20060102-150405") + ".jpeg",
		Data:        data,
		ContentType: ContentTypeJPEG,
	}, nil
}
