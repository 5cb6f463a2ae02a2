// Package overlay draws recognition results on top of a captured image.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	lineWidth   = 2
	labelOffset = 5 // pixels between the label baseline and the box top
)

// Stroke is the color of box outlines and labels (CSS "green").
var Stroke = color.RGBA{R: 0, G: 128, B: 0, A: 255}

// Box is a labeled, normalized bounding box. It is only meaningful together
// with the image it was recognized on.
type Box struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Name       string  `json:"name"`
	Confidence string  `json:"confidence"`
}

// Label returns the text drawn above the box, e.g. "Jane Doe (CS: 0.98)".
func (b Box) Label() string {
	return fmt.Sprintf("%s (CS: %s)", b.Name, b.Confidence)
}

// Render draws base at its native size onto a fresh canvas and strokes every
// box with its label. Each call starts from a clean canvas, so rendering the
// same inputs twice yields identical pixels. With no boxes the result is a
// plain copy of base.
func Render(base image.Image, boxes []Box) *image.RGBA {
	bounds := base.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, bounds.Min, draw.Src)

	src := image.NewUniform(Stroke)
	for _, b := range boxes {
		r := PixelRect(b, bounds.Dx(), bounds.Dy())
		for _, edge := range strokeEdges(r, lineWidth) {
			draw.Draw(canvas, edge.Intersect(canvas.Bounds()), src, image.Point{}, draw.Src)
		}

		d := &font.Drawer{
			Dst:  canvas,
			Src:  src,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(r.Min.X, r.Min.Y-labelOffset),
		}
		d.DrawString(asciiLabel(b.Label()))
	}
	return canvas
}

// RenderImage decodes an encoded image (JPEG, PNG, GIF, BMP or WebP), renders
// the boxes on it and returns the result encoded as PNG.
func RenderImage(data []byte, boxes []Box) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(img, boxes)); err != nil {
		return nil, fmt.Errorf("failed to encode rendered image: %w", err)
	}
	return buf.Bytes(), nil
}
