package overlay

import "image"

// PixelRect maps a normalized box (Left, Top, Width, Height in [0,1]) onto an
// image of the given pixel size. Left and Width scale with the width, Top and
// Height with the height.
func PixelRect(b Box, width, height int) image.Rectangle {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}
	}
	x := int(b.Left * float64(width))
	y := int(b.Top * float64(height))
	w := int(b.Width * float64(width))
	h := int(b.Height * float64(height))
	return image.Rect(x, y, x+w, y+h)
}

// strokeEdges returns the four edge bands of an unfilled rectangle outline of
// the given line width, centered on r's border the way a canvas stroke is.
func strokeEdges(r image.Rectangle, lineWidth int) []image.Rectangle {
	if lineWidth <= 0 || r.Empty() {
		return nil
	}
	half := lineWidth / 2
	outer := image.Rect(r.Min.X-half, r.Min.Y-half, r.Max.X+lineWidth-half, r.Max.Y+lineWidth-half)
	return []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+lineWidth), // top
		image.Rect(outer.Min.X, outer.Max.Y-lineWidth, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+lineWidth, outer.Max.Y), // left
		image.Rect(outer.Max.X-lineWidth, outer.Min.Y, outer.Max.X, outer.Max.Y), // right
	}
}
