// Package imagefit downloads question images, decodes their natural pixel
// dimensions, and computes letterboxed placement rectangles in EMU space.
package imagefit

// Size is a natural image dimension in pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is a placement rectangle in EMUs.
type Rect struct {
	X int64
	Y int64
	W int64
	H int64
}

// Fit scales natural into box preserving aspect ratio and centers the result
// along the axis with slack. A degenerate natural size fills the whole box.
func Fit(natural Size, box Rect) Rect {
	if natural.Width <= 0 || natural.Height <= 0 {
		return box
	}

	scaleW := float64(box.W) / float64(natural.Width)
	scaleH := float64(box.H) / float64(natural.Height)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	w := int64(float64(natural.Width) * scale)
	h := int64(float64(natural.Height) * scale)

	return Rect{
		X: box.X + (box.W-w)/2,
		Y: box.Y + (box.H-h)/2,
		W: w,
		H: h,
	}
}
