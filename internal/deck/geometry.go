package deck

import "pollkit/internal/imagefit"

// Slide geometry in EMUs, 16:9 surface. The placement rectangles are fixed;
// only the fitted image rectangle inside ImageBox varies per question.
const (
	titleFontSize   = 3200
	optionFontSize  = 2400
	introFontSize   = 2000
	countdownFontSz = 2000
	optionIndentEMU = 342900
)

var (
	// TitleBox holds the question prompt across the top of the slide.
	TitleBox = imagefit.Rect{X: 838200, Y: 365125, W: 10515600, H: 1325563}

	// OptionsBoxFull is the answer area when no image shares the slide.
	OptionsBoxFull = imagefit.Rect{X: 838200, Y: 1825625, W: 10515600, H: 3500000}

	// OptionsBoxSplit is the answer area when an image occupies the right half.
	OptionsBoxSplit = imagefit.Rect{X: 838200, Y: 1825625, W: 5257800, H: 3500000}

	// ImageBox is the fixed content rectangle images are letterboxed into.
	ImageBox = imagefit.Rect{X: 6553200, Y: 1825625, W: 4800600, H: 3500000}

	// CountdownBox sits in the lower-right corner.
	CountdownBox = imagefit.Rect{X: 10744200, Y: 5943600, W: 1066800, H: 609600}
)
