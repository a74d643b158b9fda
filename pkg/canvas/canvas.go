package canvas

import (
	"io"
)

// Canvas is a page-oriented drawing surface. Coordinates are in points from the
// top-left corner of the current page; y is the top of the text line.
type Canvas interface {
	DrawText(text string, x, y, size float64) error
	DrawImage(img []byte, x, y, width float64) error
	NewPage() error
}

// Finalizer is a canvas that can write its finished artifact.
type Finalizer interface {
	Canvas
	Finalize(w io.Writer) error
}

// Measurer is implemented by canvases that know their font metrics.
// Replay centers banner titles only on canvases that implement it.
type Measurer interface {
	TextWidth(text string, size float64) float64
}

// Banner is the title block drawn in place of a banner placement.
type Banner struct {
	// Image is drawn at the top-left corner of the banner, full page width.
	// Empty means no image.
	Image    []byte
	Title    string
	Subtitle string
}
