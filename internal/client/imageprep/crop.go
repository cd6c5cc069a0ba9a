package imageprep

import (
	"fmt"
	"image"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Face box insets applied before resizing.
const (
	InsetOffset = 30
	InsetShrink = 50
)

// Box is a face bounding box in frame coordinates.
type Box struct {
	X, Y, Width, Height int
}

func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Region returns the tightened crop rectangle: the box moved by InsetOffset
// on both axes and shrunk by InsetShrink, clipped to bounds.
func (b Box) Region(bounds image.Rectangle) image.Rectangle {
	w, h := b.Width-InsetShrink, b.Height-InsetShrink
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	origin := image.Pt(b.X+InsetOffset, b.Y+InsetOffset)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}.Intersect(bounds)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the tightened face region of frame. It shares pixels with
// frame when the image type allows it.
func Crop(frame image.Image, box Box) (image.Image, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: no frame captured", common.ErrValidation)
	}
	if box.Empty() {
		return nil, fmt.Errorf("%w: no face detected", common.ErrValidation)
	}

	r := box.Region(frame.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%w: face box %+v is outside the frame", common.ErrValidation, box)
	}

	if s, ok := frame.(subImager); ok {
		return s.SubImage(r), nil
	}
	return &cropped{Image: frame, r: r}, nil
}

type cropped struct {
	image.Image
	r image.Rectangle
}

func (c *cropped) Bounds() image.Rectangle { return c.r }

// FullFrame returns the box whose tightened region is exactly bounds. It
// is used to re-run a stored, already cropped selfie.
func FullFrame(bounds image.Rectangle) Box {
	return Box{
		X:      bounds.Min.X - InsetOffset,
		Y:      bounds.Min.Y - InsetOffset,
		Width:  bounds.Dx() + InsetShrink,
		Height: bounds.Dy() + InsetShrink,
	}
}
