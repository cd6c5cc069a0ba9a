package imageprep

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Camera yields the current frame of a feed.
type Camera interface {
	Frame(ctx context.Context) (image.Image, error)
}

// Detector finds a face box in a frame. ok is false when no face is
// visible.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) (box Box, ok bool, err error)
}

// FileCamera serves a still image from disk as its feed.
type FileCamera struct {
	Path string
}

func (c FileCamera) Frame(_ context.Context) (image.Image, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open frame: %v", common.ErrValidation, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame: %v", common.ErrValidation, err)
	}
	return img, nil
}

// CenterDetector reports a square box centered in the frame, sized so the
// tightened region still covers Ratio of the shorter side. It stands in for
// a landmark detector on hosts without one.
type CenterDetector struct {
	Ratio float64
}

func (d CenterDetector) Detect(_ context.Context, frame image.Image) (Box, bool, error) {
	b := frame.Bounds()
	side := min(b.Dx(), b.Dy())
	inner := int(float64(side) * d.Ratio)
	if inner <= 0 {
		return Box{}, false, nil
	}

	size := inner + InsetShrink
	cx, cy := b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2
	// Region adds InsetOffset to the origin, so back it off here.
	return Box{
		X:      cx - inner/2 - InsetOffset,
		Y:      cy - inner/2 - InsetOffset,
		Width:  size,
		Height: size,
	}, true, nil
}
