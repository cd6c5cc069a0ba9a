package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/dmitrijs2005/moodkeeper/internal/client/inference"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"golang.org/x/image/draw"
)

// Preprocessor resizes face crops to Size x Size and normalizes them into
// a [1, Size, Size, 3] tensor with channels scaled to [0, 1].
type Preprocessor struct {
	Size   int
	scaler draw.Scaler
	pool   sync.Pool
}

func NewPreprocessor(size int) *Preprocessor {
	p := &Preprocessor{Size: size, scaler: draw.ApproxBiLinear}
	p.pool.New = func() any { return image.NewRGBA(image.Rect(0, 0, size, size)) }
	return p
}

// Shape is the tensor shape Prepare produces.
func (p *Preprocessor) Shape() []int { return []int{1, p.Size, p.Size, 3} }

// Prepare crops frame to box, resizes and normalizes it. The caller owns
// the returned tensor and must Release it.
func (p *Preprocessor) Prepare(frame image.Image, box Box) (*inference.Tensor, error) {
	face, err := Crop(frame, box)
	if err != nil {
		return nil, err
	}
	return p.Tensor(face), nil
}

// Tensor resizes img to the model input and normalizes it.
func (p *Preprocessor) Tensor(img image.Image) *inference.Tensor {
	dst := p.pool.Get().(*image.RGBA)
	defer p.pool.Put(dst)

	p.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := inference.NewTensor(p.Shape()...)
	out := t.Data()
	for y := 0; y < p.Size; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+p.Size*4]
		for x := 0; x < p.Size; x++ {
			i := (y*p.Size + x) * 3
			out[i] = float32(row[x*4]) / 255
			out[i+1] = float32(row[x*4+1]) / 255
			out[i+2] = float32(row[x*4+2]) / 255
		}
	}
	return t
}

// EncodeJPEG renders the face crop as the JPEG uploaded with a selfie.
func EncodeJPEG(frame image.Image, box Box) ([]byte, error) {
	face, err := Crop(frame, box)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, face, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", common.ErrInternal, err)
	}
	return buf.Bytes(), nil
}
