package inference

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

var (
	bufPool = sync.Pool{New: func() any { return new([]float32) }}
	live    atomic.Int64
)

// Tensor is a dense float32 array with a shape. Tensors from NewTensor
// borrow a pooled buffer and must be Released once the caller is done.
type Tensor struct {
	shape []int
	data  []float32
	buf   *[]float32
}

// NewTensor returns a zeroed tensor backed by a pooled buffer.
func NewTensor(shape ...int) *Tensor {
	n := shapeLen(shape)
	p := bufPool.Get().(*[]float32)
	if cap(*p) < n {
		*p = make([]float32, n)
	}
	data := (*p)[:n]
	clear(data)
	live.Add(1)
	return &Tensor{shape: append([]int(nil), shape...), data: data, buf: p}
}

// FromSlice wraps data without copying. The result is not pooled.
func FromSlice(data []float32, shape ...int) (*Tensor, error) {
	if n := shapeLen(shape); n != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", common.ErrInferenceFailure, shape, n, len(data))
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

func (t *Tensor) Shape() []int    { return t.shape }
func (t *Tensor) Data() []float32 { return t.data }
func (t *Tensor) Len() int        { return len(t.data) }

// Release hands the buffer back to the pool. It is safe to call more than
// once and on unpooled tensors.
func (t *Tensor) Release() {
	if t == nil || t.buf == nil {
		return
	}
	bufPool.Put(t.buf)
	t.buf = nil
	t.data = nil
	live.Add(-1)
}

// LiveTensors reports how many pooled tensors are currently unreleased.
func LiveTensors() int64 {
	return live.Load()
}

func shapeLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
