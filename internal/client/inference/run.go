package inference

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Run feeds in through every layer of m on backend b and returns the two
// class scores. Intermediate buffers are released before Run returns.
func Run(ctx context.Context, b Backend, m *Model, in *Tensor) ([]float64, error) {
	if in.Len() != m.InputLen() {
		return nil, fmt.Errorf("%w: %s input has %d values, model %q wants %d", common.ErrInferenceFailure, b.Name(), in.Len(), m.Kind, m.InputLen())
	}

	cur := in.Data()
	var prev *Tensor
	defer func() { prev.Release() }()

	for i := range m.Layers {
		l := &m.Layers[i]
		next := NewTensor(l.Out())
		if err := b.Dense(ctx, l, cur, next.Data()); err != nil {
			next.Release()
			return nil, fmt.Errorf("%w: %s layer %d: %v", common.ErrInferenceFailure, b.Name(), i, err)
		}
		activate(l.Activation, next.Data())

		prev.Release()
		prev = next
		cur = next.Data()
	}

	scores := make([]float64, len(cur))
	for i, v := range cur {
		scores[i] = float64(v)
	}
	return scores, nil
}

func activate(a Activation, v []float32) {
	switch a {
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case Sigmoid:
		for i, x := range v {
			v[i] = float32(1 / (1 + math.Exp(-float64(x))))
		}
	case Softmax:
		hi := v[0]
		for _, x := range v[1:] {
			hi = max(hi, x)
		}
		var sum float64
		for i, x := range v {
			e := math.Exp(float64(x - hi))
			v[i] = float32(e)
			sum += e
		}
		for i := range v {
			v[i] = float32(float64(v[i]) / sum)
		}
	}
}
