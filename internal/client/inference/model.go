package inference

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Model kinds served by GET /models/{kind}.
const (
	KindJournal = "journal"
	KindSelfie  = "selfie"
)

type Activation string

const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
	Softmax Activation = "softmax"
)

// Layer is a fully connected layer. Weights has one row per output unit.
type Layer struct {
	Weights    [][]float32 `json:"weights"`
	Bias       []float32   `json:"bias"`
	Activation Activation  `json:"activation"`
}

func (l *Layer) Out() int { return len(l.Weights) }

// Model is a pre-trained feed-forward classifier. The last layer must
// produce two class scores.
type Model struct {
	Kind       string  `json:"kind"`
	InputShape []int   `json:"input_shape"`
	Layers     []Layer `json:"layers"`
}

func (m *Model) InputLen() int { return shapeLen(m.InputShape) }

// ParseModel decodes and validates a model document.
func ParseModel(raw []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: decode model: %v", common.ErrInferenceFailure, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.InputShape) == 0 || m.InputLen() <= 0 {
		return fmt.Errorf("%w: model %q has no input shape", common.ErrInferenceFailure, m.Kind)
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: model %q has no layers", common.ErrInferenceFailure, m.Kind)
	}

	width := m.InputLen()
	for i, l := range m.Layers {
		if l.Out() == 0 || len(l.Bias) != l.Out() {
			return fmt.Errorf("%w: model %q layer %d: %d rows, %d biases", common.ErrInferenceFailure, m.Kind, i, l.Out(), len(l.Bias))
		}
		for _, row := range l.Weights {
			if len(row) != width {
				return fmt.Errorf("%w: model %q layer %d: row width %d, want %d", common.ErrInferenceFailure, m.Kind, i, len(row), width)
			}
		}
		switch l.Activation {
		case "", Linear, ReLU, Sigmoid, Softmax:
		default:
			return fmt.Errorf("%w: model %q layer %d: unknown activation %q", common.ErrInferenceFailure, m.Kind, i, l.Activation)
		}
		width = l.Out()
	}
	if width != 2 {
		return fmt.Errorf("%w: model %q produces %d scores, want 2", common.ErrInferenceFailure, m.Kind, width)
	}
	return nil
}

// CanaryInput is the fixed tensor used to test a backend against m.
func CanaryInput(m *Model) *Tensor {
	t := NewTensor(m.InputShape...)
	for i := range t.data {
		t.data[i] = 0.5
	}
	return t
}
