package inference

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// ModelSource fetches a raw model document by kind.
type ModelSource interface {
	Model(ctx context.Context, kind string) ([]byte, error)
}

// Engine is an initialized backend with both classifiers loaded.
type Engine struct {
	backend Backend
	models  map[string]*Model
}

// Load initializes b and fetches the journal and selfie models from src.
func Load(ctx context.Context, b Backend, src ModelSource) (*Engine, error) {
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("init %s: %w", b.Name(), err)
	}

	e := &Engine{backend: b, models: make(map[string]*Model, 2)}
	for _, kind := range []string{KindJournal, KindSelfie} {
		raw, err := src.Model(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s model: %w", common.ErrInferenceFailure, kind, err)
		}
		m, err := ParseModel(raw)
		if err != nil {
			return nil, fmt.Errorf("load %s model: %w", kind, err)
		}
		e.models[kind] = m
	}
	return e, nil
}

func (e *Engine) Backend() string { return e.backend.Name() }

// Model returns the loaded model for kind, or nil.
func (e *Engine) Model(kind string) *Model { return e.models[kind] }

// Scores runs the model for kind on in.
func (e *Engine) Scores(ctx context.Context, kind string, in *Tensor) ([]float64, error) {
	m := e.models[kind]
	if m == nil {
		return nil, fmt.Errorf("%w: no %s model loaded", common.ErrInferenceFailure, kind)
	}
	return Run(ctx, e.backend, m, in)
}

// Predict runs the model for kind and turns its scores into a Prediction.
func (e *Engine) Predict(ctx context.Context, kind string, in *Tensor) (mood.Prediction, error) {
	scores, err := e.Scores(ctx, kind, in)
	if err != nil {
		return mood.Prediction{}, err
	}
	return mood.FromScores(scores)
}
