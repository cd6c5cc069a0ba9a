// Package capability decides, once per user, whether this device can run
// the classifiers in process.
package capability

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/client/inference"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// Probe tries backends in priority order and keeps the first one whose
// canary runs succeed on both models.
type Probe struct {
	backends []inference.Backend
	models   inference.ModelSource
	logger   logging.Logger
}

func NewProbe(backends []inference.Backend, models inference.ModelSource, logger logging.Logger) *Probe {
	return &Probe{backends: backends, models: models, logger: logger.With("module", "capability")}
}

// Detect never fails: every backend error is logged and the next backend
// tried. The engine is non-nil only for a supported verdict.
func (p *Probe) Detect(ctx context.Context) (mood.Capability, *inference.Engine) {
	for _, b := range p.backends {
		if ctx.Err() != nil {
			break
		}
		e, err := p.try(ctx, b)
		if err != nil {
			p.logger.Info(ctx, "backend rejected", "backend", b.Name(), "error", err)
			continue
		}
		p.logger.Info(ctx, "backend selected", "backend", b.Name())
		return mood.CapabilitySupported, e
	}
	p.logger.Info(ctx, "no usable backend")
	return mood.CapabilityUnsupported, nil
}

func (p *Probe) try(ctx context.Context, b inference.Backend) (e *inference.Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("%w: %s panicked: %v", common.ErrInferenceFailure, b.Name(), r)
		}
	}()

	e, err = inference.Load(ctx, b, p.models)
	if err != nil {
		return nil, err
	}

	for _, kind := range []string{inference.KindJournal, inference.KindSelfie} {
		if err := canary(ctx, e, kind); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func canary(ctx context.Context, e *inference.Engine, kind string) error {
	in := inference.CanaryInput(e.Model(kind))
	defer in.Release()

	scores, err := e.Scores(ctx, kind, in)
	if err != nil {
		return fmt.Errorf("%s canary: %w", kind, err)
	}
	if err := mood.CheckScores(scores); err != nil {
		return fmt.Errorf("%s canary: %w", kind, err)
	}
	return nil
}

// LoadFirst returns an engine on the first backend that initializes and
// loads both models. It does not run canaries; it is for sessions whose
// verdict is already supported.
func LoadFirst(ctx context.Context, backends []inference.Backend, models inference.ModelSource) (*inference.Engine, error) {
	var errs []error
	for _, b := range backends {
		e, err := inference.Load(ctx, b, models)
		if err == nil {
			return e, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: no backend loaded: %v", common.ErrInferenceFailure, errs)
}
