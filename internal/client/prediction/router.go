// Package prediction routes classifier requests to the in-process engine
// or to the server's worker endpoints, depending on the capability flag.
package prediction

import (
	"context"
	"fmt"
	"image"

	"github.com/dmitrijs2005/moodkeeper/internal/client/imageprep"
	"github.com/dmitrijs2005/moodkeeper/internal/client/inference"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// Request carries either a journal body or a selfie frame with the face
// box found in it.
type Request struct {
	Kind  string
	Text  string
	Frame image.Image
	Box   imageprep.Box
}

func JournalRequest(text string) Request {
	return Request{Kind: inference.KindJournal, Text: text}
}

func SelfieRequest(frame image.Image, box imageprep.Box) Request {
	return Request{Kind: inference.KindSelfie, Frame: frame, Box: box}
}

type Flag interface {
	Current() mood.Capability
}

type Engines interface {
	Engine(ctx context.Context) (*inference.Engine, error)
}

// Remote is the server's preprocessing and prediction surface.
type Remote interface {
	PreprocessJournal(ctx context.Context, text string) ([][]float64, error)
	PredictJournal(ctx context.Context, text string) (mood.Prediction, error)
	PredictSelfie(ctx context.Context, image []byte) (mood.Prediction, error)
}

type Router struct {
	flag    Flag
	engines Engines
	remote  Remote
	prep    *imageprep.Preprocessor
	logger  logging.Logger
}

func NewRouter(flag Flag, engines Engines, remote Remote, prep *imageprep.Preprocessor, logger logging.Logger) *Router {
	return &Router{flag: flag, engines: engines, remote: remote, prep: prep, logger: logger.With("module", "prediction")}
}

// Predict returns ok=false on any failure; the cause is logged, never
// returned. A supported flag runs the model in process, anything else
// goes to the server.
func (r *Router) Predict(ctx context.Context, req Request) (mood.Prediction, bool) {
	flag := r.flag.Current()

	var (
		p   mood.Prediction
		err error
	)
	if flag == mood.CapabilitySupported {
		p, err = r.local(ctx, req)
	} else {
		p, err = r.remoteCall(ctx, req)
	}
	if err == nil && p.IsZero() {
		err = fmt.Errorf("%w: empty prediction", common.ErrInferenceFailure)
	}
	if err != nil {
		r.logger.Warn(ctx, "prediction failed", "kind", req.Kind, "capability", flag, "error", err)
		return mood.Prediction{}, false
	}

	r.logger.Debug(ctx, "prediction", "kind", req.Kind, "capability", flag, "label", p.Label, "probability", p.Probability)
	return p, true
}

func (r *Router) local(ctx context.Context, req Request) (mood.Prediction, error) {
	e, err := r.engines.Engine(ctx)
	if err != nil {
		return mood.Prediction{}, err
	}

	var in *inference.Tensor
	switch req.Kind {
	case inference.KindJournal:
		in, err = r.journalTensor(ctx, e, req.Text)
	case inference.KindSelfie:
		in, err = r.prep.Prepare(req.Frame, req.Box)
	default:
		err = fmt.Errorf("%w: unknown prediction kind %q", common.ErrValidation, req.Kind)
	}
	if err != nil {
		return mood.Prediction{}, err
	}
	defer in.Release()

	return e.Predict(ctx, req.Kind, in)
}

// journalTensor asks the server to preprocess text and packs the first
// feature row into the journal model's input shape.
func (r *Router) journalTensor(ctx context.Context, e *inference.Engine, text string) (*inference.Tensor, error) {
	rows, err := r.remote.PreprocessJournal(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: preprocessing returned no features", common.ErrInferenceFailure)
	}

	m := e.Model(inference.KindJournal)
	if len(rows[0]) != m.InputLen() {
		return nil, fmt.Errorf("%w: %d features, journal model wants %d", common.ErrInferenceFailure, len(rows[0]), m.InputLen())
	}

	t := inference.NewTensor(m.InputShape...)
	for i, v := range rows[0] {
		t.Data()[i] = float32(v)
	}
	return t, nil
}

func (r *Router) remoteCall(ctx context.Context, req Request) (mood.Prediction, error) {
	switch req.Kind {
	case inference.KindJournal:
		return r.remote.PredictJournal(ctx, req.Text)
	case inference.KindSelfie:
		jpeg, err := imageprep.EncodeJPEG(req.Frame, req.Box)
		if err != nil {
			return mood.Prediction{}, err
		}
		return r.remote.PredictSelfie(ctx, jpeg)
	}
	return mood.Prediction{}, fmt.Errorf("%w: unknown prediction kind %q", common.ErrValidation, req.Kind)
}
