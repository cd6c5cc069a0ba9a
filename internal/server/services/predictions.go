package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/filex"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/richtext"
	"github.com/dmitrijs2005/moodkeeper/internal/server/config"
	"github.com/dmitrijs2005/moodkeeper/internal/server/worker"
	"github.com/google/uuid"
)

// Runner executes one worker process. *worker.Runner implements it.
type Runner interface {
	Run(ctx context.Context, argv []string, in any, out any) error
}

// PredictionCounter is implemented by *metrics.Metrics.
type PredictionCounter interface {
	IncPrediction(kind string, err error)
}

type nopCounter struct{}

func (nopCounter) IncPrediction(string, error) {}

const (
	KindJournal = "journal"
	KindSelfie  = "selfie"
)

// PredictionService is the remote inference path: journal preprocessing for
// clients that run models locally, and full worker predictions for those
// that cannot.
type PredictionService struct {
	runner  Runner
	counter PredictionCounter
	logger  logging.Logger

	preprocessJournalCmd []string
	predictJournalCmd    []string
	predictSelfieCmd     []string
	tempDir              string
}

func NewPredictionService(runner Runner, counter PredictionCounter, cfg *config.Config, logger logging.Logger) *PredictionService {
	if counter == nil {
		counter = nopCounter{}
	}
	return &PredictionService{
		runner:               runner,
		counter:              counter,
		logger:               logger.With("module", "prediction_service"),
		preprocessJournalCmd: cfg.PreprocessJournalCmd,
		predictJournalCmd:    cfg.PredictJournalCmd,
		predictSelfieCmd:     cfg.PredictSelfieCmd,
		tempDir:              cfg.TempDir,
	}
}

func journalText(body string) (string, error) {
	text := richtext.PlainText(body)
	if text == "" {
		return "", fmt.Errorf("%w: journal text is empty", common.ErrValidation)
	}
	return text, nil
}

// PreprocessJournal turns a journal body into the feature rows the local
// journal model consumes.
func (s *PredictionService) PreprocessJournal(ctx context.Context, body string) ([][]float64, error) {
	text, err := journalText(body)
	if err != nil {
		return nil, err
	}

	var out worker.PreprocessOutput
	if err := s.runner.Run(ctx, s.preprocessJournalCmd, worker.JournalInput{Entry: text}, &out); err != nil {
		return nil, err
	}
	if len(out.InputEntryTransformed) == 0 || len(out.InputEntryTransformed[0]) == 0 {
		return nil, fmt.Errorf("%w: preprocessing returned no features", common.ErrInferenceFailure)
	}
	return out.InputEntryTransformed, nil
}

func (s *PredictionService) PredictJournal(ctx context.Context, body string) (p mood.Prediction, err error) {
	defer func() { s.counter.IncPrediction(KindJournal, err) }()

	text, err := journalText(body)
	if err != nil {
		return mood.Prediction{}, err
	}

	var out worker.PredictionOutput
	if err := s.runner.Run(ctx, s.predictJournalCmd, worker.JournalInput{Entry: text}, &out); err != nil {
		return mood.Prediction{}, err
	}
	return out.Prediction()
}

// PredictSelfie stores the upload in a temporary file named after the user,
// hands its path to the selfie worker and removes it afterwards.
func (s *PredictionService) PredictSelfie(ctx context.Context, userID string, image io.Reader) (p mood.Prediction, err error) {
	defer func() { s.counter.IncPrediction(KindSelfie, err) }()

	if image == nil {
		return mood.Prediction{}, fmt.Errorf("%w: image is required", common.ErrValidation)
	}

	path := filepath.Join(s.tempDir, userID+" "+uuid.NewString()+".jpg")
	if err := filex.WriteFile(path, image); err != nil {
		return mood.Prediction{}, fmt.Errorf("%w: write temp image: %w", common.ErrInternal, err)
	}
	defer func() {
		if rmErr := filex.RemoveIfExists(path); rmErr != nil {
			s.logger.Warn(ctx, "temp image not removed", "path", path, "error", rmErr)
		}
	}()

	if fi, err := os.Stat(path); err == nil && fi.Size() == 0 {
		return mood.Prediction{}, fmt.Errorf("%w: image is empty", common.ErrValidation)
	}

	var out worker.PredictionOutput
	if err := s.runner.Run(ctx, s.predictSelfieCmd, worker.SelfieInput{SelfieFilePath: path}, &out); err != nil {
		return mood.Prediction{}, err
	}
	return out.Prediction()
}
