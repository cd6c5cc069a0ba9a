package worker

import (
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// JournalInput is sent to the journal preprocessing and prediction workers.
type JournalInput struct {
	Entry string `json:"entry"`
}

// SelfieInput points the selfie worker at a temporary image file.
type SelfieInput struct {
	SelfieFilePath string `json:"selfieFilePath"`
}

// PreprocessOutput is the journal feature batch.
type PreprocessOutput struct {
	InputEntryTransformed [][]float64 `json:"inputEntryTransformed"`
}

// PredictionOutput is returned by prediction workers. Workers may report
// raw scores, in which case they take precedence over label/probability.
type PredictionOutput struct {
	Scores      []float64 `json:"scores,omitempty"`
	Label       string    `json:"label,omitempty"`
	Probability string    `json:"probability,omitempty"`
}

func (o PredictionOutput) Prediction() (mood.Prediction, error) {
	if len(o.Scores) > 0 {
		return mood.FromScores(o.Scores)
	}
	label, err := mood.ParseLabel(o.Label)
	if err != nil || label == mood.LabelUnknown {
		return mood.Prediction{}, fmt.Errorf("%w: worker returned label %q", common.ErrInferenceFailure, o.Label)
	}
	if o.Probability == "" {
		return mood.Prediction{}, fmt.Errorf("%w: worker returned no probability", common.ErrInferenceFailure)
	}
	return mood.Prediction{Label: label, Probability: o.Probability}, nil
}
