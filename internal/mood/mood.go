// Package mood holds the domain values shared by the client and the server:
// classifier labels, predictions, capability verdicts and mood ratings.
package mood

import (
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Label is the binary classifier verdict attached to journals and selfies.
type Label string

const (
	LabelUnknown     Label = ""
	LabelNotStressed Label = "Not Stressed"
	LabelStressed    Label = "Stressed"
)

// Class indices of the two-element probability vector.
const (
	ClassNotStressed = 0
	ClassStressed    = 1
)

// ManualProbability is the probability recorded for a manual correction.
const ManualProbability = "100%"

func (l Label) Valid() bool {
	return l == LabelUnknown || l == LabelNotStressed || l == LabelStressed
}

// Complement flips Stressed and Not Stressed. An unknown label has no
// complement and is returned unchanged.
func (l Label) Complement() Label {
	switch l {
	case LabelStressed:
		return LabelNotStressed
	case LabelNotStressed:
		return LabelStressed
	default:
		return LabelUnknown
	}
}

// LabelForClass maps a class index to its label.
func LabelForClass(i int) Label {
	if i == ClassStressed {
		return LabelStressed
	}
	return LabelNotStressed
}

// ParseLabel accepts the canonical spellings case-insensitively.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LabelUnknown, nil
	case "stressed":
		return LabelStressed, nil
	case "not stressed", "notstressed", "not_stressed":
		return LabelNotStressed, nil
	}
	return LabelUnknown, fmt.Errorf("%w: unknown label %q", common.ErrValidation, s)
}

// Prediction is the typed result of a classifier run.
type Prediction struct {
	Label       Label  `json:"label"`
	Probability string `json:"probability"`
}

func (p Prediction) IsZero() bool { return p.Label == LabelUnknown }

// Corrected returns the manual correction of p.
func (p Prediction) Corrected() Prediction {
	return Prediction{Label: p.Label.Complement(), Probability: ManualProbability}
}

// Argmax returns the index of the largest score. Equal scores resolve to
// the higher index, so a tied two-class vector yields ClassStressed.
func Argmax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s >= scores[best] {
			best = i
		}
	}
	return best
}

// FormatProbability renders a score in [0,1] as a two-decimal percentage.
func FormatProbability(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// FromScores validates a two-class probability vector and turns it into a
// Prediction.
func FromScores(scores []float64) (Prediction, error) {
	if err := CheckScores(scores); err != nil {
		return Prediction{}, err
	}
	i := Argmax(scores)
	return Prediction{Label: LabelForClass(i), Probability: FormatProbability(scores[i])}, nil
}

// CheckScores requires exactly two finite values.
func CheckScores(scores []float64) error {
	if len(scores) != 2 {
		return fmt.Errorf("%w: expected 2 scores, got %d", common.ErrInferenceFailure, len(scores))
	}
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite score", common.ErrInferenceFailure)
		}
	}
	return nil
}
