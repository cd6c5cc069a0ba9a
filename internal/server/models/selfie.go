package models

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// SelfieTimeLayout is the timestamp part of a selfie image name.
const SelfieTimeLayout = "2006-01-02T15:04:05.000Z"

type Selfie struct {
	ID               string
	UserID           string
	ImageName        string
	Label            mood.Label
	Probability      string
	ManualCorrection bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SelfieImageName builds "<UTC timestamp> <label>.jpg". Records without a
// label use "Unlabeled".
func SelfieImageName(createdAt time.Time, label mood.Label) string {
	l := string(label)
	if label == mood.LabelUnknown {
		l = "Unlabeled"
	}
	return createdAt.UTC().Format(SelfieTimeLayout) + " " + l + ".jpg"
}
