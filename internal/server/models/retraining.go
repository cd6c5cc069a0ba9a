package models

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

type RetrainingKind string

const (
	RetrainingJournal RetrainingKind = "journal"
	RetrainingSelfie  RetrainingKind = "selfie"
)

// RetrainingRecord is a manually corrected record kept for future training.
// It is keyed by the id of the live record it was captured from.
type RetrainingRecord struct {
	SourceID    string
	UserID      string
	Kind        RetrainingKind
	Title       string
	Body        string
	ImageName   string
	Label       mood.Label
	Probability string
	CapturedAt  time.Time
}
