package models

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

type Journal struct {
	ID               string
	UserID           string
	Title            string
	Body             string
	Label            mood.Label
	Probability      string
	ManualCorrection bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
