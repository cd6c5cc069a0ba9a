package models

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// Rating is a daily mood rating. RatedOn is the calendar date of CreatedAt
// in the reference time zone; (UserID, RatedOn) is unique.
type Rating struct {
	ID        string
	UserID    string
	Value     mood.Value
	Message   string
	RatedOn   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
