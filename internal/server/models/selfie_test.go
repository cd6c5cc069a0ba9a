package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/stretchr/testify/assert"
)

func TestSelfieImageName(t *testing.T) {
	at := time.Date(2024, 3, 9, 17, 4, 5, 123000000, time.FixedZone("X", 3600))

	assert.Equal(t, "2024-03-09T16:04:05.123Z Stressed.jpg", SelfieImageName(at, mood.LabelStressed))
	assert.Equal(t, "2024-03-09T16:04:05.123Z Not Stressed.jpg", SelfieImageName(at, mood.LabelNotStressed))
	assert.Equal(t, "2024-03-09T16:04:05.123Z Unlabeled.jpg", SelfieImageName(at, mood.LabelUnknown))
}
