// Package models holds the server-side persistence types.
package models

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Capability   mood.Capability
	CreatedAt    time.Time
}
