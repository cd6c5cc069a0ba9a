// Package journals persists journal entries.
package journals

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

type Repository interface {
	// List returns the user's journals ordered by creation time, oldest first.
	List(ctx context.Context, userID string) ([]models.Journal, error)
	Get(ctx context.Context, userID, id string) (*models.Journal, error)
	Create(ctx context.Context, j *models.Journal) error
	Update(ctx context.Context, j *models.Journal) error
	Delete(ctx context.Context, userID, id string) error
	// TitleTaken reports whether another journal of the user has the same
	// title after trimming, compared case-insensitively. excludeID may be
	// empty.
	TitleTaken(ctx context.Context, userID, title, excludeID string) (bool, error)
}
