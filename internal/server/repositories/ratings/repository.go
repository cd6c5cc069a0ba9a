// Package ratings persists daily mood ratings.
package ratings

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]models.Rating, error)
	Get(ctx context.Context, userID, id string) (*models.Rating, error)
	// Create fails with common.ErrAlreadyExists when the user already has a
	// rating on r.RatedOn.
	Create(ctx context.Context, r *models.Rating) error
	Update(ctx context.Context, r *models.Rating) error
	Delete(ctx context.Context, userID, id string) error
	ExistsOn(ctx context.Context, userID string, day time.Time) (bool, error)
}
