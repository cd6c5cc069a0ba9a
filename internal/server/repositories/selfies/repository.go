// Package selfies persists selfie metadata. Image bytes live in the image
// store, addressed by Selfie.ImageName.
package selfies

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]models.Selfie, error)
	Get(ctx context.Context, userID, id string) (*models.Selfie, error)
	Create(ctx context.Context, s *models.Selfie) error
	Update(ctx context.Context, s *models.Selfie) error
	Delete(ctx context.Context, userID, id string) error
}
