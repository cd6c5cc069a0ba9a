package users

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetCapability moves the flag from one value to another and reports
	// whether a row changed. A row whose flag no longer equals from is left
	// untouched.
	SetCapability(ctx context.Context, id string, from, to mood.Capability) (bool, error)
}
