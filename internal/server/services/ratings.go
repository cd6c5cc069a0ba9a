package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
	"github.com/google/uuid"
)

// ErrRatedToday is returned when the user already rated the current day.
var ErrRatedToday = fmt.Errorf("%w: A rating has already been submitted today", common.ErrAlreadyExists)

type RatingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	loc         *time.Location
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

// NewRatingService builds the service; loc decides which calendar date a
// rating belongs to.
func NewRatingService(db *sql.DB, m repomanager.RepositoryManager, loc *time.Location, logger logging.Logger) *RatingService {
	if loc == nil {
		loc = time.UTC
	}
	return &RatingService{
		db:          db,
		repomanager: m,
		loc:         loc,
		logger:      logger.With("module", "rating_service"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *RatingService) List(ctx context.Context, userID string) ([]models.Rating, error) {
	return s.repomanager.Ratings(s.db).List(ctx, userID)
}

func (s *RatingService) Get(ctx context.Context, userID, id string) (*models.Rating, error) {
	return s.repomanager.Ratings(s.db).Get(ctx, userID, id)
}

// Today returns the user's rating for the current date, or
// common.ErrNotFound.
func (s *RatingService) Today(ctx context.Context, userID string) (*models.Rating, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		if timex.SameDate(list[i].CreatedAt, now, s.loc) {
			return &list[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *RatingService) Create(ctx context.Context, r *models.Rating) (*models.Rating, error) {
	if !r.Value.Valid() {
		return nil, fmt.Errorf("%w: unknown mood value %q", common.ErrValidation, r.Value)
	}
	r.Message = strings.TrimSpace(r.Message)

	now := s.now().UTC()
	r.ID = s.newID()
	// A rating belongs to the day it is given; a client clock on another
	// date is ignored.
	if r.CreatedAt.IsZero() || !timex.SameDate(r.CreatedAt, now, s.loc) {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	r.RatedOn = timex.DateIn(r.CreatedAt, s.loc)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Ratings(tx)

		exists, err := repo.ExistsOn(ctx, r.UserID, r.RatedOn)
		if err != nil {
			return err
		}
		if exists {
			return ErrRatedToday
		}
		return repo.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "rating created", "id", r.ID, "value", r.Value)
	return r, nil
}

// Update changes the value and message of an existing rating. The rated
// date never moves.
func (s *RatingService) Update(ctx context.Context, upd *models.Rating) (*models.Rating, error) {
	if !upd.Value.Valid() {
		return nil, fmt.Errorf("%w: unknown mood value %q", common.ErrValidation, upd.Value)
	}

	var out *models.Rating
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Ratings(tx)

		cur, err := repo.Get(ctx, upd.UserID, upd.ID)
		if err != nil {
			return err
		}
		cur.Value = upd.Value
		cur.Message = strings.TrimSpace(upd.Message)
		cur.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RatingService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Ratings(s.db).Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "rating deleted", "id", id)
	return nil
}
