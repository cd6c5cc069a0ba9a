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
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/server/retraining"
	"github.com/google/uuid"
)

type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	capture     *retraining.Capture
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, capture *retraining.Capture, logger logging.Logger) *JournalService {
	return &JournalService{
		db:          db,
		repomanager: m,
		capture:     capture,
		logger:      logger.With("module", "journal_service"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *JournalService) List(ctx context.Context, userID string) ([]models.Journal, error) {
	return s.repomanager.Journals(s.db).List(ctx, userID)
}

func (s *JournalService) Get(ctx context.Context, userID, id string) (*models.Journal, error) {
	return s.repomanager.Journals(s.db).Get(ctx, userID, id)
}

// validateJournal normalizes the editable fields of j in place.
func validateJournal(j *models.Journal) error {
	j.Title = strings.TrimSpace(j.Title)
	if j.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if strings.TrimSpace(j.Body) == "" {
		return fmt.Errorf("%w: body is required", common.ErrValidation)
	}
	return validatePrediction(&j.Label, &j.Probability, j.ManualCorrection)
}

func validatePrediction(label *mood.Label, probability *string, manual bool) error {
	if !label.Valid() {
		return fmt.Errorf("%w: unknown label %q", common.ErrValidation, *label)
	}
	if *label == mood.LabelUnknown {
		if manual {
			return fmt.Errorf("%w: a manual correction needs a label", common.ErrValidation)
		}
		*probability = ""
	}
	if manual {
		*probability = mood.ManualProbability
	}
	return nil
}

func (s *JournalService) Create(ctx context.Context, j *models.Journal) (*models.Journal, error) {
	if err := validateJournal(j); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	j.ID = s.newID()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)

		taken, err := repo.TitleTaken(ctx, j.UserID, j.Title, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: a journal titled %q already exists", common.ErrAlreadyExists, j.Title)
		}

		if err := repo.Create(ctx, j); err != nil {
			return err
		}

		if j.ManualCorrection {
			return s.capture.Journal(ctx, tx, j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "journal created", "id", j.ID, "label", j.Label)
	return j, nil
}

// Update replaces the editable fields of the journal identified by
// upd.UserID and upd.ID. CreatedAt is kept.
func (s *JournalService) Update(ctx context.Context, upd *models.Journal) (*models.Journal, error) {
	if err := validateJournal(upd); err != nil {
		return nil, err
	}

	var out *models.Journal
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)

		prev, err := repo.Get(ctx, upd.UserID, upd.ID)
		if err != nil {
			return err
		}

		taken, err := repo.TitleTaken(ctx, upd.UserID, upd.Title, upd.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: a journal titled %q already exists", common.ErrAlreadyExists, upd.Title)
		}

		cur := *prev
		cur.Title = upd.Title
		cur.Body = upd.Body
		cur.Label = upd.Label
		cur.Probability = upd.Probability
		cur.ManualCorrection = upd.ManualCorrection
		cur.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, &cur); err != nil {
			return err
		}

		if cur.ManualCorrection {
			if err := s.capture.Journal(ctx, tx, &cur); err != nil {
				return err
			}
		}
		out = &cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Journals(tx).Delete(ctx, userID, id); err != nil {
			return err
		}
		return s.capture.Forget(ctx, tx, models.RetrainingJournal, userID, id, "")
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "journal deleted", "id", id)
	return nil
}
