package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/server/retraining"
	"github.com/dmitrijs2005/moodkeeper/internal/server/storage"
	"github.com/google/uuid"
)

type SelfieService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ImageStore
	capture     *retraining.Capture
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func NewSelfieService(db *sql.DB, m repomanager.RepositoryManager, store storage.ImageStore, capture *retraining.Capture, logger logging.Logger) *SelfieService {
	return &SelfieService{
		db:          db,
		repomanager: m,
		store:       store,
		capture:     capture,
		logger:      logger.With("module", "selfie_service"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *SelfieService) List(ctx context.Context, userID string) ([]models.Selfie, error) {
	return s.repomanager.Selfies(s.db).List(ctx, userID)
}

func (s *SelfieService) Get(ctx context.Context, userID, id string) (*models.Selfie, error) {
	return s.repomanager.Selfies(s.db).Get(ctx, userID, id)
}

// Create stores the image under a name derived from the creation time and
// label, then persists the record. The image is removed again if the
// record cannot be saved.
func (s *SelfieService) Create(ctx context.Context, sf *models.Selfie, image io.Reader) (*models.Selfie, error) {
	if image == nil {
		return nil, fmt.Errorf("%w: a captured image is required", common.ErrValidation)
	}
	if err := validatePrediction(&sf.Label, &sf.Probability, sf.ManualCorrection); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sf.ID = s.newID()
	if sf.CreatedAt.IsZero() {
		sf.CreatedAt = now
	}
	sf.UpdatedAt = now
	sf.ImageName = models.SelfieImageName(sf.CreatedAt, sf.Label)

	key := storage.Key(sf.UserID, sf.ImageName)
	if err := s.store.Put(ctx, storage.AreaLive, key, image); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Selfies(tx).Create(ctx, sf); err != nil {
			return err
		}
		return s.capture.Selfie(ctx, tx, nil, sf)
	})
	if err != nil {
		if rmErr := s.store.Delete(ctx, storage.AreaLive, key); rmErr != nil {
			s.logger.Error(ctx, "orphan image not removed", "key", key, "error", rmErr)
		}
		return nil, err
	}
	s.syncRetrainingImages(ctx, nil, sf)

	s.logger.Info(ctx, "selfie created", "id", sf.ID, "image", sf.ImageName)
	return sf, nil
}

// syncRetrainingImages must run after commit. A failure is only logged;
// the next corrected update recopies a missing image.
func (s *SelfieService) syncRetrainingImages(ctx context.Context, prev, cur *models.Selfie) {
	if err := s.capture.SelfieImages(ctx, prev, cur); err != nil {
		s.logger.Error(ctx, "retraining image not synced", "id", cur.ID, "error", err)
	}
}

// Update changes the label, probability and correction flag. When the
// label change alters the image name, the live image is renamed first and
// put back if the transaction fails. The retraining copy follows only
// after commit.
func (s *SelfieService) Update(ctx context.Context, upd *models.Selfie) (*models.Selfie, error) {
	if err := validatePrediction(&upd.Label, &upd.Probability, upd.ManualCorrection); err != nil {
		return nil, err
	}

	prev, err := s.Get(ctx, upd.UserID, upd.ID)
	if err != nil {
		return nil, err
	}

	cur := *prev
	cur.Label = upd.Label
	cur.Probability = upd.Probability
	cur.ManualCorrection = upd.ManualCorrection
	cur.UpdatedAt = s.now().UTC()
	cur.ImageName = models.SelfieImageName(prev.CreatedAt, cur.Label)

	renamed := cur.ImageName != prev.ImageName
	if renamed {
		if err := s.store.Rename(ctx, storage.AreaLive, storage.Key(prev.UserID, prev.ImageName), storage.Key(cur.UserID, cur.ImageName)); err != nil {
			return nil, err
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Selfies(tx).Update(ctx, &cur); err != nil {
			return err
		}
		return s.capture.Selfie(ctx, tx, prev, &cur)
	})
	if err != nil {
		if renamed {
			if rbErr := s.store.Rename(ctx, storage.AreaLive, storage.Key(cur.UserID, cur.ImageName), storage.Key(prev.UserID, prev.ImageName)); rbErr != nil {
				s.logger.Error(ctx, "image rename not rolled back", "id", prev.ID, "error", rbErr)
			}
		}
		return nil, err
	}
	s.syncRetrainingImages(ctx, prev, &cur)

	return &cur, nil
}

// Delete removes the record, its live image and anything captured for
// retraining. Deleting a selfie that no longer exists is a no-op.
func (s *SelfieService) Delete(ctx context.Context, userID, id string) error {
	sf, err := s.Get(ctx, userID, id)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Debug(ctx, "selfie already deleted", "id", id)
		return nil
	}
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Selfies(tx).Delete(ctx, userID, id); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.capture.Forget(ctx, tx, models.RetrainingSelfie, userID, id, sf.ImageName)
	})
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, storage.AreaLive, storage.Key(userID, sf.ImageName)); err != nil {
		return err
	}

	s.logger.Info(ctx, "selfie deleted", "id", id)
	return nil
}

// Image opens the live image of a selfie owned by userID.
func (s *SelfieService) Image(ctx context.Context, userID, id string) (io.ReadCloser, *models.Selfie, error) {
	sf, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, storage.AreaLive, storage.Key(userID, sf.ImageName))
	if err != nil {
		return nil, nil, err
	}
	return rc, sf, nil
}

// ImageURL returns a direct download URL when the store can presign one.
// ok is false for stores without that ability.
func (s *SelfieService) ImageURL(ctx context.Context, userID, id string) (url string, ok bool, err error) {
	p, isPresigner := s.store.(storage.Presigner)
	if !isPresigner {
		return "", false, nil
	}
	sf, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", false, err
	}
	url, err = p.PresignGet(ctx, storage.AreaLive, storage.Key(userID, sf.ImageName))
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}
