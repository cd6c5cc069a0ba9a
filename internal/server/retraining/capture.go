// Package retraining mirrors manually corrected journals and selfies into
// the retraining corpus. The corpus is keyed by the live record id and is
// never read by the CRUD paths; a live record's deletion removes its
// corpus record and image copy.
package retraining

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/retraining"
	"github.com/dmitrijs2005/moodkeeper/internal/server/storage"
)

// Recorder counts capture actions. *metrics.Metrics implements it.
type Recorder interface {
	IncRetraining(kind, action string)
}

const (
	actionUpsert = "upsert"
	actionDelete = "delete"
	actionRename = "rename"
)

type Capture struct {
	repo     func(db dbx.DBTX) retraining.Repository
	store    storage.ImageStore
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time
}

func NewCapture(repo func(db dbx.DBTX) retraining.Repository, store storage.ImageStore, recorder Recorder, logger logging.Logger) *Capture {
	return &Capture{
		repo:     repo,
		store:    store,
		recorder: recorder,
		logger:   logger.With("module", "retraining"),
		now:      time.Now,
	}
}

func (c *Capture) count(kind models.RetrainingKind, action string) {
	if c.recorder != nil {
		c.recorder.IncRetraining(string(kind), action)
	}
}

// Journal upserts the corpus record of a corrected journal. An uncorrected
// journal leaves the corpus alone; only Forget removes a journal record.
func (c *Capture) Journal(ctx context.Context, db dbx.DBTX, j *models.Journal) error {
	if !j.ManualCorrection {
		return nil
	}
	repo := c.repo(db)

	rec := &models.RetrainingRecord{
		SourceID:    j.ID,
		UserID:      j.UserID,
		Kind:        models.RetrainingJournal,
		Title:       j.Title,
		Body:        j.Body,
		Label:       j.Label,
		Probability: j.Probability,
		CapturedAt:  c.now().UTC(),
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("retraining journal upsert: %w", err)
	}

	c.count(models.RetrainingJournal, actionUpsert)
	c.logger.Info(ctx, "journal captured", "id", j.ID, "label", j.Label)
	return nil
}

// Selfie syncs the corpus record after a selfie was created or updated.
// prev is the stored state before the change and is nil on create. Image
// files are left alone; SelfieImages moves them once the change is
// committed.
func (c *Capture) Selfie(ctx context.Context, db dbx.DBTX, prev, cur *models.Selfie) error {
	repo := c.repo(db)

	if !cur.ManualCorrection {
		if prev == nil || !prev.ManualCorrection {
			return nil
		}
		if err := repo.Delete(ctx, cur.ID); err != nil {
			return fmt.Errorf("retraining selfie delete: %w", err)
		}
		c.count(models.RetrainingSelfie, actionDelete)
		c.logger.Info(ctx, "selfie released from corpus", "id", cur.ID)
		return nil
	}

	rec := &models.RetrainingRecord{
		SourceID:    cur.ID,
		UserID:      cur.UserID,
		Kind:        models.RetrainingSelfie,
		ImageName:   cur.ImageName,
		Label:       cur.Label,
		Probability: cur.Probability,
		CapturedAt:  c.now().UTC(),
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("retraining selfie upsert: %w", err)
	}

	c.count(models.RetrainingSelfie, actionUpsert)
	c.logger.Info(ctx, "selfie captured", "id", cur.ID, "image", cur.ImageName)
	return nil
}

// SelfieImages brings the retraining image copy in line with a committed
// change from prev to cur. The live image must already be stored under
// cur.ImageName.
func (c *Capture) SelfieImages(ctx context.Context, prev, cur *models.Selfie) error {
	prevManual := prev != nil && prev.ManualCorrection
	curKey := storage.Key(cur.UserID, cur.ImageName)

	if !cur.ManualCorrection {
		if !prevManual {
			return nil
		}
		if err := c.store.Delete(ctx, storage.AreaRetraining, storage.Key(prev.UserID, prev.ImageName)); err != nil {
			return fmt.Errorf("retraining image delete: %w", err)
		}
		if err := c.store.Delete(ctx, storage.AreaRetraining, curKey); err != nil {
			return fmt.Errorf("retraining image delete: %w", err)
		}
		return nil
	}

	if prevManual && prev.ImageName != cur.ImageName {
		if err := c.store.Rename(ctx, storage.AreaRetraining, storage.Key(prev.UserID, prev.ImageName), curKey); err != nil {
			return fmt.Errorf("retraining image rename: %w", err)
		}
		c.count(models.RetrainingSelfie, actionRename)
	}

	ok, err := c.store.Exists(ctx, storage.AreaRetraining, curKey)
	if err != nil {
		return fmt.Errorf("retraining image lookup: %w", err)
	}
	if !ok {
		if err := c.store.Copy(ctx, storage.AreaLive, curKey, storage.AreaRetraining, curKey); err != nil {
			return fmt.Errorf("retraining image copy: %w", err)
		}
	}
	return nil
}

// Forget removes everything derived from a deleted live record. For a
// selfie imageName names the retraining copy; it is ignored for journals.
// Calling Forget for a record that was never captured is a no-op.
func (c *Capture) Forget(ctx context.Context, db dbx.DBTX, kind models.RetrainingKind, userID, sourceID, imageName string) error {
	repo := c.repo(db)

	if kind == models.RetrainingSelfie {
		rec, err := repo.Get(ctx, sourceID)
		switch {
		case err == nil && rec.ImageName != "":
			imageName = rec.ImageName
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return fmt.Errorf("retraining lookup: %w", err)
		}
		if imageName != "" {
			if err := c.store.Delete(ctx, storage.AreaRetraining, storage.Key(userID, imageName)); err != nil {
				return fmt.Errorf("retraining image delete: %w", err)
			}
		}
	}

	if err := repo.Delete(ctx, sourceID); err != nil {
		return fmt.Errorf("retraining delete: %w", err)
	}
	c.count(kind, actionDelete)
	return nil
}
