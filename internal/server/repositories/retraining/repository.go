// Package retraining persists the retraining corpus. Nothing on the normal
// CRUD paths reads from it.
package retraining

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

type Repository interface {
	// Upsert inserts rec or overwrites the record with the same SourceID.
	Upsert(ctx context.Context, rec *models.RetrainingRecord) error
	Get(ctx context.Context, sourceID string) (*models.RetrainingRecord, error)
	// Delete removes the record for sourceID. A missing record is not an
	// error.
	Delete(ctx context.Context, sourceID string) error
	// ListByKind returns the corpus for export, oldest capture first.
	ListByKind(ctx context.Context, kind models.RetrainingKind) ([]models.RetrainingRecord, error)
}
