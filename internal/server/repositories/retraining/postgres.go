package retraining

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/dberr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.RetrainingRecord) error {
	query :=
		`INSERT INTO retraining_records (source_id, user_id, kind, title, body, image_name, label, probability, captured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (source_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   body = EXCLUDED.body,
		   image_name = EXCLUDED.image_name,
		   label = EXCLUDED.label,
		   probability = EXCLUDED.probability,
		   captured_at = EXCLUDED.captured_at
		 `

	_, err := r.db.ExecContext(ctx, query, rec.SourceID, rec.UserID, string(rec.Kind), rec.Title, rec.Body,
		rec.ImageName, string(rec.Label), rec.Probability, rec.CapturedAt)
	return dberr.Wrap("upsert retraining record", err)
}

func (r *PostgresRepository) Get(ctx context.Context, sourceID string) (*models.RetrainingRecord, error) {
	query :=
		`SELECT source_id, user_id, kind, title, body, image_name, label, probability, captured_at
		 FROM retraining_records
		 WHERE source_id = $1
		 `

	rec := &models.RetrainingRecord{}
	var kind, label string
	err := r.db.QueryRowContext(ctx, query, sourceID).Scan(&rec.SourceID, &rec.UserID, &kind, &rec.Title,
		&rec.Body, &rec.ImageName, &label, &rec.Probability, &rec.CapturedAt)
	if err != nil {
		return nil, dberr.Wrap("select retraining record", err)
	}
	rec.Kind = models.RetrainingKind(kind)
	rec.Label = mood.Label(label)
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM retraining_records WHERE source_id = $1`, sourceID)
	return dberr.Wrap("delete retraining record", err)
}

func (r *PostgresRepository) ListByKind(ctx context.Context, kind models.RetrainingKind) ([]models.RetrainingRecord, error) {
	query :=
		`SELECT source_id, user_id, kind, title, body, image_name, label, probability, captured_at
		 FROM retraining_records
		 WHERE kind = $1
		 ORDER BY captured_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, dberr.Wrap("select retraining records", err)
	}
	defer rows.Close()

	result := make([]models.RetrainingRecord, 0)
	for rows.Next() {
		var rec models.RetrainingRecord
		var k, label string
		if err := rows.Scan(&rec.SourceID, &rec.UserID, &k, &rec.Title, &rec.Body, &rec.ImageName,
			&label, &rec.Probability, &rec.CapturedAt); err != nil {
			return nil, dberr.Wrap("scan retraining record", err)
		}
		rec.Kind = models.RetrainingKind(k)
		rec.Label = mood.Label(label)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap("iterate retraining records", err)
	}
	return result, nil
}
