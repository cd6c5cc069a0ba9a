package selfies

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

type scanner interface {
	Scan(dest ...any) error
}

func scanSelfie(s scanner) (*models.Selfie, error) {
	v := &models.Selfie{}
	var label string
	if err := s.Scan(&v.ID, &v.UserID, &v.ImageName, &label, &v.Probability,
		&v.ManualCorrection, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Label = mood.Label(label)
	return v, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Selfie, error) {
	query :=
		`SELECT id, user_id, image_name, label, probability, manual_correction, created_at, updated_at
		 FROM selfies
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dberr.Wrap("select selfies", err)
	}
	defer rows.Close()

	result := make([]models.Selfie, 0)
	for rows.Next() {
		s, err := scanSelfie(rows)
		if err != nil {
			return nil, dberr.Wrap("scan selfie", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap("iterate selfies", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Selfie, error) {
	query :=
		`SELECT id, user_id, image_name, label, probability, manual_correction, created_at, updated_at
		 FROM selfies
		 WHERE user_id = $1 AND id = $2
		 `

	s, err := scanSelfie(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		return nil, dberr.Wrap("select selfie", err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Selfie) error {
	query :=
		`INSERT INTO selfies (id, user_id, image_name, label, probability, manual_correction, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.ImageName, string(s.Label),
		s.Probability, s.ManualCorrection, s.CreatedAt, s.UpdatedAt)
	return dberr.Wrap("insert selfie", err)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Selfie) error {
	query :=
		`UPDATE selfies
		 SET image_name = $3, label = $4, probability = $5, manual_correction = $6, updated_at = $7
		 WHERE user_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, s.UserID, s.ID, s.ImageName, string(s.Label),
		s.Probability, s.ManualCorrection, s.UpdatedAt)
	if err != nil {
		return dberr.Wrap("update selfie", err)
	}
	return dberr.ExpectOne("update selfie", res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM selfies WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return dberr.Wrap("delete selfie", err)
	}
	return dberr.ExpectOne("delete selfie", res)
}
