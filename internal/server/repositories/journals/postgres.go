package journals

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

func scanJournal(s scanner) (*models.Journal, error) {
	j := &models.Journal{}
	var label string
	if err := s.Scan(&j.ID, &j.UserID, &j.Title, &j.Body, &label, &j.Probability,
		&j.ManualCorrection, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Label = mood.Label(label)
	return j, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Journal, error) {
	query :=
		`SELECT id, user_id, title, body, label, probability, manual_correction, created_at, updated_at
		 FROM journals
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dberr.Wrap("select journals", err)
	}
	defer rows.Close()

	result := make([]models.Journal, 0)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, dberr.Wrap("scan journal", err)
		}
		result = append(result, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap("iterate journals", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Journal, error) {
	query :=
		`SELECT id, user_id, title, body, label, probability, manual_correction, created_at, updated_at
		 FROM journals
		 WHERE user_id = $1 AND id = $2
		 `

	j, err := scanJournal(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		return nil, dberr.Wrap("select journal", err)
	}
	return j, nil
}

func (r *PostgresRepository) Create(ctx context.Context, j *models.Journal) error {
	query :=
		`INSERT INTO journals (id, user_id, title, body, label, probability, manual_correction, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query, j.ID, j.UserID, j.Title, j.Body, string(j.Label),
		j.Probability, j.ManualCorrection, j.CreatedAt, j.UpdatedAt)
	return dberr.Wrap("insert journal", err)
}

func (r *PostgresRepository) Update(ctx context.Context, j *models.Journal) error {
	query :=
		`UPDATE journals
		 SET title = $3, body = $4, label = $5, probability = $6, manual_correction = $7, updated_at = $8
		 WHERE user_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, j.UserID, j.ID, j.Title, j.Body, string(j.Label),
		j.Probability, j.ManualCorrection, j.UpdatedAt)
	if err != nil {
		return dberr.Wrap("update journal", err)
	}
	return dberr.ExpectOne("update journal", res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM journals WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return dberr.Wrap("delete journal", err)
	}
	return dberr.ExpectOne("delete journal", res)
}

func (r *PostgresRepository) TitleTaken(ctx context.Context, userID, title, excludeID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM journals
		   WHERE user_id = $1 AND lower(btrim(title)) = lower(btrim($2)) AND ($3 = '' OR id::text <> $3)
		 )
		 `

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, userID, title, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap("check journal title", err)
	}
	return taken, nil
}
