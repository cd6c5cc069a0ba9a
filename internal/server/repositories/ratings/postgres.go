package ratings

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/dberr"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
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

func scanRating(s scanner) (*models.Rating, error) {
	r := &models.Rating{}
	var value string
	if err := s.Scan(&r.ID, &r.UserID, &value, &r.Message, &r.RatedOn, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Value = mood.Value(value)
	return r, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Rating, error) {
	query :=
		`SELECT id, user_id, value, message, rated_on, created_at, updated_at
		 FROM ratings
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dberr.Wrap("select ratings", err)
	}
	defer rows.Close()

	result := make([]models.Rating, 0)
	for rows.Next() {
		v, err := scanRating(rows)
		if err != nil {
			return nil, dberr.Wrap("scan rating", err)
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap("iterate ratings", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Rating, error) {
	query :=
		`SELECT id, user_id, value, message, rated_on, created_at, updated_at
		 FROM ratings
		 WHERE user_id = $1 AND id = $2
		 `

	v, err := scanRating(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		return nil, dberr.Wrap("select rating", err)
	}
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Rating) error {
	query :=
		`INSERT INTO ratings (id, user_id, value, message, rated_on, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query, v.ID, v.UserID, string(v.Value), v.Message,
		v.RatedOn.Format(timex.DateLayout), v.CreatedAt, v.UpdatedAt)
	return dberr.Wrap("insert rating", err)
}

func (r *PostgresRepository) Update(ctx context.Context, v *models.Rating) error {
	query :=
		`UPDATE ratings SET value = $3, message = $4, updated_at = $5
		 WHERE user_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, v.UserID, v.ID, string(v.Value), v.Message, v.UpdatedAt)
	if err != nil {
		return dberr.Wrap("update rating", err)
	}
	return dberr.ExpectOne("update rating", res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return dberr.Wrap("delete rating", err)
	}
	return dberr.ExpectOne("delete rating", res)
}

func (r *PostgresRepository) ExistsOn(ctx context.Context, userID string, day time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ratings WHERE user_id = $1 AND rated_on = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, day.Format(timex.DateLayout)).Scan(&exists); err != nil {
		return false, dberr.Wrap("check rating day", err)
	}
	return exists, nil
}
