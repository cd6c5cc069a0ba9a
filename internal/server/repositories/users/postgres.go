package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, capability)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if user.Capability == "" {
		user.Capability = mood.CapabilityUntested
	}

	err := r.db.QueryRowContext(ctx, query, user.UserName, user.PasswordHash, string(user.Capability)).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap("insert user", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, capability, created_at FROM users
		 WHERE username = $1
		 `
	return r.scanOne(ctx, query, userName)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, capability, created_at FROM users
		 WHERE id = $1
		 `
	return r.scanOne(ctx, query, id)
}

func (r *PostgresRepository) SetCapability(ctx context.Context, id string, from, to mood.Capability) (bool, error) {
	query :=
		`UPDATE users SET capability = $2
		 WHERE id = $1 AND capability = $3
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(to), string(from))
	if err != nil {
		return false, dberr.Wrap("update capability", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dberr.Wrap("update capability", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var capability string

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &capability, &user.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap("select user", err)
	}
	user.Capability = mood.Capability(capability)

	return user, nil
}
