package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/journals"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/ratings"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/retraining"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/selfies"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same constructors inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Journals(db dbx.DBTX) journals.Repository
	Selfies(db dbx.DBTX) selfies.Repository
	Ratings(db dbx.DBTX) ratings.Repository
	Retraining(db dbx.DBTX) retraining.Repository
}
