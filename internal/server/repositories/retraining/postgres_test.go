package retraining

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestUpsert_OverwritesOnConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+retraining_records.*ON\s+CONFLICT\s+\(source_id\)\s+DO\s+UPDATE`).
		WithArgs("j-1", "u-1", "journal", "T", "B", "", "Not Stressed", "100%", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.RetrainingRecord{
		SourceID: "j-1", UserID: "u-1", Kind: models.RetrainingJournal, Title: "T", Body: "B",
		Label: mood.LabelNotStressed, Probability: "100%", CapturedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`FROM\s+retraining_records\s+WHERE\s+source_id\s*=\s*\$1`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "user_id", "kind", "title", "body", "image_name", "label", "probability", "captured_at"}).
			AddRow("s-1", "u-1", "selfie", "", "", "x Stressed.jpg", "Stressed", "100%", at))

	rec, err := repo.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.RetrainingSelfie, rec.Kind)
	assert.Equal(t, mood.LabelStressed, rec.Label)
	assert.Equal(t, "x Stressed.jpg", rec.ImageName)

	mock.ExpectQuery(`FROM\s+retraining_records`).WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "s-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+retraining_records`).WithArgs("j-1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Delete(context.Background(), "j-1"))
}

func TestListByKind(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`(?s)WHERE\s+kind\s*=\s*\$1\s+ORDER\s+BY\s+captured_at`).
		WithArgs("journal").
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "user_id", "kind", "title", "body", "image_name", "label", "probability", "captured_at"}).
			AddRow("j-1", "u-1", "journal", "T", "B", "", "Stressed", "100%", at).
			AddRow("j-2", "u-2", "journal", "T2", "B2", "", "Not Stressed", "100%", at))

	got, err := repo.ListByKind(context.Background(), models.RetrainingJournal)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "j-2", got[1].SourceID)
}
