package services

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/dbx"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/journals"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/ratings"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/retraining"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/selfies"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/users"
)

// -------- test fakes --------

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	// setCapabilityMiss makes the next SetCapability lose the race.
	setCapabilityMiss mood.Capability
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.UserName == u.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	u.ID = "user-" + u.UserName
	cp := *u
	f.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.UserName == name {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (f *fakeUsersRepo) SetCapability(_ context.Context, id string, from, to mood.Capability) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.users[id]
	if !ok {
		return false, nil
	}
	if f.setCapabilityMiss != "" {
		x.Capability = f.setCapabilityMiss
		f.setCapabilityMiss = ""
	}
	if x.Capability != from {
		return false, nil
	}
	x.Capability = to
	return true, nil
}

type fakeJournalsRepo struct {
	mu       sync.Mutex
	journals map[string]models.Journal
}

func (f *fakeJournalsRepo) List(_ context.Context, userID string) ([]models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Journal{}
	for _, j := range f.journals {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (f *fakeJournalsRepo) Get(_ context.Context, userID, id string) (*models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.journals[id]
	if !ok || j.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &j, nil
}

func (f *fakeJournalsRepo) Create(_ context.Context, j *models.Journal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journals[j.ID] = *j
	return nil
}

func (f *fakeJournalsRepo) Update(_ context.Context, j *models.Journal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.journals[j.ID]; !ok {
		return common.ErrNotFound
	}
	f.journals[j.ID] = *j
	return nil
}

func (f *fakeJournalsRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.journals[id]
	if !ok || j.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.journals, id)
	return nil
}

func (f *fakeJournalsRepo) TitleTaken(_ context.Context, userID, title, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := strings.ToLower(strings.TrimSpace(title))
	for _, j := range f.journals {
		if j.UserID == userID && j.ID != excludeID && strings.ToLower(strings.TrimSpace(j.Title)) == want {
			return true, nil
		}
	}
	return false, nil
}

type fakeSelfiesRepo struct {
	mu      sync.Mutex
	selfies map[string]models.Selfie
	// createErr fails the next Create.
	createErr error
}

func (f *fakeSelfiesRepo) List(_ context.Context, userID string) ([]models.Selfie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Selfie{}
	for _, s := range f.selfies {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (f *fakeSelfiesRepo) Get(_ context.Context, userID, id string) (*models.Selfie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.selfies[id]
	if !ok || s.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSelfiesRepo) Create(_ context.Context, s *models.Selfie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	f.selfies[s.ID] = *s
	return nil
}

func (f *fakeSelfiesRepo) Update(_ context.Context, s *models.Selfie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selfies[s.ID] = *s
	return nil
}

func (f *fakeSelfiesRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.selfies[id]
	if !ok || s.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.selfies, id)
	return nil
}

type fakeRatingsRepo struct {
	mu      sync.Mutex
	ratings map[string]models.Rating
}

func (f *fakeRatingsRepo) List(_ context.Context, userID string) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Rating{}
	for _, r := range f.ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (f *fakeRatingsRepo) Get(_ context.Context, userID, id string) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRatingsRepo) Create(_ context.Context, r *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.ratings {
		if x.UserID == r.UserID && x.RatedOn.Equal(r.RatedOn) {
			return common.ErrAlreadyExists
		}
	}
	f.ratings[r.ID] = *r
	return nil
}

func (f *fakeRatingsRepo) Update(_ context.Context, r *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[r.ID] = *r
	return nil
}

func (f *fakeRatingsRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[id]
	if !ok || r.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.ratings, id)
	return nil
}

func (f *fakeRatingsRepo) ExistsOn(_ context.Context, userID string, day time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.ratings {
		if x.UserID == userID && x.RatedOn.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

type fakeRetrainingRepo struct {
	mu      sync.Mutex
	records map[string]models.RetrainingRecord
}

func (f *fakeRetrainingRepo) Upsert(_ context.Context, rec *models.RetrainingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.SourceID] = *rec
	return nil
}

func (f *fakeRetrainingRepo) Get(_ context.Context, id string) (*models.RetrainingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRetrainingRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeRetrainingRepo) ListByKind(_ context.Context, kind models.RetrainingKind) ([]models.RetrainingRecord, error) {
	return nil, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u  *fakeUsersRepo
	j  *fakeJournalsRepo
	s  *fakeSelfiesRepo
	r  *fakeRatingsRepo
	rt *fakeRetrainingRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsersRepo(),
		j:  &fakeJournalsRepo{journals: map[string]models.Journal{}},
		s:  &fakeSelfiesRepo{selfies: map[string]models.Selfie{}},
		r:  &fakeRatingsRepo{ratings: map[string]models.Rating{}},
		rt: &fakeRetrainingRepo{records: map[string]models.RetrainingRecord{}},
	}
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Journals(dbx.DBTX) journals.Repository     { return m.j }
func (m *fakeRepoManager) Selfies(dbx.DBTX) selfies.Repository       { return m.s }
func (m *fakeRepoManager) Ratings(dbx.DBTX) ratings.Repository       { return m.r }
func (m *fakeRepoManager) Retraining(dbx.DBTX) retraining.Repository { return m.rt }

// -------- helpers --------

// newSQLMockDB returns a mock whose transactions always commit or roll
// back; the fakes do the actual bookkeeping.
func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}
