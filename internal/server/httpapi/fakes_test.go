package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/auth"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type fakeUsers struct {
	capability mood.Capability
}

func (f *fakeUsers) Register(_ context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, common.ErrValidation
	}
	if username == "taken" {
		return nil, common.ErrAlreadyExists
	}
	return &models.User{ID: "u-" + username, UserName: username, Capability: mood.CapabilityUntested}, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (string, string, error) {
	if password != "pw" {
		return "", "", common.ErrUnauthorized
	}
	tok, err := auth.GenerateToken("u-"+username, secret, time.Hour)
	return tok, "u-" + username, err
}

func (f *fakeUsers) Get(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, UserName: "alice", Capability: f.capability}, nil
}

func (f *fakeUsers) Capability(context.Context, string) (mood.Capability, error) {
	return f.capability, nil
}

func (f *fakeUsers) ResolveCapability(_ context.Context, _ string, next mood.Capability) (mood.Capability, error) {
	c, changed, err := f.capability.Resolve(next)
	if err != nil {
		return c, err
	}
	if changed {
		f.capability = c
	}
	return c, nil
}

type fakeJournals struct {
	mu   sync.Mutex
	list []models.Journal
}

func (f *fakeJournals) List(_ context.Context, userID string) ([]models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Journal{}
	for _, j := range f.list {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJournals) Get(_ context.Context, userID, id string) (*models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.list {
		if j.ID == id && j.UserID == userID {
			return &j, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeJournals) Create(_ context.Context, j *models.Journal) (*models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(j.Title) == "" {
		return nil, common.ErrValidation
	}
	for _, x := range f.list {
		if x.UserID == j.UserID && strings.EqualFold(strings.TrimSpace(x.Title), strings.TrimSpace(j.Title)) {
			return nil, common.ErrAlreadyExists
		}
	}
	j.ID = "j" + strconv.Itoa(len(f.list)+1)
	f.list = append(f.list, *j)
	return j, nil
}

func (f *fakeJournals) Update(_ context.Context, j *models.Journal) (*models.Journal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.list {
		if x.ID == j.ID && x.UserID == j.UserID {
			f.list[i] = *j
			return j, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeJournals) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.list {
		if x.ID == id && x.UserID == userID {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeSelfies struct {
	created   *models.Selfie
	image     []byte
	presigned string
}

func (f *fakeSelfies) List(context.Context, string) ([]models.Selfie, error) {
	if f.created == nil {
		return nil, nil
	}
	return []models.Selfie{*f.created}, nil
}

func (f *fakeSelfies) Get(_ context.Context, userID, id string) (*models.Selfie, error) {
	if f.created == nil || f.created.ID != id || f.created.UserID != userID {
		return nil, common.ErrNotFound
	}
	return f.created, nil
}

func (f *fakeSelfies) Create(_ context.Context, s *models.Selfie, image io.Reader) (*models.Selfie, error) {
	b, err := io.ReadAll(image)
	if err != nil {
		return nil, err
	}
	s.ID = "s1"
	s.ImageName = models.SelfieImageName(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.Label)
	f.created = s
	f.image = b
	return s, nil
}

func (f *fakeSelfies) Update(_ context.Context, s *models.Selfie) (*models.Selfie, error) {
	if f.created == nil || f.created.ID != s.ID {
		return nil, common.ErrNotFound
	}
	f.created.Label = s.Label
	f.created.ManualCorrection = s.ManualCorrection
	return f.created, nil
}

func (f *fakeSelfies) Delete(context.Context, string, string) error {
	f.created = nil
	return nil
}

func (f *fakeSelfies) Image(ctx context.Context, userID, id string) (io.ReadCloser, *models.Selfie, error) {
	s, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(f.image)), s, nil
}

func (f *fakeSelfies) ImageURL(context.Context, string, string) (string, bool, error) {
	if f.presigned == "" {
		return "", false, nil
	}
	return f.presigned, true, nil
}

type fakeRatings struct {
	today *models.Rating
}

func (f *fakeRatings) List(context.Context, string) ([]models.Rating, error) {
	if f.today == nil {
		return []models.Rating{}, nil
	}
	return []models.Rating{*f.today}, nil
}

func (f *fakeRatings) Get(_ context.Context, _ string, id string) (*models.Rating, error) {
	if f.today == nil || f.today.ID != id {
		return nil, common.ErrNotFound
	}
	return f.today, nil
}

func (f *fakeRatings) Today(context.Context, string) (*models.Rating, error) {
	if f.today == nil {
		return nil, common.ErrNotFound
	}
	return f.today, nil
}

func (f *fakeRatings) Create(_ context.Context, r *models.Rating) (*models.Rating, error) {
	if !r.Value.Valid() {
		return nil, common.ErrValidation
	}
	if f.today != nil {
		return nil, common.ErrAlreadyExists
	}
	r.ID = "r1"
	f.today = r
	return r, nil
}

func (f *fakeRatings) Update(_ context.Context, r *models.Rating) (*models.Rating, error) {
	if f.today == nil || f.today.ID != r.ID {
		return nil, common.ErrNotFound
	}
	f.today.Value = r.Value
	return f.today, nil
}

func (f *fakeRatings) Delete(context.Context, string, string) error {
	if f.today == nil {
		return common.ErrNotFound
	}
	f.today = nil
	return nil
}

type fakePredictions struct {
	err        error
	lastUserID string
	lastImage  string
}

func (f *fakePredictions) PreprocessJournal(_ context.Context, body string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return [][]float64{{float64(len(body))}}, nil
}

func (f *fakePredictions) PredictJournal(context.Context, string) (mood.Prediction, error) {
	if f.err != nil {
		return mood.Prediction{}, f.err
	}
	return mood.Prediction{Label: mood.LabelStressed, Probability: "88.00%"}, nil
}

func (f *fakePredictions) PredictSelfie(_ context.Context, userID string, image io.Reader) (mood.Prediction, error) {
	b, _ := io.ReadAll(image)
	f.lastUserID = userID
	f.lastImage = string(b)
	return mood.Prediction{Label: mood.LabelNotStressed, Probability: "75.00%"}, nil
}

type fakeCounter struct {
	mu     sync.Mutex
	routes []string
}

func (c *fakeCounter) IncHTTPRequest(route string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, route)
}

type testEnv struct {
	srv         *httptest.Server
	users       *fakeUsers
	journals    *fakeJournals
	selfies     *fakeSelfies
	ratings     *fakeRatings
	predictions *fakePredictions
	counter     *fakeCounter
	token       string
	modelDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:       &fakeUsers{capability: mood.CapabilityUntested},
		journals:    &fakeJournals{},
		selfies:     &fakeSelfies{},
		ratings:     &fakeRatings{},
		predictions: &fakePredictions{},
		counter:     &fakeCounter{},
		modelDir:    t.TempDir(),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "moodkeeper_test_total"}))

	h := NewRouter(Deps{
		Users:       env.users,
		Journals:    env.journals,
		Selfies:     env.selfies,
		Ratings:     env.ratings,
		Predictions: env.predictions,
		SecretKey:   secret,
		ModelDir:    env.modelDir,
		Logger:      logging.Discard(),
		Counter:     env.counter,
		Gatherer:    reg,
	})
	env.srv = httptest.NewServer(h)
	t.Cleanup(env.srv.Close)

	tok, err := auth.GenerateToken("u-alice", secret, time.Hour)
	require.NoError(t, err)
	env.token = tok
	return env
}

// do sends body (JSON-encoded unless it is an io.Reader) and returns the
// response with its body read.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		rd = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+e.token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}
