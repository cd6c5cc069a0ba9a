package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/config"
	"github.com/dmitrijs2005/moodkeeper/internal/client/imageprep"
	"github.com/dmitrijs2005/moodkeeper/internal/client/prediction"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

// ---- auth ----

type fakeAuth struct {
	loginUser string
	loginPass []byte
	loginRet  api.UserResponse
	loginErr  error

	restoreRet api.UserResponse
	restoreOK  bool
	restoreErr error

	regUser string
	regPass []byte
	regErr  error

	pingErr error

	logoutCalled bool
	logoutErr    error
}

func (f *fakeAuth) Login(_ context.Context, user string, pass []byte) (api.UserResponse, error) {
	f.loginUser, f.loginPass = user, append([]byte(nil), pass...)
	return f.loginRet, f.loginErr
}

func (f *fakeAuth) Restore(context.Context) (api.UserResponse, bool, error) {
	return f.restoreRet, f.restoreOK, f.restoreErr
}

func (f *fakeAuth) Register(_ context.Context, user string, pass []byte) error {
	f.regUser, f.regPass = user, append([]byte(nil), pass...)
	return f.regErr
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}

// ---- capability ----

type fakeCapability struct {
	flag    mood.Capability
	ensured []string
	err     error
	resets  int
}

func (f *fakeCapability) Ensure(_ context.Context, userID string) (mood.Capability, error) {
	f.ensured = append(f.ensured, userID)
	return f.flag, f.err
}

func (f *fakeCapability) Current() mood.Capability { return f.flag }
func (f *fakeCapability) Reset()                   { f.resets++ }

// ---- predictor ----

type fakePredictor struct {
	mu sync.Mutex
	p  mood.Prediction
	ok bool
	n  int
}

func (f *fakePredictor) Predict(context.Context, prediction.Request) (mood.Prediction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return f.p, f.ok
}

// ---- camera ----

type stillCamera struct{}

func (stillCamera) Frame(context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img, nil
}

// ---- store ----

// memStore backs all three sessions.
type memStore struct {
	mu       sync.Mutex
	journals []api.Journal
	selfies  []api.Selfie
	images   map[string][]byte
	ratings  []api.Rating
	seq      int
	lists    int
}

func newMemStore() *memStore { return &memStore{images: map[string][]byte{}} }

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) ListJournals(context.Context) ([]api.Journal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return slices.Clone(m.journals), nil
}

func (m *memStore) CreateJournal(_ context.Context, req api.JournalRequest) (api.Journal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := api.Journal{
		ID: m.nextID("j"), Title: req.Title, Body: req.Body,
		Label: req.Label, Probability: req.Probability, ManualCorrection: req.ManualCorrection,
		CreatedAt: *req.CreatedAt, UpdatedAt: *req.CreatedAt,
	}
	m.journals = append(m.journals, j)
	return j, nil
}

func (m *memStore) UpdateJournal(_ context.Context, id string, req api.JournalRequest) (api.Journal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.journals {
		if j.ID == id {
			j.Title, j.Body = req.Title, req.Body
			j.Label, j.Probability, j.ManualCorrection = req.Label, req.Probability, req.ManualCorrection
			m.journals[i] = j
			return j, nil
		}
	}
	return api.Journal{}, common.ErrNotFound
}

func (m *memStore) DeleteJournal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals = slices.DeleteFunc(m.journals, func(j api.Journal) bool { return j.ID == id })
	return nil
}

func (m *memStore) ListSelfies(context.Context) ([]api.Selfie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.selfies), nil
}

func (m *memStore) CreateSelfie(_ context.Context, meta api.SelfieMetadata, img []byte) (api.Selfie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := api.Selfie{
		ID: m.nextID("s"), Label: meta.Label, Probability: meta.Probability,
		ManualCorrection: meta.ManualCorrection, CreatedAt: *meta.CreatedAt, UpdatedAt: *meta.CreatedAt,
	}
	s.ImageName = s.ID + ".jpg"
	m.selfies = append(m.selfies, s)
	m.images[s.ID] = img
	return s, nil
}

func (m *memStore) UpdateSelfie(_ context.Context, id string, meta api.SelfieMetadata) (api.Selfie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.selfies {
		if s.ID == id {
			s.Label, s.Probability, s.ManualCorrection = meta.Label, meta.Probability, meta.ManualCorrection
			m.selfies[i] = s
			return s, nil
		}
	}
	return api.Selfie{}, common.ErrNotFound
}

func (m *memStore) DeleteSelfie(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selfies = slices.DeleteFunc(m.selfies, func(s api.Selfie) bool { return s.ID == id })
	delete(m.images, id)
	return nil
}

func (m *memStore) SelfieImage(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return img, nil
}

func (m *memStore) ListRatings(context.Context) ([]api.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ratings), nil
}

func (m *memStore) CreateRating(_ context.Context, req api.RatingRequest) (api.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := api.Rating{ID: m.nextID("r"), Value: req.Value, Message: req.Message, CreatedAt: *req.CreatedAt, UpdatedAt: *req.CreatedAt}
	m.ratings = append(m.ratings, r)
	return r, nil
}

func (m *memStore) UpdateRating(_ context.Context, id string, req api.RatingRequest) (api.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.ratings {
		if r.ID == id {
			r.Value, r.Message = req.Value, req.Message
			m.ratings[i] = r
			return r, nil
		}
	}
	return api.Rating{}, common.ErrNotFound
}

func (m *memStore) DeleteRating(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = slices.DeleteFunc(m.ratings, func(r api.Rating) bool { return r.ID == id })
	return nil
}

// ---- app ----

type testApp struct {
	*App
	store     *memStore
	auth      *fakeAuth
	caps      *fakeCapability
	predictor *fakePredictor
	out       *bytes.Buffer
}

// newTestApp builds an App on in-memory fakes. input feeds every prompt.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	store := newMemStore()
	pred := &fakePredictor{p: mood.Prediction{Label: mood.LabelStressed, Probability: "91.00%"}, ok: true}
	opts := session.Options{
		ClockInterval:      5 * time.Millisecond,
		FaceDetectInterval: 5 * time.Millisecond,
		Location:           time.UTC,
		Now:                func() time.Time { return testNow },
	}
	out := &bytes.Buffer{}

	ta := &testApp{
		store:     store,
		auth:      &fakeAuth{},
		caps:      &fakeCapability{flag: mood.CapabilityUntested},
		predictor: pred,
		out:       out,
	}
	ta.App = &App{
		config:      &config.Config{PingInterval: time.Hour},
		logger:      logging.Discard(),
		authService: ta.auth,
		capability:  ta.caps,
		journals:    session.NewJournal(store, pred, opts),
		selfies:     session.NewSelfie(store, pred, stillCamera{}, imageprep.CenterDetector{Ratio: faceRatio}, opts),
		ratings:     session.NewRating(store, opts),
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         out,
		loc:         time.UTC,
		now:         func() time.Time { return testNow },
	}
	t.Cleanup(ta.closeSessions)
	return ta
}

// feed replaces the pending input.
func (ta *testApp) feed(input string) {
	ta.reader = bufio.NewReader(strings.NewReader(input))
}

func (ta *testApp) load(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, load := range []func(context.Context) error{ta.journals.Load, ta.selfies.Load, ta.ratings.Load} {
		if err := load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}
