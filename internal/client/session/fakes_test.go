package session

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/imageprep"
	"github.com/dmitrijs2005/moodkeeper/internal/client/prediction"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// clock is a settable Now for sessions.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testOptions(c *clock) Options {
	return Options{
		ClockInterval:      5 * time.Millisecond,
		FaceDetectInterval: 5 * time.Millisecond,
		Location:           time.UTC,
		Now:                c.Now,
	}
}

type fakePredictor struct {
	mu    sync.Mutex
	p     mood.Prediction
	ok    bool
	calls []prediction.Request
}

func (f *fakePredictor) Predict(_ context.Context, req prediction.Request) (mood.Prediction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.p, f.ok
}

func (f *fakePredictor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// heldPredictor blocks every call until release is closed, ignoring
// cancellation.
type heldPredictor struct {
	p       mood.Prediction
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newHeldPredictor(p mood.Prediction) *heldPredictor {
	return &heldPredictor{p: p, started: make(chan struct{}), release: make(chan struct{})}
}

func (h *heldPredictor) Predict(context.Context, prediction.Request) (mood.Prediction, bool) {
	h.once.Do(func() { close(h.started) })
	<-h.release
	return h.p, true
}

type journalStore struct {
	items     []api.Journal
	seq       int
	createErr error
	lists     int
}

func (s *journalStore) ListJournals(context.Context) ([]api.Journal, error) {
	s.lists++
	return slices.Clone(s.items), nil
}

func (s *journalStore) CreateJournal(_ context.Context, req api.JournalRequest) (api.Journal, error) {
	if s.createErr != nil {
		return api.Journal{}, s.createErr
	}
	s.seq++
	j := api.Journal{
		ID:               fmt.Sprintf("j%d", s.seq),
		Title:            req.Title,
		Body:             req.Body,
		Label:            req.Label,
		Probability:      req.Probability,
		ManualCorrection: req.ManualCorrection,
		CreatedAt:        *req.CreatedAt,
	}
	s.items = append(s.items, j)
	return j, nil
}

func (s *journalStore) UpdateJournal(_ context.Context, id string, req api.JournalRequest) (api.Journal, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Title = req.Title
			s.items[i].Body = req.Body
			s.items[i].Label = req.Label
			s.items[i].Probability = req.Probability
			s.items[i].ManualCorrection = req.ManualCorrection
			return s.items[i], nil
		}
	}
	return api.Journal{}, common.ErrNotFound
}

func (s *journalStore) DeleteJournal(_ context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = slices.Delete(s.items, i, i+1)
			return nil
		}
	}
	return common.ErrNotFound
}

type selfieStore struct {
	items   []api.Selfie
	images  map[string][]byte
	seq     int
	deletes int
}

func newSelfieStore() *selfieStore {
	return &selfieStore{images: map[string][]byte{}}
}

func (s *selfieStore) ListSelfies(context.Context) ([]api.Selfie, error) {
	return slices.Clone(s.items), nil
}

func (s *selfieStore) CreateSelfie(_ context.Context, meta api.SelfieMetadata, img []byte) (api.Selfie, error) {
	s.seq++
	sf := api.Selfie{
		ID:               fmt.Sprintf("s%d", s.seq),
		Label:            meta.Label,
		Probability:      meta.Probability,
		ManualCorrection: meta.ManualCorrection,
		CreatedAt:        *meta.CreatedAt,
	}
	s.items = append(s.items, sf)
	s.images[sf.ID] = img
	return sf, nil
}

func (s *selfieStore) UpdateSelfie(_ context.Context, id string, meta api.SelfieMetadata) (api.Selfie, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Label = meta.Label
			s.items[i].Probability = meta.Probability
			s.items[i].ManualCorrection = meta.ManualCorrection
			return s.items[i], nil
		}
	}
	return api.Selfie{}, common.ErrNotFound
}

func (s *selfieStore) DeleteSelfie(_ context.Context, id string) error {
	s.deletes++
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = slices.Delete(s.items, i, i+1)
			delete(s.images, id)
			return nil
		}
	}
	return common.ErrNotFound
}

func (s *selfieStore) SelfieImage(_ context.Context, id string) ([]byte, error) {
	img, ok := s.images[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return img, nil
}

type ratingStore struct {
	items []api.Rating
	seq   int
	// conflict simulates another device having rated today.
	conflict bool
}

func (s *ratingStore) ListRatings(context.Context) ([]api.Rating, error) {
	return slices.Clone(s.items), nil
}

func (s *ratingStore) CreateRating(_ context.Context, req api.RatingRequest) (api.Rating, error) {
	if s.conflict {
		s.seq++
		s.items = append(s.items, api.Rating{ID: fmt.Sprintf("r%d", s.seq), Value: mood.Neutral, CreatedAt: *req.CreatedAt})
		return api.Rating{}, common.ErrAlreadyExists
	}
	s.seq++
	r := api.Rating{ID: fmt.Sprintf("r%d", s.seq), Value: req.Value, Message: req.Message, CreatedAt: *req.CreatedAt}
	s.items = append(s.items, r)
	return r, nil
}

func (s *ratingStore) UpdateRating(_ context.Context, id string, req api.RatingRequest) (api.Rating, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Value = req.Value
			s.items[i].Message = req.Message
			return s.items[i], nil
		}
	}
	return api.Rating{}, common.ErrNotFound
}

func (s *ratingStore) DeleteRating(_ context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = slices.Delete(s.items, i, i+1)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeCamera struct {
	mu     sync.Mutex
	frames int
}

func (c *fakeCamera) Frame(context.Context) (image.Image, error) {
	c.mu.Lock()
	c.frames++
	c.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 90, G: 140, B: 200, A: 255})
		}
	}
	return img, nil
}

func (c *fakeCamera) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

type fakeDetector struct {
	mu   sync.Mutex
	face bool
}

func (d *fakeDetector) Detect(context.Context, image.Image) (imageprep.Box, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.face {
		return imageprep.Box{}, false, nil
	}
	return imageprep.Box{X: 20, Y: 10, Width: 120, Height: 100}, true, nil
}

func (d *fakeDetector) SetFace(ok bool) {
	d.mu.Lock()
	d.face = ok
	d.mu.Unlock()
}
