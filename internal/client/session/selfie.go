package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/imageprep"
	"github.com/dmitrijs2005/moodkeeper/internal/client/prediction"
	"github.com/dmitrijs2005/moodkeeper/internal/client/scheduler"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

var (
	ErrNoCapture = fmt.Errorf("%w: no selfie captured", common.ErrValidation)
	ErrNoFace    = fmt.Errorf("%w: no face detected", common.ErrValidation)
	ErrNoCamera  = fmt.Errorf("%w: no camera", common.ErrValidation)
)

type SelfieStore interface {
	ListSelfies(ctx context.Context) ([]api.Selfie, error)
	CreateSelfie(ctx context.Context, meta api.SelfieMetadata, image []byte) (api.Selfie, error)
	UpdateSelfie(ctx context.Context, id string, meta api.SelfieMetadata) (api.Selfie, error)
	DeleteSelfie(ctx context.Context, id string) error
	SelfieImage(ctx context.Context, id string) ([]byte, error)
}

// SelfieDraft is the editable buffer of a selfie form.
type SelfieDraft struct {
	Frame      image.Image
	Box        imageprep.Box
	Prediction mood.Prediction
	Manual     bool
}

func (d SelfieDraft) Captured() bool { return d.Frame != nil }

// SelfieRow is a selfie with its display number: its 1-based rank in
// ascending creation order. The number is recomputed on every refresh and
// is never used as a key.
type SelfieRow struct {
	api.Selfie
	DisplayNumber int
}

type Selfie struct {
	base

	store     SelfieStore
	predictor Predictor
	camera    imageprep.Camera
	detector  imageprep.Detector

	list        browser[api.Selfie]
	draft       SelfieDraft
	original    SelfieDraft
	editingID   string
	predictions single

	feed     *scheduler.Task
	faceMu   sync.Mutex
	frame    image.Image
	face     imageprep.Box
	faceSeen bool
}

// NewSelfie builds a selfie session. camera and detector may be nil when
// the host has no feed; creating a selfie then fails with ErrNoCamera.
func NewSelfie(store SelfieStore, predictor Predictor, camera imageprep.Camera, detector imageprep.Detector, opts Options) *Selfie {
	return &Selfie{
		base:      newBase("selfie", opts),
		store:     store,
		predictor: predictor,
		camera:    camera,
		detector:  detector,
		list:      newBrowser("selfie", func(s api.Selfie) string { return s.ID }),
	}
}

func (s *Selfie) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx, s.list.currentID())
}

func (s *Selfie) refresh(ctx context.Context, keepID string) error {
	items, err := s.store.ListSelfies(ctx)
	if err != nil {
		s.logger.Error(ctx, "selfie list failed", "error", err)
		return err
	}
	slices.SortStableFunc(items, func(a, b api.Selfie) int { return a.CreatedAt.Compare(b.CreatedAt) })
	s.list.reset(items, keepID)
	return nil
}

// Rows returns the list with display numbers.
func (s *Selfie) Rows() []SelfieRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]SelfieRow, len(s.list.items))
	for i, it := range s.list.items {
		rows[i] = SelfieRow{Selfie: it, DisplayNumber: i + 1}
	}
	return rows
}

// NextDisplayNumber is the number the next created selfie will get.
func (s *Selfie) NextDisplayNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list.items) + 1
}

func (s *Selfie) Current() (SelfieRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.list.current()
	if !ok {
		return SelfieRow{}, false
	}
	return SelfieRow{Selfie: cur, DisplayNumber: s.list.cur + 1}, true
}

func (s *Selfie) Nav() Nav {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.nav
}

func (s *Selfie) Draft() SelfieDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// BeginCreate opens the form, starts the clock and turns the camera on.
func (s *Selfie) BeginCreate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.camera == nil || s.detector == nil {
		return ErrNoCamera
	}
	if err := s.to(Creating); err != nil {
		return err
	}
	s.predictions.stop()
	s.newForm()
	s.draft, s.original, s.editingID = SelfieDraft{}, SelfieDraft{}, ""
	s.startClock(ctx)
	s.startFeed(ctx)
	return nil
}

func (s *Selfie) startFeed(ctx context.Context) {
	s.stopFeed()
	s.feed = scheduler.Every(ctx, s.opts.FaceDetectInterval, s.detect)
}

func (s *Selfie) stopFeed() {
	s.feed.Stop()
	s.feed = nil
	s.faceMu.Lock()
	s.frame, s.face, s.faceSeen = nil, imageprep.Box{}, false
	s.faceMu.Unlock()
}

// detect is one face-detection pass over the current frame.
func (s *Selfie) detect(ctx context.Context) {
	frame, err := s.camera.Frame(ctx)
	if err != nil {
		s.logger.Debug(ctx, "camera frame failed", "error", err)
		return
	}
	box, ok, err := s.detector.Detect(ctx, frame)
	if err != nil {
		s.logger.Debug(ctx, "face detection failed", "error", err)
		return
	}

	s.faceMu.Lock()
	s.frame, s.face, s.faceSeen = frame, box, ok
	s.faceMu.Unlock()
}

// Face returns the latest face box seen on the feed.
func (s *Selfie) Face() (imageprep.Box, bool) {
	s.faceMu.Lock()
	defer s.faceMu.Unlock()
	return s.face, s.faceSeen
}

// Capture freezes the latest frame and its face box into the draft and
// turns the camera off.
func (s *Selfie) Capture(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating); err != nil {
		return err
	}

	s.faceMu.Lock()
	frame, box, ok := s.frame, s.face, s.faceSeen
	s.faceMu.Unlock()

	if frame == nil {
		// No tick has landed yet; run one pass now.
		s.detect(ctx)
		s.faceMu.Lock()
		frame, box, ok = s.frame, s.face, s.faceSeen
		s.faceMu.Unlock()
	}
	if !ok {
		return ErrNoFace
	}

	s.stopFeed()
	s.draft.Frame, s.draft.Box = frame, box
	return nil
}

// Retake drops the captured frame and turns the camera back on.
func (s *Selfie) Retake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating); err != nil {
		return err
	}
	s.draft.Frame, s.draft.Box = nil, imageprep.Box{}
	s.startFeed(ctx)
	return nil
}

func (s *Selfie) ChooseLabel(l mood.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating, Editing); err != nil {
		return err
	}
	if l == mood.LabelUnknown || !l.Valid() {
		return fmt.Errorf("%w: label %q", common.ErrValidation, l)
	}
	s.draft.Prediction = mood.Prediction{Label: l, Probability: mood.ManualProbability}
	s.draft.Manual = true
	return nil
}

func (s *Selfie) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Creating:
		return s.draft.Captured()
	case Editing:
		return s.dirty()
	}
	return false
}

// Submit uploads the captured face. Unless a label was chosen manually the
// router is asked for one first; a failed prediction leaves it empty.
func (s *Selfie) Submit(ctx context.Context) (api.Selfie, error) {
	s.mu.Lock()
	if err := s.in(Creating); err != nil {
		s.mu.Unlock()
		return api.Selfie{}, err
	}
	if !s.draft.Captured() {
		s.mu.Unlock()
		return api.Selfie{}, ErrNoCapture
	}
	draft, form := s.draft, s.form
	if !draft.Manual {
		_ = s.to(AwaitingPrediction)
	}
	s.mu.Unlock()

	if !draft.Manual {
		p, ok, current := s.predictions.do(ctx, func(ctx context.Context) (mood.Prediction, bool) {
			return s.predictor.Predict(ctx, prediction.SelfieRequest(draft.Frame, draft.Box))
		})
		if !current {
			return api.Selfie{}, fmt.Errorf("%w: prediction superseded", common.ErrInvalidTransition)
		}
		if !ok {
			p = mood.Prediction{}
		}
		draft.Prediction = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if form != s.form || (s.state != AwaitingPrediction && s.state != Creating) {
		return api.Selfie{}, fmt.Errorf("%w: session left the form", common.ErrInvalidTransition)
	}
	back := func() {
		if s.state == AwaitingPrediction {
			_ = s.to(Creating)
		}
		s.draft.Prediction = draft.Prediction
	}

	jpeg, err := imageprep.EncodeJPEG(draft.Frame, draft.Box)
	if err != nil {
		back()
		return api.Selfie{}, err
	}

	now := s.now()
	created, err := s.store.CreateSelfie(ctx, api.SelfieMetadata{
		Label:            draft.Prediction.Label,
		Probability:      draft.Prediction.Probability,
		ManualCorrection: draft.Manual,
		CreatedAt:        &now,
	}, jpeg)
	if err != nil {
		s.logger.Error(ctx, "selfie create failed", "error", err)
		back()
		return api.Selfie{}, err
	}

	_ = s.to(Submitted)
	s.stopClock()
	s.stopFeed()
	s.draft, s.original = SelfieDraft{}, SelfieDraft{}
	return created, s.refresh(ctx, created.ID)
}

func (s *Selfie) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Browsing, Submitted, Selected); err != nil {
		return err
	}
	if err := s.list.selectID(id); err != nil {
		return err
	}
	return s.to(Selected)
}

// SelectNumber selects by display number.
func (s *Selfie) SelectNumber(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Browsing, Submitted, Selected); err != nil {
		return err
	}
	if n < 1 || n > len(s.list.items) {
		return fmt.Errorf("%w: selfie #%d", common.ErrNotFound, n)
	}
	if err := s.list.selectID(s.list.items[n-1].ID); err != nil {
		return err
	}
	return s.to(Selected)
}

func (s *Selfie) Prev() (bool, error) { return s.step(-1) }
func (s *Selfie) Next() (bool, error) { return s.step(+1) }

func (s *Selfie) step(delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Selected, Submitted); err != nil {
		return false, err
	}
	if _, ok := s.list.current(); !ok {
		return false, fmt.Errorf("%w: no selfie selected", common.ErrNotFound)
	}
	moved := s.list.step(delta)
	return moved, s.to(Selected)
}

func (s *Selfie) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginEdit()
}

func (s *Selfie) beginEdit() error {
	cur, ok := s.list.current()
	if !ok {
		return fmt.Errorf("%w: no selfie selected", common.ErrNotFound)
	}
	if err := s.to(Editing); err != nil {
		return err
	}
	s.editingID = cur.ID
	s.draft = SelfieDraft{
		Prediction: mood.Prediction{Label: cur.Label, Probability: cur.Probability},
		Manual:     cur.ManualCorrection,
	}
	s.original = s.draft
	return nil
}

func (s *Selfie) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty()
}

func (s *Selfie) dirty() bool {
	return s.state == Editing &&
		(s.draft.Prediction != s.original.Prediction || s.draft.Manual != s.original.Manual)
}

// Repredict downloads the stored image and runs the router on it.
func (s *Selfie) Repredict(ctx context.Context) (mood.Prediction, bool, error) {
	s.mu.Lock()
	if err := s.in(Editing); err != nil {
		s.mu.Unlock()
		return mood.Prediction{}, false, err
	}
	id := s.editingID
	s.mu.Unlock()

	raw, err := s.store.SelfieImage(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "selfie image download failed", "id", id, "error", err)
		return mood.Prediction{}, false, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return mood.Prediction{}, false, fmt.Errorf("%w: decode selfie %s: %v", common.ErrInferenceFailure, id, err)
	}

	p, ok, current := s.predictions.do(ctx, func(ctx context.Context) (mood.Prediction, bool) {
		return s.predictor.Predict(ctx, prediction.SelfieRequest(img, imageprep.FullFrame(img.Bounds())))
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !current || s.state != Editing {
		return mood.Prediction{}, false, fmt.Errorf("%w: prediction superseded", common.ErrInvalidTransition)
	}
	if ok {
		s.draft.Prediction = p
		s.draft.Manual = false
	}
	return p, ok, nil
}

// Correct flips the prediction to its complement at full confidence and
// marks it manual, saving straight away unless editing.
func (s *Selfie) Correct(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Editing:
		return s.correctDraft()
	case Selected, Submitted:
		if err := s.beginEdit(); err != nil {
			return err
		}
		if err := s.correctDraft(); err != nil {
			_ = s.to(Selected)
			return err
		}
		_, err := s.submitEdit(ctx)
		if err != nil {
			_ = s.to(Selected)
		}
		return err
	}
	return fmt.Errorf("%w: cannot correct while %s", common.ErrInvalidTransition, s.state)
}

func (s *Selfie) correctDraft() error {
	if s.draft.Prediction.IsZero() {
		return ErrNoLabel
	}
	s.draft.Prediction = s.draft.Prediction.Corrected()
	s.draft.Manual = true
	return nil
}

func (s *Selfie) SubmitEdit(ctx context.Context) (api.Selfie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitEdit(ctx)
}

func (s *Selfie) submitEdit(ctx context.Context) (api.Selfie, error) {
	if err := s.in(Editing); err != nil {
		return api.Selfie{}, err
	}
	if !s.dirty() {
		return api.Selfie{}, ErrNoChanges
	}
	_ = s.to(Resubmitting)

	updated, err := s.store.UpdateSelfie(ctx, s.editingID, api.SelfieMetadata{
		Label:            s.draft.Prediction.Label,
		Probability:      s.draft.Prediction.Probability,
		ManualCorrection: s.draft.Manual,
	})
	if err != nil {
		s.logger.Error(ctx, "selfie update failed", "id", s.editingID, "error", err)
		_ = s.to(Editing)
		return api.Selfie{}, err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = SelfieDraft{}, SelfieDraft{}
	return updated, s.refresh(ctx, updated.ID)
}

// CancelEdit drops the edit buffer and returns to the selected record.
func (s *Selfie) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Editing); err != nil {
		return err
	}
	s.editingID = ""
	s.draft, s.original = SelfieDraft{}, SelfieDraft{}
	return s.to(Selected)
}

func (s *Selfie) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.current(); !ok {
		return fmt.Errorf("%w: no selfie selected", common.ErrNotFound)
	}
	return s.beginDelete()
}

func (s *Selfie) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelDelete()
}

// ConfirmDelete deletes the selected selfie. The server removes the stored
// image and any retraining copy; a selfie already gone counts as deleted.
func (s *Selfie) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Deleting); err != nil {
		return err
	}

	id := s.list.currentID()
	if err := s.store.DeleteSelfie(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "selfie delete failed", "id", id, "error", err)
		return err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = SelfieDraft{}, SelfieDraft{}
	return s.refresh(ctx, "")
}

// Close returns to browsing and stops the clock, the camera and any
// prediction.
func (s *Selfie) Close() {
	s.predictions.stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.newForm()
	s.stopClock()
	s.stopFeed()
	_ = s.to(Browsing)
	s.editingID = ""
	s.draft, s.original = SelfieDraft{}, SelfieDraft{}
}
