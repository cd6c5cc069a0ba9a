package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/prediction"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/richtext"
)

var (
	ErrTitleRequired = fmt.Errorf("%w: a title is required", common.ErrValidation)
	ErrBodyRequired  = fmt.Errorf("%w: the entry is empty", common.ErrValidation)
	ErrTitleTaken    = fmt.Errorf("%w: a journal with this title already exists", common.ErrValidation)
	ErrNoChanges     = fmt.Errorf("%w: nothing has changed", common.ErrValidation)
	ErrNoLabel       = fmt.Errorf("%w: there is no prediction to correct", common.ErrValidation)
)

type JournalStore interface {
	ListJournals(ctx context.Context) ([]api.Journal, error)
	CreateJournal(ctx context.Context, req api.JournalRequest) (api.Journal, error)
	UpdateJournal(ctx context.Context, id string, req api.JournalRequest) (api.Journal, error)
	DeleteJournal(ctx context.Context, id string) error
}

// Predictor is satisfied by *prediction.Router.
type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) (mood.Prediction, bool)
}

// JournalDraft is the editable buffer of a journal form.
type JournalDraft struct {
	Title      string
	Body       string
	Prediction mood.Prediction
	Manual     bool
}

func (d JournalDraft) equal(o JournalDraft) bool {
	return strings.TrimSpace(d.Title) == strings.TrimSpace(o.Title) &&
		strings.TrimSpace(d.Body) == strings.TrimSpace(o.Body) &&
		d.Prediction == o.Prediction &&
		d.Manual == o.Manual
}

func journalDraft(j api.Journal) JournalDraft {
	return JournalDraft{
		Title:      j.Title,
		Body:       j.Body,
		Prediction: mood.Prediction{Label: j.Label, Probability: j.Probability},
		Manual:     j.ManualCorrection,
	}
}

type Journal struct {
	base

	store     JournalStore
	predictor Predictor

	list        browser[api.Journal]
	draft       JournalDraft
	original    JournalDraft
	editingID   string
	predictions single
}

func NewJournal(store JournalStore, predictor Predictor, opts Options) *Journal {
	return &Journal{
		base:      newBase("journal", opts),
		store:     store,
		predictor: predictor,
		list:      newBrowser("journal", func(j api.Journal) string { return j.ID }),
	}
}

// Load re-fetches the list. It does not change state.
func (s *Journal) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx, s.list.currentID())
}

func (s *Journal) refresh(ctx context.Context, keepID string) error {
	items, err := s.store.ListJournals(ctx)
	if err != nil {
		s.logger.Error(ctx, "journal list failed", "error", err)
		return err
	}
	slices.SortStableFunc(items, func(a, b api.Journal) int { return a.CreatedAt.Compare(b.CreatedAt) })
	s.list.reset(items, keepID)
	return nil
}

func (s *Journal) List() []api.Journal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list.items)
}

func (s *Journal) Current() (api.Journal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.current()
}

func (s *Journal) Nav() Nav {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.nav
}

func (s *Journal) Draft() JournalDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Journal) BeginCreate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.to(Creating); err != nil {
		return err
	}
	s.predictions.stop()
	s.newForm()
	s.draft, s.original, s.editingID = JournalDraft{}, JournalDraft{}, ""
	s.startClock(ctx)
	return nil
}

func (s *Journal) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating, Editing); err != nil {
		return err
	}
	s.draft.Title = title
	return nil
}

func (s *Journal) SetBody(body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating, Editing); err != nil {
		return err
	}
	s.draft.Body = body
	return nil
}

// ChooseLabel sets a manual label in place of a model prediction.
func (s *Journal) ChooseLabel(l mood.Label) error {
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

// TitleUnique compares the draft title, trimmed and case-insensitively,
// with every other journal in the list.
func (s *Journal) TitleUnique() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titleUnique()
}

func (s *Journal) titleUnique() bool {
	title := strings.TrimSpace(s.draft.Title)
	for _, j := range s.list.items {
		if j.ID != s.editingID && strings.EqualFold(strings.TrimSpace(j.Title), title) {
			return false
		}
	}
	return true
}

func (s *Journal) validate() error {
	switch {
	case strings.TrimSpace(s.draft.Title) == "":
		return ErrTitleRequired
	case richtext.PlainText(s.draft.Body) == "":
		return ErrBodyRequired
	case !s.titleUnique():
		return ErrTitleTaken
	}
	return nil
}

// Dirty reports whether the edit buffer differs from the record being
// edited. It only gates SubmitEdit.
func (s *Journal) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Editing && !s.draft.equal(s.original)
}

// CanSubmit reports whether the submit control is enabled.
func (s *Journal) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Creating:
		return s.validate() == nil
	case Editing:
		return s.validate() == nil && !s.draft.equal(s.original)
	}
	return false
}

// Submit creates the drafted journal. Unless a label was chosen manually
// the router is asked for one first; a failed prediction leaves the label
// empty and the journal is created anyway.
func (s *Journal) Submit(ctx context.Context) (api.Journal, error) {
	s.mu.Lock()
	if err := s.in(Creating); err != nil {
		s.mu.Unlock()
		return api.Journal{}, err
	}
	if err := s.validate(); err != nil {
		s.mu.Unlock()
		return api.Journal{}, err
	}
	draft, form := s.draft, s.form
	if !draft.Manual {
		_ = s.to(AwaitingPrediction)
	}
	s.mu.Unlock()

	if !draft.Manual {
		p, ok, current := s.predictions.do(ctx, func(ctx context.Context) (mood.Prediction, bool) {
			return s.predictor.Predict(ctx, prediction.JournalRequest(draft.Body))
		})
		if !current {
			return api.Journal{}, fmt.Errorf("%w: prediction superseded", common.ErrInvalidTransition)
		}
		if !ok {
			p = mood.Prediction{}
		}
		draft.Prediction = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if form != s.form || (s.state != AwaitingPrediction && s.state != Creating) {
		return api.Journal{}, fmt.Errorf("%w: session left the form", common.ErrInvalidTransition)
	}

	now := s.now()
	created, err := s.store.CreateJournal(ctx, api.JournalRequest{
		Title:            strings.TrimSpace(draft.Title),
		Body:             draft.Body,
		Label:            draft.Prediction.Label,
		Probability:      draft.Prediction.Probability,
		ManualCorrection: draft.Manual,
		CreatedAt:        &now,
	})
	if err != nil {
		s.logger.Error(ctx, "journal create failed", "error", err)
		if s.state == AwaitingPrediction {
			_ = s.to(Creating)
		}
		s.draft.Prediction = draft.Prediction
		return api.Journal{}, err
	}

	_ = s.to(Submitted)
	s.stopClock()
	s.draft, s.original = JournalDraft{}, JournalDraft{}
	return created, s.refresh(ctx, created.ID)
}

// Select moves the cursor to id.
func (s *Journal) Select(id string) error {
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

func (s *Journal) Prev() (bool, error) { return s.step(-1) }
func (s *Journal) Next() (bool, error) { return s.step(+1) }

func (s *Journal) step(delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Selected, Submitted); err != nil {
		return false, err
	}
	if _, ok := s.list.current(); !ok {
		return false, fmt.Errorf("%w: no journal selected", common.ErrNotFound)
	}
	moved := s.list.step(delta)
	return moved, s.to(Selected)
}

// BeginEdit copies the selected journal into the edit buffer.
func (s *Journal) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginEdit()
}

func (s *Journal) beginEdit() error {
	cur, ok := s.list.current()
	if !ok {
		return fmt.Errorf("%w: no journal selected", common.ErrNotFound)
	}
	if err := s.to(Editing); err != nil {
		return err
	}
	s.editingID = cur.ID
	s.draft = journalDraft(cur)
	s.original = s.draft
	return nil
}

// Repredict runs the router on the edited body and replaces the draft's
// prediction, clearing any manual flag.
func (s *Journal) Repredict(ctx context.Context) (mood.Prediction, bool, error) {
	s.mu.Lock()
	if err := s.in(Editing); err != nil {
		s.mu.Unlock()
		return mood.Prediction{}, false, err
	}
	body := s.draft.Body
	s.mu.Unlock()

	p, ok, current := s.predictions.do(ctx, func(ctx context.Context) (mood.Prediction, bool) {
		return s.predictor.Predict(ctx, prediction.JournalRequest(body))
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
// marks it manual. While editing only the buffer changes; on a selected
// journal the correction is saved straight away.
func (s *Journal) Correct(ctx context.Context) error {
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

func (s *Journal) correctDraft() error {
	if s.draft.Prediction.IsZero() {
		return ErrNoLabel
	}
	s.draft.Prediction = s.draft.Prediction.Corrected()
	s.draft.Manual = true
	return nil
}

func (s *Journal) SubmitEdit(ctx context.Context) (api.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitEdit(ctx)
}

func (s *Journal) submitEdit(ctx context.Context) (api.Journal, error) {
	if err := s.in(Editing); err != nil {
		return api.Journal{}, err
	}
	if err := s.validate(); err != nil {
		return api.Journal{}, err
	}
	if s.draft.equal(s.original) {
		return api.Journal{}, ErrNoChanges
	}
	_ = s.to(Resubmitting)

	updated, err := s.store.UpdateJournal(ctx, s.editingID, api.JournalRequest{
		Title:            strings.TrimSpace(s.draft.Title),
		Body:             s.draft.Body,
		Label:            s.draft.Prediction.Label,
		Probability:      s.draft.Prediction.Probability,
		ManualCorrection: s.draft.Manual,
	})
	if err != nil {
		s.logger.Error(ctx, "journal update failed", "id", s.editingID, "error", err)
		_ = s.to(Editing)
		return api.Journal{}, err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = JournalDraft{}, JournalDraft{}
	return updated, s.refresh(ctx, updated.ID)
}

// CancelEdit drops the edit buffer and returns to the selected record.
func (s *Journal) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Editing); err != nil {
		return err
	}
	s.editingID = ""
	s.draft, s.original = JournalDraft{}, JournalDraft{}
	return s.to(Selected)
}

func (s *Journal) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.current(); !ok {
		return fmt.Errorf("%w: no journal selected", common.ErrNotFound)
	}
	return s.beginDelete()
}

func (s *Journal) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelDelete()
}

// ConfirmDelete deletes the selected journal. A journal already gone on
// the server counts as deleted.
func (s *Journal) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Deleting); err != nil {
		return err
	}

	id := s.list.currentID()
	if err := s.store.DeleteJournal(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "journal delete failed", "id", id, "error", err)
		return err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = JournalDraft{}, JournalDraft{}
	return s.refresh(ctx, "")
}

// Close returns to browsing, stopping the clock and any prediction.
func (s *Journal) Close() {
	s.predictions.stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.newForm()
	s.stopClock()
	_ = s.to(Browsing)
	s.editingID = ""
	s.draft, s.original = JournalDraft{}, JournalDraft{}
}
