package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
)

var (
	// ErrRatedToday blocks a second rating on the same calendar date.
	ErrRatedToday = fmt.Errorf("%w: A rating has already been submitted today", common.ErrAlreadyExists)
	ErrNoValue    = fmt.Errorf("%w: choose a mood", common.ErrValidation)
)

type RatingStore interface {
	ListRatings(ctx context.Context) ([]api.Rating, error)
	CreateRating(ctx context.Context, req api.RatingRequest) (api.Rating, error)
	UpdateRating(ctx context.Context, id string, req api.RatingRequest) (api.Rating, error)
	DeleteRating(ctx context.Context, id string) error
}

type RatingDraft struct {
	Value   mood.Value
	Message string
}

func (d RatingDraft) equal(o RatingDraft) bool {
	return d.Value == o.Value && strings.TrimSpace(d.Message) == strings.TrimSpace(o.Message)
}

type Rating struct {
	base

	store RatingStore

	list      browser[api.Rating]
	draft     RatingDraft
	original  RatingDraft
	editingID string
}

func NewRating(store RatingStore, opts Options) *Rating {
	return &Rating{
		base:  newBase("rating", opts),
		store: store,
		list:  newBrowser("rating", func(r api.Rating) string { return r.ID }),
	}
}

func (s *Rating) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx, s.list.currentID())
}

func (s *Rating) refresh(ctx context.Context, keepID string) error {
	items, err := s.store.ListRatings(ctx)
	if err != nil {
		s.logger.Error(ctx, "rating list failed", "error", err)
		return err
	}
	slices.SortStableFunc(items, func(a, b api.Rating) int { return a.CreatedAt.Compare(b.CreatedAt) })
	s.list.reset(items, keepID)
	return nil
}

func (s *Rating) List() []api.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list.items)
}

func (s *Rating) Current() (api.Rating, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.current()
}

func (s *Rating) Nav() Nav {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.nav
}

func (s *Rating) Draft() RatingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Today returns the rating created on the current calendar date, if any.
func (s *Rating) Today() (api.Rating, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today()
}

func (s *Rating) today() (api.Rating, bool) {
	now := s.now()
	for _, r := range s.list.items {
		if timex.SameDate(r.CreatedAt, now, s.opts.Location) {
			return r, true
		}
	}
	return api.Rating{}, false
}

// CanRate reports whether the mood controls are enabled for a new rating.
func (s *Rating) CanRate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rated := s.today()
	return !rated
}

// BeginCreate opens the form unless today already has a rating.
func (s *Rating) BeginCreate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, rated := s.today(); rated {
		return ErrRatedToday
	}
	if err := s.to(Creating); err != nil {
		return err
	}
	s.draft, s.original, s.editingID = RatingDraft{}, RatingDraft{}, ""
	s.startClock(ctx)
	return nil
}

// SetValue picks one of the five moods. Each maps to itself.
func (s *Rating) SetValue(v mood.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating, Editing); err != nil {
		return err
	}
	if !v.Valid() {
		return fmt.Errorf("%w: unknown mood value %q", common.ErrValidation, v)
	}
	s.draft.Value = v
	return nil
}

func (s *Rating) SetMessage(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Creating, Editing); err != nil {
		return err
	}
	s.draft.Message = msg
	return nil
}

func (s *Rating) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Editing && !s.draft.equal(s.original)
}

func (s *Rating) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Creating:
		_, rated := s.today()
		return s.draft.Value.Valid() && !rated
	case Editing:
		return s.draft.Value.Valid() && !s.draft.equal(s.original)
	}
	return false
}

// Submit creates today's rating. A conflict from the server means another
// device rated first; the list is reloaded so the block shows.
func (s *Rating) Submit(ctx context.Context) (api.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.in(Creating); err != nil {
		return api.Rating{}, err
	}
	if !s.draft.Value.Valid() {
		return api.Rating{}, ErrNoValue
	}
	if _, rated := s.today(); rated {
		return api.Rating{}, ErrRatedToday
	}

	now := s.now()
	created, err := s.store.CreateRating(ctx, api.RatingRequest{
		Value:     s.draft.Value,
		Message:   strings.TrimSpace(s.draft.Message),
		CreatedAt: &now,
	})
	if err != nil {
		s.logger.Error(ctx, "rating create failed", "error", err)
		if errors.Is(err, common.ErrAlreadyExists) {
			if rerr := s.refresh(ctx, ""); rerr != nil {
				s.logger.Warn(ctx, "rating reload failed", "error", rerr)
			}
			return api.Rating{}, ErrRatedToday
		}
		return api.Rating{}, err
	}

	_ = s.to(Submitted)
	s.stopClock()
	s.draft, s.original = RatingDraft{}, RatingDraft{}
	return created, s.refresh(ctx, created.ID)
}

func (s *Rating) Select(id string) error {
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

func (s *Rating) Prev() (bool, error) { return s.step(-1) }
func (s *Rating) Next() (bool, error) { return s.step(+1) }

func (s *Rating) step(delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Selected, Submitted); err != nil {
		return false, err
	}
	if _, ok := s.list.current(); !ok {
		return false, fmt.Errorf("%w: no rating selected", common.ErrNotFound)
	}
	moved := s.list.step(delta)
	return moved, s.to(Selected)
}

func (s *Rating) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.list.current()
	if !ok {
		return fmt.Errorf("%w: no rating selected", common.ErrNotFound)
	}
	if err := s.to(Editing); err != nil {
		return err
	}
	s.editingID = cur.ID
	s.draft = RatingDraft{Value: cur.Value, Message: cur.Message}
	s.original = s.draft
	return nil
}

func (s *Rating) SubmitEdit(ctx context.Context) (api.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.in(Editing); err != nil {
		return api.Rating{}, err
	}
	if !s.draft.Value.Valid() {
		return api.Rating{}, ErrNoValue
	}
	if s.draft.equal(s.original) {
		return api.Rating{}, ErrNoChanges
	}
	_ = s.to(Resubmitting)

	updated, err := s.store.UpdateRating(ctx, s.editingID, api.RatingRequest{
		Value:   s.draft.Value,
		Message: strings.TrimSpace(s.draft.Message),
	})
	if err != nil {
		s.logger.Error(ctx, "rating update failed", "id", s.editingID, "error", err)
		_ = s.to(Editing)
		return api.Rating{}, err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = RatingDraft{}, RatingDraft{}
	return updated, s.refresh(ctx, updated.ID)
}

// CancelEdit drops the edit buffer and returns to the selected record.
func (s *Rating) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Editing); err != nil {
		return err
	}
	s.editingID = ""
	s.draft, s.original = RatingDraft{}, RatingDraft{}
	return s.to(Selected)
}

func (s *Rating) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.current(); !ok {
		return fmt.Errorf("%w: no rating selected", common.ErrNotFound)
	}
	return s.beginDelete()
}

func (s *Rating) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelDelete()
}

// ConfirmDelete deletes the selected rating. Deleting today's rating
// enables a new one for the same date.
func (s *Rating) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.in(Deleting); err != nil {
		return err
	}

	id := s.list.currentID()
	if err := s.store.DeleteRating(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "rating delete failed", "id", id, "error", err)
		return err
	}

	_ = s.to(Submitted)
	s.editingID = ""
	s.draft, s.original = RatingDraft{}, RatingDraft{}
	return s.refresh(ctx, "")
}

func (s *Rating) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClock()
	_ = s.to(Browsing)
	s.editingID = ""
	s.draft, s.original = RatingDraft{}, RatingDraft{}
}
