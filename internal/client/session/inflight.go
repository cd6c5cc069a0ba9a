package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// single serializes predictions for one session. A new call cancels the
// one before it and waits for it to return before running.
type single struct {
	run sync.Mutex

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// do runs fn unless superseded first. current is false when a newer call
// started while fn was running; its result must then be discarded.
func (s *single) do(ctx context.Context, fn func(ctx context.Context) (mood.Prediction, bool)) (p mood.Prediction, ok, current bool) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.run.Lock()
	defer s.run.Unlock()

	if ctx.Err() != nil {
		return mood.Prediction{}, false, false
	}
	p, ok = fn(ctx)

	s.mu.Lock()
	current = gen == s.gen
	s.mu.Unlock()
	return p, ok, current
}

// stop cancels the running call, if any.
func (s *single) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
}
