package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/client/scheduler"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
)

// ClockLayout renders the live clock shown while creating an entry.
const ClockLayout = "Monday, January 2, 2006 15:04:05"

type Options struct {
	ClockInterval      time.Duration
	FaceDetectInterval time.Duration
	// Location decides the calendar date of "today" and of date groups.
	Location *time.Location
	Now      func() time.Time
	Logger   logging.Logger
}

func (o Options) withDefaults() Options {
	if o.ClockInterval <= 0 {
		o.ClockInterval = time.Second
	}
	if o.FaceDetectInterval <= 0 {
		o.FaceDetectInterval = 100 * time.Millisecond
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// base carries what every session shares: the state machine, the clock
// task and the state to return to when a delete is cancelled.
type base struct {
	mu sync.Mutex
	machine

	opts   Options
	logger logging.Logger

	clock     *scheduler.Task
	tickMu    sync.Mutex
	clockText string

	deleteBack State

	// form numbers the create form; a submit that outlives its form
	// must not save it.
	form uint64
}

func newBase(module string, opts Options) base {
	opts = opts.withDefaults()
	return base{opts: opts, logger: opts.Logger.With("module", module)}
}

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Clock is the live clock text, empty unless creating.
func (b *base) Clock() string {
	b.tickMu.Lock()
	defer b.tickMu.Unlock()
	return b.clockText
}

func (b *base) now() time.Time { return b.opts.Now().In(b.opts.Location) }

// startClock must be called with b.mu held.
func (b *base) startClock(ctx context.Context) {
	b.stopClock()
	b.setClock(b.now().Format(ClockLayout))
	b.clock = scheduler.Every(ctx, b.opts.ClockInterval, func(context.Context) {
		b.setClock(b.now().Format(ClockLayout))
	})
}

func (b *base) stopClock() {
	b.clock.Stop()
	b.clock = nil
	b.setClock("")
}

func (b *base) setClock(s string) {
	b.tickMu.Lock()
	b.clockText = s
	b.tickMu.Unlock()
}

// newForm must be called with b.mu held.
func (b *base) newForm() { b.form++ }

// beginDelete must be called with b.mu held.
func (b *base) beginDelete() error {
	back := b.state
	if err := b.to(Deleting); err != nil {
		return err
	}
	b.deleteBack = back
	return nil
}

func (b *base) cancelDelete() error {
	if err := b.in(Deleting); err != nil {
		return err
	}
	back := b.deleteBack
	if back == Submitted {
		back = Selected
	}
	return b.to(back)
}
