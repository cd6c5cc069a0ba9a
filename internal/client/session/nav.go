package session

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Nav is the state of the prev/next controls.
type Nav struct {
	PrevEnabled bool
	NextEnabled bool
	Message     string
}

// browser is the ascending list of a session and its cursor.
type browser[T any] struct {
	noun  string
	idOf  func(T) string
	items []T
	cur   int
	nav   Nav
}

func newBrowser[T any](noun string, idOf func(T) string) browser[T] {
	return browser[T]{noun: noun, idOf: idOf, cur: -1, nav: Nav{PrevEnabled: true, NextEnabled: true}}
}

// reset replaces the list and keeps the cursor on keepID when present.
func (b *browser[T]) reset(items []T, keepID string) {
	b.items = items
	b.cur = b.indexOf(keepID)
	b.nav = Nav{PrevEnabled: true, NextEnabled: true}
}

func (b *browser[T]) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(b.items, func(it T) bool { return b.idOf(it) == id })
}

func (b *browser[T]) selectID(id string) error {
	i := b.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, b.noun, id)
	}
	b.cur = i
	b.nav = Nav{PrevEnabled: true, NextEnabled: true}
	return nil
}

func (b *browser[T]) current() (T, bool) {
	if b.cur < 0 || b.cur >= len(b.items) {
		var zero T
		return zero, false
	}
	return b.items[b.cur], true
}

func (b *browser[T]) currentID() string {
	if it, ok := b.current(); ok {
		return b.idOf(it)
	}
	return ""
}

// step moves the cursor by delta (-1 or +1). Stepping off either end
// leaves the cursor in place, disables that control and sets a message;
// a successful step enables both controls and clears it.
func (b *browser[T]) step(delta int) bool {
	next := b.cur + delta
	if b.cur < 0 || next < 0 || next >= len(b.items) {
		if delta < 0 {
			b.nav.PrevEnabled = false
			b.nav.Message = fmt.Sprintf("No more previous %ss exist!", b.noun)
		} else {
			b.nav.NextEnabled = false
			b.nav.Message = fmt.Sprintf("No more following %ss exist!", b.noun)
		}
		return false
	}
	b.cur = next
	b.nav = Nav{PrevEnabled: true, NextEnabled: true}
	return true
}
