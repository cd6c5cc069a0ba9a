// Package sessioncache keeps the per-session copy of a user's capability
// flag so GET /user does not hit the database on every page load.
package sessioncache

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

type Cache interface {
	// Get reports false when nothing is cached for userID.
	Get(ctx context.Context, userID string) (mood.Capability, bool, error)
	Set(ctx context.Context, userID string, c mood.Capability) error
}

// Memory is an in-process Cache used when Redis is not configured.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryItem
}

type memoryItem struct {
	value   mood.Capability
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, items: make(map[string]memoryItem)}
}

func (m *Memory) Get(_ context.Context, userID string) (mood.Capability, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[userID]
	if !ok {
		return "", false, nil
	}
	if m.ttl > 0 && m.now().After(it.expires) {
		delete(m.items, userID)
		return "", false, nil
	}
	return it.value, true, nil
}

func (m *Memory) Set(_ context.Context, userID string, c mood.Capability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[userID] = memoryItem{value: c, expires: m.now().Add(m.ttl)}
	return nil
}
