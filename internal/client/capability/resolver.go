package capability

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/moodkeeper/internal/client/inference"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// Detector is satisfied by *Probe.
type Detector interface {
	Detect(ctx context.Context) (mood.Capability, *inference.Engine)
}

// Remote is the server-side copy of the flag.
type Remote interface {
	Capability(ctx context.Context) (mood.Capability, error)
	ResolveCapability(ctx context.Context, next mood.Capability) (mood.Capability, error)
}

// Cache is the local copy of the flag, keyed by user.
type Cache interface {
	Capability(ctx context.Context, userID string) (mood.Capability, error)
	SetCapability(ctx context.Context, userID string, c mood.Capability) error
}

// Resolver owns the capability flag for the signed-in user and the engine
// used when it is supported.
type Resolver struct {
	probe    Detector
	remote   Remote
	cache    Cache
	backends []inference.Backend
	models   inference.ModelSource
	logger   logging.Logger

	mu     sync.Mutex
	flag   mood.Capability
	engine *inference.Engine
}

func NewResolver(probe Detector, remote Remote, cache Cache, backends []inference.Backend, models inference.ModelSource, logger logging.Logger) *Resolver {
	return &Resolver{
		probe:    probe,
		remote:   remote,
		cache:    cache,
		backends: backends,
		models:   models,
		logger:   logger.With("module", "capability"),
		flag:     mood.CapabilityUntested,
	}
}

// Ensure returns the resolved flag for userID. The probe runs only when
// neither the local cache nor the server has a verdict. The verdict is
// written to the server once and then cached locally.
func (r *Resolver) Ensure(ctx context.Context, userID string) (mood.Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.flag.Resolved() {
		return r.flag, nil
	}

	if c, err := r.cache.Capability(ctx, userID); err != nil {
		r.logger.Warn(ctx, "local capability read failed", "error", err)
	} else if c.Resolved() {
		r.flag = c
		return c, nil
	}

	c, err := r.remote.Capability(ctx)
	if err != nil {
		return mood.CapabilityUntested, err
	}
	if !c.Resolved() {
		verdict, engine := r.probe.Detect(ctx)
		r.engine = engine

		c, err = r.remote.ResolveCapability(ctx, verdict)
		if errors.Is(err, common.ErrAlreadyResolved) {
			// Another device resolved first; its verdict stands.
			c, err = r.remote.Capability(ctx)
		}
		if err != nil {
			r.logger.Error(ctx, "capability not persisted", "verdict", verdict, "error", err)
			return mood.CapabilityUntested, err
		}
		if c != verdict {
			r.engine = nil
		}
	}

	if err := r.cache.SetCapability(ctx, userID, c); err != nil {
		r.logger.Warn(ctx, "local capability write failed", "error", err)
	}
	r.flag = c
	r.logger.Info(ctx, "capability resolved", "capability", c)
	return c, nil
}

// Current returns the flag without resolving it.
func (r *Resolver) Current() mood.Capability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flag
}

// Engine returns the engine for local inference, loading one when the
// verdict came from the cache rather than from this process's probe.
func (r *Resolver) Engine(ctx context.Context) (*inference.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		return r.engine, nil
	}
	e, err := LoadFirst(ctx, r.backends, r.models)
	if err != nil {
		return nil, err
	}
	r.engine = e
	return e, nil
}

// Reset forgets the in-memory flag, e.g. after a different user signs in.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flag = mood.CapabilityUntested
}
