package http

import (
	"sync"

	"github.com/mauv0809/crispy-fiesta/internal/syncer"
)

// sessionRegistry holds one live session engine per user. Dropping an engine
// closes it first, so a remount starts from a fresh full load and events are
// never double-delivered to a stale engine.
type sessionRegistry struct {
	mu      sync.Mutex
	engines map[string]*syncer.Engine
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{engines: make(map[string]*syncer.Engine)}
}

// getOrCreate returns the user's engine, building and loading a new one when
// none exists. Creation happens under the lock so two concurrent requests for
// the same user cannot race into two engines.
func (r *sessionRegistry) getOrCreate(userID string, create func() (*syncer.Engine, error)) (*syncer.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[userID]; ok {
		return e, nil
	}
	e, err := create()
	if err != nil {
		return nil, err
	}
	r.engines[userID] = e
	return e, nil
}

func (r *sessionRegistry) get(userID string) (*syncer.Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[userID]
	return e, ok
}

func (r *sessionRegistry) drop(userID string) {
	r.mu.Lock()
	e, ok := r.engines[userID]
	delete(r.engines, userID)
	r.mu.Unlock()
	if ok {
		e.Close()
	}
}

// each calls fn for every live engine outside the registry lock.
func (r *sessionRegistry) each(fn func(*syncer.Engine)) {
	r.mu.Lock()
	engines := make([]*syncer.Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.Unlock()

	for _, e := range engines {
		fn(e)
	}
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]*syncer.Engine)
	r.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
}
