package memory

import (
	"sync"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// Registry is an in-memory implementation of app.Registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Orchestrator
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*app.Orchestrator),
	}
}

func (r *Registry) Create(o *app.Orchestrator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[o.ID()]; ok {
		return domain.ErrSessionExists
	}
	r.sessions[o.ID()] = o
	return nil
}

func (r *Registry) Lookup(sessionID string) (*app.Orchestrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return o, nil
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) List() []*app.Orchestrator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*app.Orchestrator, 0, len(r.sessions))
	for _, o := range r.sessions {
		out = append(out, o)
	}
	return out
}
