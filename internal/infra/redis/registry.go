package redis

import (
	"context"
	"sync"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	roomsKey = "trivia:rooms"

	markerQueueSize = 256
	markerTimeout   = 2 * time.Second
)

type markerKind int

const (
	markerAnnounce markerKind = iota
	markerTouch
	markerRetire
)

type marker struct {
	kind      markerKind
	sessionID string
	name      string
}

// Registry is a Redis-aware implementation of app.Registry.
// Orchestrators stay in a local map; Redis only carries a liveness key per
// session plus the set of room ids, so operators can see which rooms this
// process hosts.
//
// Redis writes are queued to a single background worker and never run on the
// caller's goroutine. A full queue drops the write.
type Registry struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Orchestrator

	markers   chan marker
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(client *redis.Client, ttl time.Duration) *Registry {
	r := &Registry{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Orchestrator),
		markers:  make(chan marker, markerQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) Create(o *app.Orchestrator) error {
	r.mu.Lock()
	if _, ok := r.sessions[o.ID()]; ok {
		r.mu.Unlock()
		return domain.ErrSessionExists
	}
	r.sessions[o.ID()] = o
	r.mu.Unlock()

	r.enqueue(marker{kind: markerAnnounce, sessionID: o.ID(), name: o.Config().Name})
	return nil
}

// Lookup also schedules a refresh of the session's liveness key.
func (r *Registry) Lookup(sessionID string) (*app.Orchestrator, error) {
	r.mu.RLock()
	o, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if r.ttl > 0 {
		r.enqueue(marker{kind: markerTouch, sessionID: sessionID})
	}
	return o, nil
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if ok {
		r.enqueue(marker{kind: markerRetire, sessionID: sessionID})
	}
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

// Announced returns the room ids recorded in Redis.
func (r *Registry) Announced(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, roomsKey).Result()
}

// Close stops the marker worker after it drains what is already queued.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Registry) enqueue(m marker) {
	select {
	case r.markers <- m:
	default:
		log.Warn().Str("session_id", m.sessionID).Msg("redis marker queue full, dropping write")
	}
}

func (r *Registry) run() {
	defer close(r.done)
	for {
		select {
		case m := <-r.markers:
			r.apply(m)
		case <-r.stop:
			for {
				select {
				case m := <-r.markers:
					r.apply(m)
				default:
					return
				}
			}
		}
	}
}

func (r *Registry) apply(m marker) {
	ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
	defer cancel()

	var err error
	switch m.kind {
	case markerAnnounce:
		pipe := r.client.Pipeline()
		pipe.Set(ctx, sessionKey(m.sessionID), m.name, r.ttl)
		pipe.SAdd(ctx, roomsKey, m.sessionID)
		_, err = pipe.Exec(ctx)
	case markerTouch:
		err = r.client.Expire(ctx, sessionKey(m.sessionID), r.ttl).Err()
	case markerRetire:
		pipe := r.client.Pipeline()
		pipe.Del(ctx, sessionKey(m.sessionID))
		pipe.SRem(ctx, roomsKey, m.sessionID)
		_, err = pipe.Exec(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Str("session_id", m.sessionID).Msg("redis liveness marker failed")
	}
}

func sessionKey(sessionID string) string {
	return "trivia:session:" + sessionID
}
