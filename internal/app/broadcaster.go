package app

import (
	"sync"

	"trivia-match-service/internal/domain"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 64

// Broadcaster fans session events out to local subscribers. A subscriber
// whose buffer is full is disconnected rather than silently skipped, so a
// connected client never observes a gap in the event sequence.
type Broadcaster struct {
	mu       sync.Mutex
	sessions map[string]map[chan domain.Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sessions: make(map[string]map[chan domain.Event]struct{})}
}

// Subscribe returns a channel of events for the session. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)

	b.mu.Lock()
	subs, ok := b.sessions[sessionID]
	if !ok {
		subs = make(map[chan domain.Event]struct{})
		b.sessions[sessionID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.dropLocked(sessionID, ch)
	}
	return ch, cancel
}

// Emit never blocks.
func (b *Broadcaster) Emit(evt domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.sessions[evt.SessionID] {
		select {
		case ch <- evt:
		default:
			log.Warn().
				Str("session_id", evt.SessionID).
				Uint64("sequence", evt.Sequence).
				Msg("subscriber too slow, disconnecting")
			b.dropLocked(evt.SessionID, ch)
		}
	}
}

// CloseSession disconnects every subscriber of the session.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.sessions[sessionID] {
		close(ch)
	}
	delete(b.sessions, sessionID)
}

// Subscribers counts the open subscriptions of a session.
func (b *Broadcaster) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

func (b *Broadcaster) dropLocked(sessionID string, ch chan domain.Event) {
	subs, ok := b.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.sessions, sessionID)
	}
}
