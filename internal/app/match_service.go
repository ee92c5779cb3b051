package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"trivia-match-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultReclaimAfter = 30 * time.Second

// Options tunes a MatchService. Zero values fall back to defaults.
type Options struct {
	Clock        clockwork.Clock
	Defaults     SessionConfig
	ReclaimAfter time.Duration
	Sinks        []EventSink
	NewID        func() string
	// Shuffle permutes question order; defaults to math/rand/v2.
	Shuffle      func(n int, swap func(i, j int))
}

// MatchService contains the match use cases: the room directory, player
// actions and event subscriptions.
type MatchService struct {
	registry  Registry
	questions QuestionRepository
	hub       *Broadcaster
	clock     clockwork.Clock
	defaults  SessionConfig
	reclaim   time.Duration
	sinks     []EventSink
	newID     func() string
	shuffle   func(n int, swap func(i, j int))
}

func NewMatchService(registry Registry, questions QuestionRepository, opts Options) *MatchService {
	s := &MatchService{
		registry:  registry,
		questions: questions,
		hub:       NewBroadcaster(),
		clock:     opts.Clock,
		defaults:  opts.Defaults.WithDefaults(),
		reclaim:   opts.ReclaimAfter,
		sinks:     opts.Sinks,
		newID:     opts.NewID,
		shuffle:   opts.Shuffle,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.reclaim <= 0 {
		s.reclaim = DefaultReclaimAfter
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.shuffle == nil {
		s.shuffle = rand.Shuffle
	}
	return s
}

// CreateRoom registers a new session in Waiting. Unset fields of cfg are
// taken from the service defaults. The question set must exist.
func (s *MatchService) CreateRoom(ctx context.Context, cfg SessionConfig) (domain.RoomSummary, error) {
	cfg = s.merge(cfg)
	if _, err := s.questions.GetQuestionSet(ctx, cfg.QuestionSetID); err != nil {
		return domain.RoomSummary{}, fmt.Errorf("create room: %w", err)
	}

	o := NewOrchestrator(cfg, s.clock, s.emitterFor())
	if err := s.registry.Create(o); err != nil {
		return domain.RoomSummary{}, err
	}
	log.Info().
		Str("session_id", cfg.ID).
		Str("question_set", cfg.QuestionSetID).
		Int("capacity", cfg.Capacity).
		Msg("room created")
	return o.Summary(), nil
}

// ListRooms returns the room directory ordered by name.
func (s *MatchService) ListRooms(waitingOnly bool) []domain.RoomSummary {
	rooms := make([]domain.RoomSummary, 0)
	for _, o := range s.registry.List() {
		summary := o.Summary()
		if waitingOnly && (summary.State != domain.StateWaiting || summary.Paused || summary.Full) {
			continue
		}
		rooms = append(rooms, summary)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].SessionID < rooms[j].SessionID
	})
	return rooms
}

// Stats counts rooms by phase. A paused match counts as active.
func (s *MatchService) Stats() domain.Stats {
	var stats domain.Stats
	for _, o := range s.registry.List() {
		summary := o.Summary()
		switch {
		case summary.State == domain.StateGameEnded:
			stats.Ended++
		case summary.State == domain.StateWaiting && !summary.Paused:
			stats.Waiting++
		default:
			stats.Active++
		}
	}
	return stats
}

func (s *MatchService) Snapshot(sessionID string) (domain.SessionSnapshot, error) {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return s.snapshot(o), nil
}

func (s *MatchService) Join(_ context.Context, sessionID, playerID, displayName string) (domain.SessionSnapshot, error) {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if err := o.Join(domain.Player{ID: playerID, DisplayName: displayName}); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return s.snapshot(o), nil
}

func (s *MatchService) snapshot(o *Orchestrator) domain.SessionSnapshot {
	snap := o.Snapshot()
	snap.Connections = s.hub.Subscribers(o.ID())
	return snap
}

// Leave removes the player and drops the room if its lobby is now empty.
func (s *MatchService) Leave(_ context.Context, sessionID, playerID string) error {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return err
	}
	if err := o.Leave(playerID); err != nil {
		return err
	}
	if o.IsEmptyLobby() {
		s.drop(o)
	}
	return nil
}

// Start loads the room's question set, picks the questions for this game and
// displays the first one.
func (s *MatchService) Start(ctx context.Context, sessionID string) error {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return err
	}
	cfg := o.Config()
	set, err := s.questions.GetQuestionSet(ctx, cfg.QuestionSetID)
	if err != nil {
		return fmt.Errorf("start %s: %w", sessionID, err)
	}
	return o.Start(s.pick(set.Questions, cfg.QuestionsPerGame, cfg.ShuffleQuestions()))
}

func (s *MatchService) SubmitAnswer(_ context.Context, sessionID, playerID, value string) error {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return err
	}
	return o.SubmitAnswer(playerID, value)
}

func (s *MatchService) Pause(_ context.Context, sessionID string) error {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return err
	}
	return o.Pause()
}

func (s *MatchService) Resume(_ context.Context, sessionID string) error {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return err
	}
	return o.Resume()
}

// Dispatch routes an inbound action to its use case.
func (s *MatchService) Dispatch(ctx context.Context, sessionID string, action domain.Action) error {
	switch action.Kind {
	case domain.ActionJoin:
		_, err := s.Join(ctx, sessionID, action.PlayerID, action.DisplayName)
		return err
	case domain.ActionLeave:
		return s.Leave(ctx, sessionID, action.PlayerID)
	case domain.ActionStart:
		return s.Start(ctx, sessionID)
	case domain.ActionSubmitAnswer:
		return s.SubmitAnswer(ctx, sessionID, action.PlayerID, action.Value)
	case domain.ActionPause:
		return s.Pause(ctx, sessionID)
	case domain.ActionResume:
		return s.Resume(ctx, sessionID)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Kind)
	}
}

// ErrUnsupportedAction is returned by Dispatch for an unknown action kind.
var ErrUnsupportedAction = errors.New("unsupported action")

// Subscribe returns a channel of the session's events. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *MatchService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	if _, err := s.registry.Lookup(sessionID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(sessionID)
	return ch, cancel, nil
}

func (s *MatchService) merge(cfg SessionConfig) SessionConfig {
	d := s.defaults
	if cfg.ID == "" {
		cfg.ID = s.newID()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = d.Capacity
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = d.TimeBudget
	}
	if cfg.ResultsDelay <= 0 {
		cfg.ResultsDelay = d.ResultsDelay
	}
	if cfg.QuestionSetID == "" {
		cfg.QuestionSetID = d.QuestionSetID
	}
	if cfg.QuestionsPerGame <= 0 {
		cfg.QuestionsPerGame = d.QuestionsPerGame
	}
	if cfg.Shuffle == nil {
		cfg.Shuffle = d.Shuffle
	}
	return cfg.WithDefaults()
}

// pick copies the set, optionally shuffles it and keeps the first n.
func (s *MatchService) pick(questions []domain.Question, n int, shuffle bool) []domain.Question {
	out := append([]domain.Question(nil), questions...)
	if shuffle {
		s.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *MatchService) emitterFor() Emitter {
	return serviceEmitter{s}
}

type serviceEmitter struct {
	s *MatchService
}

// Emit runs under the orchestrator lock: reclaim is deferred to a timer.
func (e serviceEmitter) Emit(evt domain.Event) {
	s := e.s
	if evt.Type == domain.EventGameOver {
		sessionID := evt.SessionID
		s.clock.AfterFunc(s.reclaim, func() { s.reclaimSession(sessionID) })
	}
	s.hub.Emit(evt)
	for _, sink := range s.sinks {
		if err := sink.Publish(evt); err != nil {
			log.Error().Err(err).
				Str("session_id", evt.SessionID).
				Str("event", string(evt.Type)).
				Msg("event sink publish failed")
		}
	}
}

func (s *MatchService) reclaimSession(sessionID string) {
	o, err := s.registry.Lookup(sessionID)
	if err != nil {
		return
	}
	log.Info().Str("session_id", sessionID).Msg("reclaiming ended session")
	s.drop(o)
}

func (s *MatchService) drop(o *Orchestrator) {
	o.Close()
	s.registry.Remove(o.ID())
	s.hub.CloseSession(o.ID())
}
