package app

import (
	"sync"
	"time"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/scoring"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCapacity         = 6
	DefaultTimeBudget       = 30 * time.Second
	DefaultResultsDelay     = 3 * time.Second
	DefaultQuestionsPerGame = 10
	minPlayers              = 2
)

// Emitter receives every event a match produces, in order. Emit is called
// while the session is locked and must not block or call back into it.
type Emitter interface {
	Emit(evt domain.Event)
}

// SessionConfig is fixed when a session is created.
type SessionConfig struct {
	ID               string
	Name             string
	Capacity         int
	TimeBudget       time.Duration
	ResultsDelay     time.Duration
	QuestionSetID    string
	QuestionsPerGame int
	// Shuffle left nil takes the service default.
	Shuffle          *bool
}

// WithDefaults fills unset fields with the package defaults.
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = DefaultTimeBudget
	}
	if c.ResultsDelay <= 0 {
		c.ResultsDelay = DefaultResultsDelay
	}
	if c.QuestionsPerGame <= 0 {
		c.QuestionsPerGame = DefaultQuestionsPerGame
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	return c
}

// ShuffleQuestions reports whether question order is randomized at start.
func (c SessionConfig) ShuffleQuestions() bool {
	return c.Shuffle != nil && *c.Shuffle
}

// Orchestrator drives one session through its lifecycle. A single mutex
// serializes player actions and timer callbacks.
type Orchestrator struct {
	mu      sync.Mutex
	cfg     SessionConfig
	state   *SessionState
	clock   *RoundClock
	emitter Emitter

	seq     uint64
	paused  bool
	forced  bool
	closed  bool
	ranking []domain.RankingEntry
}

// NewOrchestrator creates a session in Waiting with an empty roster.
func NewOrchestrator(cfg SessionConfig, clock clockwork.Clock, emitter Emitter) *Orchestrator {
	cfg = cfg.WithDefaults()
	return &Orchestrator{
		cfg:     cfg,
		state:   newSessionState(cfg),
		clock:   NewRoundClock(clock),
		emitter: emitter,
	}
}

func (o *Orchestrator) ID() string {
	return o.cfg.ID
}

func (o *Orchestrator) Config() SessionConfig {
	return o.cfg
}

// Join adds a player while the room is in the lobby. Joining again with the
// same id only refreshes the display name.
func (o *Orchestrator) Join(player domain.Player) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.State != domain.StateWaiting || o.paused {
		return domain.ErrInvalidState
	}
	rejoin := o.state.hasPlayer(player.ID)
	if player.JoinedAt.IsZero() {
		player.JoinedAt = o.clock.Now()
	}
	if err := o.state.addPlayer(player); err != nil {
		return err
	}
	if rejoin {
		return nil
	}

	log.Info().
		Str("session_id", o.cfg.ID).
		Str("player_id", player.ID).
		Int("players", o.state.rosterSize()).
		Msg("player joined")
	o.emitLocked(domain.EventPlayerJoined, domain.PlayerJoined{
		Player:   player,
		Players:  o.state.rosterSize(),
		Capacity: o.state.Capacity,
	})
	return nil
}

// Leave removes a player in any state. Dropping below two players while a
// round is live discards that round and ends the match.
func (o *Orchestrator) Leave(playerID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.removePlayer(playerID) {
		return domain.ErrUnknownPlayer
	}
	log.Info().
		Str("session_id", o.cfg.ID).
		Str("player_id", playerID).
		Str("state", string(o.state.State)).
		Int("players", o.state.rosterSize()).
		Msg("player left")
	o.emitLocked(domain.EventPlayerLeft, domain.PlayerLeft{
		PlayerID: playerID,
		Players:  o.state.rosterSize(),
	})

	if !o.state.State.Live() {
		return nil
	}
	if o.state.rosterSize() < minPlayers {
		log.Warn().
			Str("session_id", o.cfg.ID).
			Int("question", o.state.Index).
			Msg("too few players remaining, ending match")
		o.state.discardAnswers()
		o.endGameLocked(true)
		return nil
	}
	if n := o.state.answeredCount(); n > 0 && n == o.state.rosterSize() {
		o.endRoundLocked()
	}
	return nil
}

// Start freezes the question list and displays the first question.
func (o *Orchestrator) Start(questions []domain.Question) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state.State == domain.StateGameEnded:
		return domain.ErrGameAlreadyEnded
	case o.state.State != domain.StateWaiting || o.paused:
		return domain.ErrInvalidState
	case o.state.rosterSize() < minPlayers:
		return domain.ErrNotEnoughPlayers
	case len(questions) == 0:
		return domain.ErrNoQuestions
	}

	o.state.freeze(questions)
	o.state.State = domain.StateStarting
	log.Info().
		Str("session_id", o.cfg.ID).
		Int("players", o.state.rosterSize()).
		Int("questions", len(questions)).
		Msg("match starting")
	o.displayLocked()
	return nil
}

// SubmitAnswer records a player's answer for the current question.
func (o *Orchestrator) SubmitAnswer(playerID, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state.State == domain.StateGameEnded:
		return domain.ErrGameAlreadyEnded
	case !o.state.State.Live():
		return domain.ErrNotAcceptingAnswers
	case o.state.hasAnswered(playerID):
		return domain.ErrDuplicateAnswer
	case !o.state.hasPlayer(playerID):
		return domain.ErrUnknownPlayer
	}

	question, _ := o.state.currentQuestion()
	now := o.clock.Now()
	answer := &domain.Answer{
		PlayerID:    playerID,
		QuestionID:  question.ID,
		Value:       value,
		Correct:     question.IsCorrect(value),
		Latency:     now.Sub(o.state.DisplayedAt),
		SubmittedAt: now,
	}
	if err := o.state.recordAnswer(answer); err != nil {
		return err
	}
	o.state.State = domain.StateWaitingForAnswers

	if o.state.answeredCount() == o.state.rosterSize() {
		o.endRoundLocked()
	}
	return nil
}

// Pause cancels the deadline of a displayed question and returns to Waiting.
// Scores and the question index are kept.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state.State {
	case domain.StateGameEnded:
		return domain.ErrGameAlreadyEnded
	case domain.StateQuestionDisplayed:
	default:
		return domain.ErrInvalidState
	}

	o.clock.Cancel()
	o.state.State = domain.StateWaiting
	o.paused = true
	log.Info().Str("session_id", o.cfg.ID).Int("question", o.state.Index).Msg("match paused")
	o.emitLocked(domain.EventMatchPaused, domain.MatchPaused{Index: o.state.Index})
	return nil
}

// Resume re-displays the current question with a fresh time budget.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.State == domain.StateGameEnded {
		return domain.ErrGameAlreadyEnded
	}
	if o.state.State != domain.StateWaiting || !o.paused {
		return domain.ErrInvalidState
	}
	o.paused = false
	log.Info().Str("session_id", o.cfg.ID).Int("question", o.state.Index).Msg("match resumed")
	o.displayLocked()
	return nil
}

// Close cancels outstanding timers. Callbacks already in flight become no-ops.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clock.Cancel()
	o.closed = true
}

// State returns the lifecycle state.
func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.State
}

// Ranking returns the final ranking once the match ended, the live
// standings otherwise.
func (o *Orchestrator) Ranking() []domain.RankingEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ranking != nil {
		return append([]domain.RankingEntry(nil), o.ranking...)
	}
	return rank(o.state.players(), o.state.scores)
}

// Snapshot is a consistent copy of the session.
func (o *Orchestrator) Snapshot() domain.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := domain.SessionSnapshot{
		SessionID:     o.cfg.ID,
		Name:          o.cfg.Name,
		State:         o.state.State,
		Paused:        o.paused,
		QuestionIndex: o.state.Index,
		Total:         len(o.state.Questions),
		Capacity:      o.state.Capacity,
		TimeBudgetMs:  o.state.TimeBudget.Milliseconds(),
		Players:       o.state.players(),
		Scores:        o.state.scoresCopy(),
		Answered:      o.state.answeredCount(),
		Forced:        o.forced,
	}
	if o.ranking != nil {
		snap.Ranking = append([]domain.RankingEntry(nil), o.ranking...)
	}
	return snap
}

// Summary describes the room for the lobby directory.
func (o *Orchestrator) Summary() domain.RoomSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return domain.RoomSummary{
		SessionID: o.cfg.ID,
		Name:      o.cfg.Name,
		Players:   o.state.rosterSize(),
		Capacity:  o.state.Capacity,
		State:     o.state.State,
		Paused:    o.paused,
		Full:      o.state.rosterSize() >= o.state.Capacity,
	}
}

// IsEmptyLobby reports a room nobody is waiting in that never started.
func (o *Orchestrator) IsEmptyLobby() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.State == domain.StateWaiting && !o.paused && o.state.rosterSize() == 0
}

func (o *Orchestrator) displayLocked() {
	if o.state.Index >= len(o.state.Questions) {
		o.endGameLocked(false)
		return
	}
	if o.state.rosterSize() < minPlayers {
		log.Warn().Str("session_id", o.cfg.ID).Msg("too few players to display next question")
		o.endGameLocked(true)
		return
	}

	question, _ := o.state.currentQuestion()
	o.state.resetRound(o.clock.Now())
	o.state.State = domain.StateQuestionDisplayed
	o.clock.Arm(TimerDeadline, o.state.TimeBudget, o.onDeadline)

	log.Info().
		Str("session_id", o.cfg.ID).
		Int("question", o.state.Index).
		Int("total", len(o.state.Questions)).
		Msg("question displayed")
	o.emitLocked(domain.EventQuestionShown, domain.QuestionShown{
		Index:        o.state.Index,
		Total:        len(o.state.Questions),
		QuestionID:   question.ID,
		Prompt:       question.Prompt,
		Options:      append([]string(nil), question.Options...),
		Category:     question.Category,
		Difficulty:   question.Difficulty,
		TimeBudgetMs: o.state.TimeBudget.Milliseconds(),
		MaxPoints:    scoring.MaxScore(question.Difficulty),
	})
}

func (o *Orchestrator) onDeadline(ticket uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.clock.Claim(ticket, TimerDeadline) || !o.state.State.Live() {
		log.Debug().Str("session_id", o.cfg.ID).Uint64("ticket", ticket).Msg("stale deadline ignored")
		return
	}
	log.Info().Str("session_id", o.cfg.ID).Int("question", o.state.Index).Msg("time is up")
	o.endRoundLocked()
}

// endRoundLocked scores the current round. It runs at most once per question
// whether triggered by the deadline, full participation or a leave.
func (o *Orchestrator) endRoundLocked() {
	if !o.state.State.Live() {
		return
	}
	o.clock.Cancel()

	question, _ := o.state.currentQuestion()
	result := domain.RoundResult{
		Index:                    o.state.Index,
		QuestionID:               question.ID,
		PerPlayerCorrectness:     make(map[string]bool, o.state.rosterSize()),
		PerPlayerPointsThisRound: make(map[string]int, o.state.rosterSize()),
		RevealedCorrectAnswer:    question.Answer,
	}
	for _, p := range o.state.players() {
		outcome := domain.PlayerOutcome{PlayerID: p.ID}
		if a, ok := o.state.answers[p.ID]; ok {
			if a.Correct {
				a.Points = scoring.Score(a.Latency, o.state.TimeBudget, question.Difficulty)
				o.state.addScore(p.ID, a.Points)
			}
			outcome.Answered = true
			outcome.Value = a.Value
			outcome.Correct = a.Correct
			outcome.Points = a.Points
			outcome.LatencyMs = a.Latency.Milliseconds()
		}
		result.PerPlayerCorrectness[p.ID] = outcome.Correct
		result.PerPlayerPointsThisRound[p.ID] = outcome.Points
		result.Outcomes = append(result.Outcomes, outcome)
	}
	result.CumulativeScores = o.state.scoresCopy()

	o.state.State = domain.StateRoundComplete
	o.clock.Arm(TimerResults, o.cfg.ResultsDelay, o.onResultsElapsed)

	log.Info().
		Str("session_id", o.cfg.ID).
		Int("question", o.state.Index).
		Int("answers", o.state.answeredCount()).
		Msg("round complete")
	o.emitLocked(domain.EventRoundResult, result)
}

func (o *Orchestrator) onResultsElapsed(ticket uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.clock.Claim(ticket, TimerResults) || o.state.State != domain.StateRoundComplete {
		log.Debug().Str("session_id", o.cfg.ID).Uint64("ticket", ticket).Msg("stale results timer ignored")
		return
	}
	o.state.Index++
	o.displayLocked()
}

func (o *Orchestrator) endGameLocked(forced bool) {
	o.clock.Cancel()
	o.state.State = domain.StateGameEnded
	o.forced = forced
	o.ranking = rank(o.state.players(), o.state.scores)

	played := o.state.Index
	if !forced {
		played = len(o.state.Questions)
	}
	log.Info().
		Str("session_id", o.cfg.ID).
		Bool("forced", forced).
		Int("questions_played", played).
		Msg("match ended")
	o.emitLocked(domain.EventGameOver, domain.GameOver{
		FinalScoresByPlayer: o.state.scoresCopy(),
		Ranking:             append([]domain.RankingEntry(nil), o.ranking...),
		QuestionsPlayed:     played,
		TotalQuestions:      len(o.state.Questions),
		Forced:              forced,
	})
}

func (o *Orchestrator) emitLocked(eventType domain.EventType, payload any) {
	if o.emitter == nil {
		return
	}
	o.seq++
	o.emitter.Emit(domain.Event{
		Type:       eventType,
		SessionID:  o.cfg.ID,
		Sequence:   o.seq,
		OccurredAt: o.clock.Now(),
		Payload:    payload,
	})
}
