package app

import (
	"time"

	"trivia-match-service/internal/domain"
)

// SessionState is the data held for one match. It carries no lock of its own;
// every access goes through the owning Orchestrator.
type SessionState struct {
	ID         string
	Name       string
	Capacity   int
	TimeBudget time.Duration

	State       domain.State
	Questions   []domain.Question
	Index       int
	DisplayedAt time.Time

	roster  map[string]domain.Player
	order   []string
	scores  map[string]int
	answers map[string]*domain.Answer
}

func newSessionState(cfg SessionConfig) *SessionState {
	return &SessionState{
		ID:         cfg.ID,
		Name:       cfg.Name,
		Capacity:   cfg.Capacity,
		TimeBudget: cfg.TimeBudget,
		State:      domain.StateWaiting,
		roster:     make(map[string]domain.Player),
		scores:     make(map[string]int),
		answers:    make(map[string]*domain.Answer),
	}
}

func (s *SessionState) addPlayer(p domain.Player) error {
	if _, ok := s.roster[p.ID]; ok {
		s.roster[p.ID] = p
		return nil
	}
	if len(s.roster) >= s.Capacity {
		return domain.ErrRoomFull
	}
	s.roster[p.ID] = p
	s.order = append(s.order, p.ID)
	s.scores[p.ID] = 0
	return nil
}

// removePlayer drops the player, their score and any pending answer.
func (s *SessionState) removePlayer(playerID string) bool {
	if _, ok := s.roster[playerID]; !ok {
		return false
	}
	delete(s.roster, playerID)
	delete(s.scores, playerID)
	delete(s.answers, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *SessionState) hasPlayer(playerID string) bool {
	_, ok := s.roster[playerID]
	return ok
}

func (s *SessionState) rosterSize() int {
	return len(s.roster)
}

// players returns the roster in join order.
func (s *SessionState) players() []domain.Player {
	out := make([]domain.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.roster[id])
	}
	return out
}

func (s *SessionState) freeze(questions []domain.Question) {
	s.Questions = append([]domain.Question(nil), questions...)
	s.Index = 0
}

func (s *SessionState) currentQuestion() (domain.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Index], true
}

func (s *SessionState) resetRound(now time.Time) {
	s.answers = make(map[string]*domain.Answer)
	s.DisplayedAt = now
}

func (s *SessionState) hasAnswered(playerID string) bool {
	_, ok := s.answers[playerID]
	return ok
}

func (s *SessionState) recordAnswer(a *domain.Answer) error {
	if s.hasAnswered(a.PlayerID) {
		return domain.ErrDuplicateAnswer
	}
	s.answers[a.PlayerID] = a
	return nil
}

func (s *SessionState) answeredCount() int {
	return len(s.answers)
}

func (s *SessionState) discardAnswers() {
	s.answers = make(map[string]*domain.Answer)
}

// addScore keeps totals non-decreasing; players who left are ignored.
func (s *SessionState) addScore(playerID string, points int) {
	if points <= 0 {
		return
	}
	if _, ok := s.scores[playerID]; ok {
		s.scores[playerID] += points
	}
}

func (s *SessionState) scoresCopy() map[string]int {
	out := make(map[string]int, len(s.scores))
	for id, score := range s.scores {
		out[id] = score
	}
	return out
}
