package domain

import "time"

// EventType names an outbound event.
type EventType string

const (
	EventQuestionShown EventType = "questionShown"
	EventRoundResult   EventType = "roundResult"
	EventGameOver      EventType = "gameOver"
	EventRejected      EventType = "rejected"
	EventPlayerJoined  EventType = "playerJoined"
	EventPlayerLeft    EventType = "playerLeft"
	EventMatchPaused   EventType = "matchPaused"
)

// Event is the envelope for everything a match emits. Sequence is strictly
// increasing per session and reflects the order the state machine produced it.
type Event struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"sessionId"`
	Sequence   uint64    `json:"sequence"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// QuestionShown never carries the correct answer.
type QuestionShown struct {
	Index        int        `json:"index"`
	Total        int        `json:"total"`
	QuestionID   string     `json:"questionId"`
	Prompt       string     `json:"prompt"`
	Options      []string   `json:"options"`
	Category     string     `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	TimeBudgetMs int64      `json:"timeBudgetMs"`
	MaxPoints    int        `json:"maxPoints"`
}

// PlayerOutcome is one player's result for a round.
type PlayerOutcome struct {
	PlayerID  string `json:"playerId"`
	Answered  bool   `json:"answered"`
	Value     string `json:"value,omitempty"`
	Correct   bool   `json:"correct"`
	Points    int    `json:"points"`
	LatencyMs int64  `json:"latencyMs"`
}

// RoundResult reveals the correct answer and the updated scores.
type RoundResult struct {
	Index                    int             `json:"index"`
	QuestionID               string          `json:"questionId"`
	PerPlayerCorrectness     map[string]bool `json:"perPlayerCorrectness"`
	PerPlayerPointsThisRound map[string]int  `json:"perPlayerPointsThisRound"`
	CumulativeScores         map[string]int  `json:"cumulativeScores"`
	RevealedCorrectAnswer    string          `json:"revealedCorrectAnswer"`
	Outcomes                 []PlayerOutcome `json:"outcomes"`
}

// GameOver carries the final standings.
type GameOver struct {
	FinalScoresByPlayer map[string]int `json:"finalScoresByPlayer"`
	Ranking             []RankingEntry `json:"ranking"`
	QuestionsPlayed     int            `json:"questionsPlayed"`
	TotalQuestions      int            `json:"totalQuestions"`
	Forced              bool           `json:"forced"`
}

// Rejected is sent only to the caller whose action failed.
type Rejected struct {
	Action     ActionKind `json:"action"`
	ReasonCode string     `json:"reasonCode"`
	Message    string     `json:"message"`
}

// PlayerJoined is broadcast while the room is in the lobby.
type PlayerJoined struct {
	Player   Player `json:"player"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
}

// PlayerLeft is broadcast whenever the roster shrinks.
type PlayerLeft struct {
	PlayerID string `json:"playerId"`
	Players  int    `json:"players"`
}

// MatchPaused is broadcast when the deadline is cancelled by a pause.
type MatchPaused struct {
	Index int `json:"index"`
}
