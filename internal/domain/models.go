package domain

import (
	"strings"
	"time"
)

// Player is a participant of one match.
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Difficulty tags a question and scales its score.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ParseDifficulty normalizes a free-form tag. Unknown tags are returned as-is
// and score like EASY.
func ParseDifficulty(raw string) Difficulty {
	return Difficulty(strings.ToUpper(strings.TrimSpace(raw)))
}

// Question is immutable once loaded. Answer holds the correct option value;
// sources that only carry AnswerIndex are resolved by QuestionSet.Normalize.
type Question struct {
	ID          string     `json:"id"`
	Prompt      string     `json:"prompt"`
	Options     []string   `json:"options"`
	Answer      string     `json:"answer,omitempty"`
	AnswerIndex *int       `json:"answerIndex,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Category    string     `json:"category"`
}

// IsCorrect reports an exact, case-insensitive match against the correct value.
func (q Question) IsCorrect(value string) bool {
	return q.Answer != "" && strings.EqualFold(q.Answer, value)
}

// QuestionSet is a named, ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Normalize resolves index-based answers into option values and uppercases
// difficulty tags. Questions without a resolvable answer are dropped.
func (s QuestionSet) Normalize() QuestionSet {
	out := QuestionSet{ID: s.ID, Name: s.Name, Questions: make([]Question, 0, len(s.Questions))}
	for _, q := range s.Questions {
		if q.Answer == "" && q.AnswerIndex != nil {
			idx := *q.AnswerIndex
			if idx >= 0 && idx < len(q.Options) {
				q.Answer = q.Options[idx]
			}
		}
		if q.Answer == "" {
			continue
		}
		q.AnswerIndex = nil
		q.Difficulty = ParseDifficulty(string(q.Difficulty))
		out.Questions = append(out.Questions, q)
	}
	return out
}

// Answer is recorded at most once per (player, question).
type Answer struct {
	PlayerID    string        `json:"playerId"`
	QuestionID  string        `json:"questionId"`
	Value       string        `json:"value"`
	Correct     bool          `json:"correct"`
	Latency     time.Duration `json:"latency"`
	Points      int           `json:"points"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

// State is the lifecycle state of a match.
type State string

const (
	StateWaiting           State = "WAITING"
	StateStarting          State = "STARTING"
	StateQuestionDisplayed State = "QUESTION_DISPLAYED"
	StateWaitingForAnswers State = "WAITING_FOR_ANSWERS"
	StateRoundComplete     State = "ROUND_COMPLETE"
	StateGameEnded         State = "GAME_ENDED"
)

// Live reports whether a round is collecting answers.
func (s State) Live() bool {
	return s == StateQuestionDisplayed || s == StateWaitingForAnswers
}

// RankingEntry is one line of the final standings.
type RankingEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// RoomSummary describes a room for the lobby directory.
type RoomSummary struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Players   int    `json:"players"`
	Capacity  int    `json:"capacity"`
	State     State  `json:"state"`
	Paused    bool   `json:"paused"`
	Full      bool   `json:"full"`
}

// SessionSnapshot is a consistent read of a match.
type SessionSnapshot struct {
	SessionID     string         `json:"sessionId"`
	Name          string         `json:"name"`
	State         State          `json:"state"`
	Paused        bool           `json:"paused"`
	QuestionIndex int            `json:"questionIndex"`
	Total         int            `json:"total"`
	Capacity      int            `json:"capacity"`
	TimeBudgetMs  int64          `json:"timeBudgetMs"`
	Players       []Player       `json:"players"`
	Scores        map[string]int `json:"scores"`
	Answered      int            `json:"answered"`
	Ranking       []RankingEntry `json:"ranking,omitempty"`
	// Forced is set when the match ended early for lack of players.
	Forced        bool           `json:"forced,omitempty"`
	Connections   int            `json:"connections"`
}

// Stats counts registered rooms by phase.
type Stats struct {
	Waiting int `json:"waiting"`
	Active  int `json:"active"`
	Ended   int `json:"ended"`
}
