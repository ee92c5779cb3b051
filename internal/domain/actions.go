package domain

import "errors"

// ActionKind names an inbound player action.
type ActionKind string

const (
	ActionJoin         ActionKind = "join"
	ActionLeave        ActionKind = "leave"
	ActionStart        ActionKind = "start"
	ActionSubmitAnswer ActionKind = "answer"
	ActionPause        ActionKind = "pause"
	ActionResume       ActionKind = "resume"
)

// Action is what the transport delivers for a session. Fields unused by a
// kind are ignored.
type Action struct {
	Kind        ActionKind `json:"type"`
	PlayerID    string     `json:"playerId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Value       string     `json:"value,omitempty"`
}

// Reject builds the Rejected payload for a failed action.
func Reject(kind ActionKind, err error) Rejected {
	r := Rejected{Action: kind, ReasonCode: "INTERNAL", Message: err.Error()}
	switch reason, ok := ReasonOf(err); {
	case ok:
		r.ReasonCode = reason.Code()
	case errors.Is(err, ErrSessionNotFound):
		r.ReasonCode = "SESSION_NOT_FOUND"
	case errors.Is(err, ErrQuestionSetNotFound):
		r.ReasonCode = "QUESTION_SET_NOT_FOUND"
	}
	return r
}
