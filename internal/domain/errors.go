package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no match is registered under the given id.
	ErrSessionNotFound = errors.New("match session not found")
	// ErrSessionExists is returned when a session id is registered twice.
	ErrSessionExists = errors.New("match session already exists")
	// ErrQuestionSetNotFound indicates the question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
)

// Reason is a rejection code reported back to the caller of an action.
// Rejections are local and recoverable; none of them abort a session.
type Reason string

const (
	ErrRoomFull            Reason = "ROOM_FULL"
	ErrInvalidState        Reason = "INVALID_STATE"
	ErrNotEnoughPlayers    Reason = "NOT_ENOUGH_PLAYERS"
	ErrNoQuestions         Reason = "NO_QUESTIONS"
	ErrNotAcceptingAnswers Reason = "NOT_ACCEPTING_ANSWERS"
	ErrDuplicateAnswer     Reason = "DUPLICATE_ANSWER"
	ErrUnknownPlayer       Reason = "UNKNOWN_PLAYER"
	ErrGameAlreadyEnded    Reason = "GAME_ALREADY_ENDED"
)

var reasonMessages = map[Reason]string{
	ErrRoomFull:            "room is at capacity",
	ErrInvalidState:        "action not valid in the current match state",
	ErrNotEnoughPlayers:    "at least two players are required",
	ErrNoQuestions:         "no questions supplied",
	ErrNotAcceptingAnswers: "answers are not being accepted",
	ErrDuplicateAnswer:     "answer already submitted for this question",
	ErrUnknownPlayer:       "player is not part of this match",
	ErrGameAlreadyEnded:    "match has already ended",
}

// Error implements the error interface.
func (r Reason) Error() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// Code returns the wire code of the rejection.
func (r Reason) Code() string {
	return string(r)
}

// ReasonOf extracts the rejection code carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var reason Reason
	if errors.As(err, &reason) {
		return reason, true
	}
	return "", false
}
