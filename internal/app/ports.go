package app

import (
	"context"

	"trivia-match-service/internal/domain"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_ports.go trivia-match-service/internal/app QuestionLoader,QuestionRepository,EventSink

// QuestionLoader fetches a question set from its source of truth (file, database).
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionRepository serves question sets, usually through a cache in front
// of a QuestionLoader.
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// EventSink receives a copy of every event after local subscribers. Publish
// runs while the session is locked, so implementations must not block.
type EventSink interface {
	Publish(evt domain.Event) error
}

// Registry keeps the live sessions of this process, keyed by session id.
type Registry interface {
	Create(o *Orchestrator) error
	Lookup(sessionID string) (*Orchestrator, error)
	Remove(sessionID string)
	List() []*Orchestrator
}
