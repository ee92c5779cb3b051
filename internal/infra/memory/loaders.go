package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"trivia-match-service/internal/domain"
)

// StaticLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticLoader struct {
	sets map[string]domain.QuestionSet
}

func NewStaticLoader(sets ...domain.QuestionSet) *StaticLoader {
	l := &StaticLoader{sets: make(map[string]domain.QuestionSet, len(sets))}
	for _, set := range sets {
		l.sets[set.ID] = set
	}
	return l
}

func (l *StaticLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := l.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

// FileLoader reads question sets from a JSON file holding an array of sets.
// The file is read on every load; wrap it in a QuestionRepository to cache.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	sets, err := ReadQuestionFile(l.path)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	for _, set := range sets {
		if set.ID == setID {
			return set, nil
		}
	}
	return domain.QuestionSet{}, fmt.Errorf("%s in %s: %w", setID, l.path, domain.ErrQuestionSetNotFound)
}

// ReadQuestionFile decodes every set in a question file.
func ReadQuestionFile(path string) ([]domain.QuestionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	var sets []domain.QuestionSet
	if err := json.Unmarshal(raw, &sets); err != nil {
		return nil, fmt.Errorf("decode questions %s: %w", path, err)
	}
	return sets, nil
}
