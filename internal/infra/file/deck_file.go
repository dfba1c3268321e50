package file

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/infra/memory"
)

type library struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadQuizzes reads a YAML quiz library from path.
func LoadQuizzes(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuizzes(data)
}

// ParseQuizzes decodes a YAML quiz library. Every quiz must name a topic.
func ParseQuizzes(data []byte) ([]domain.Quiz, error) {
	var lib library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse quiz library: %w", err)
	}
	for i, q := range lib.Quizzes {
		if q.Topic == "" {
			return nil, fmt.Errorf("quiz %d: %w", i, domain.ErrTopicRequired)
		}
		if q.ID == "" {
			lib.Quizzes[i].ID = domain.QuizRequest{Topic: q.Topic, Difficulty: q.Difficulty}.Key()
		}
	}
	return lib.Quizzes, nil
}

// NewQuizLoader returns a static loader over the library at path.
func NewQuizLoader(path string) (*memory.StaticQuizLoader, error) {
	quizzes, err := LoadQuizzes(path)
	if err != nil {
		return nil, err
	}
	return memory.NewStaticQuizLoader(quizzes), nil
}
