package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the learner level a quiz is generated and reported for.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// ParseDifficulty maps a label to a Difficulty. Blank input yields fallback.
func ParseDifficulty(raw string, fallback Difficulty) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return fallback, nil
	case Beginner, Intermediate, Advanced:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
	}
}

// QuestionRecord is one multiple-choice question as produced by the content backend.
type QuestionRecord struct {
	Prompt        string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	Confidence    string   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// HasOption reports whether option is one of the record's options (exact match).
func (q QuestionRecord) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// QuizRequest identifies the content wanted for one quiz attempt.
type QuizRequest struct {
	Topic      string
	Difficulty Difficulty
}

// Key is the cache key for the request.
func (r QuizRequest) Key() string {
	return string(r.Difficulty) + ":" + strings.ToLower(strings.TrimSpace(r.Topic))
}

// Quiz is a generated micro-lesson together with its questions.
type Quiz struct {
	ID         string           `json:"id" yaml:"id"`
	Topic      string           `json:"topic" yaml:"topic"`
	Difficulty Difficulty       `json:"difficulty" yaml:"difficulty"`
	Lesson     string           `json:"lesson,omitempty" yaml:"lesson,omitempty"`
	Questions  []QuestionRecord `json:"questions" yaml:"questions"`
}

// Band is the coarse result category shown on the completion screen.
type Band string

const (
	BandPerfect      Band = "perfect"
	BandGreat        Band = "great"
	BandKeepLearning Band = "keep-learning"
)

// reviewThreshold is the percentage below which a topic needs review.
const reviewThreshold = 70

// Completion is the single event emitted when a quiz session finishes.
type Completion struct {
	SessionID  string     `json:"sessionId"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// Percentage is the integer share of correct answers, 0 for an empty quiz.
func (c Completion) Percentage() int {
	if c.Total <= 0 {
		return 0
	}
	return c.Score * 100 / c.Total
}

func (c Completion) Band() Band {
	switch p := c.Percentage(); {
	case c.Total > 0 && p == 100:
		return BandPerfect
	case p >= reviewThreshold:
		return BandGreat
	default:
		return BandKeepLearning
	}
}

// Perfect reports a full score on a non-empty quiz.
func (c Completion) Perfect() bool {
	return c.Total > 0 && c.Score == c.Total
}

// NeedsReview reports whether the topic should be flagged as a knowledge gap.
func (c Completion) NeedsReview() bool {
	return c.Total > 0 && c.Score*100 < reviewThreshold*c.Total
}

// Answer is the locked-in selection for one question, kept for the review list.
type Answer struct {
	Index         int    `json:"index"`
	Prompt        string `json:"prompt"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

// WeakTopic is a topic the learner repeatedly failed, as tracked by the backend.
type WeakTopic struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
}

// PerformanceRecord is one past quiz result, as tracked by the backend.
type PerformanceRecord struct {
	Topic string `json:"topic"`
	Score int    `json:"score"`
	Total int    `json:"total"`
	Level string `json:"level"`
	Date  string `json:"date"`
}

// Stats is the progress dashboard payload.
type Stats struct {
	WeakTopics []WeakTopic         `json:"weak_topics"`
	History    []PerformanceRecord `json:"history"`
}
