package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mindgap-tutor/internal/domain"
)

const sampleLibrary = `
quizzes:
  - topic: Photosynthesis
    difficulty: beginner
    lesson: Plants turn light into chemical energy.
    questions:
      - question: What gas do plants absorb?
        options: [Oxygen, Carbon dioxide, Nitrogen]
        correct_answer: Carbon dioxide
        explanation: CO2 is fixed during the Calvin cycle.
  - topic: Binary
    questions:
      - question: What is 10 in binary?
        options: ["1010", "1100"]
        correct_answer: "1010"
        explanation: 8 + 2.
`

func TestLoadQuizzesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.yaml")
	if err := os.WriteFile(path, []byte(sampleLibrary), 0o600); err != nil {
		t.Fatalf("write library: %v", err)
	}

	loader, err := NewQuizLoader(path)
	if err != nil {
		t.Fatalf("load library: %v", err)
	}

	quiz, err := loader.LoadQuiz(context.Background(), domain.QuizRequest{Topic: "photosynthesis", Difficulty: domain.Beginner})
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if quiz.Lesson == "" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	q := quiz.Questions[0]
	if q.CorrectAnswer != "Carbon dioxide" || len(q.Options) != 3 || q.Options[1] != "Carbon dioxide" {
		t.Fatalf("unexpected question %+v", q)
	}

	binary, err := loader.LoadQuiz(context.Background(), domain.QuizRequest{Topic: "binary", Difficulty: domain.Advanced})
	if err != nil {
		t.Fatalf("load any-difficulty quiz: %v", err)
	}
	if binary.ID != ":binary" {
		t.Fatalf("expected derived id, got %q", binary.ID)
	}
	if _, err := domain.NewDeck(binary.Questions); err != nil {
		t.Fatalf("expected a valid deck: %v", err)
	}
}

func TestParseQuizzesRequiresTopic(t *testing.T) {
	_, err := ParseQuizzes([]byte("quizzes:\n  - lesson: orphan\n"))
	if !errors.Is(err, domain.ErrTopicRequired) {
		t.Fatalf("expected topic error, got %v", err)
	}
}
