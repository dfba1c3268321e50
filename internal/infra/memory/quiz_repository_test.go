package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindgap-tutor/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader([]domain.Quiz{sampleQuiz()})}
	repo := NewQuizRepository(loader, time.Minute)
	req := domain.QuizRequest{Topic: "Arithmetic", Difficulty: domain.Beginner}

	if _, err := repo.GetQuiz(context.Background(), req); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), domain.QuizRequest{Topic: " arithmetic", Difficulty: domain.Beginner}); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader([]domain.Quiz{sampleQuiz()})}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }
	req := domain.QuizRequest{Topic: "arithmetic", Difficulty: domain.Beginner}

	_, _ = repo.GetQuiz(context.Background(), req)
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), req)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(loader, time.Minute)
	req := domain.QuizRequest{Topic: "unknown", Difficulty: domain.Beginner}

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuiz(context.Background(), req); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected ErrQuizNotFound, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected errors to bypass cache, loader calls %d", loader.calls)
	}
}

func TestStaticQuizLoaderFallsBackToAnyDifficulty(t *testing.T) {
	quiz := sampleQuiz()
	quiz.Difficulty = ""
	loader := NewStaticQuizLoader([]domain.Quiz{quiz})

	got, err := loader.LoadQuiz(context.Background(), domain.QuizRequest{Topic: "arithmetic", Difficulty: domain.Advanced})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Difficulty != domain.Advanced {
		t.Fatalf("expected requested difficulty to be stamped, got %q", got.Difficulty)
	}
}

func TestChainLoaderSkipsMisses(t *testing.T) {
	chain := ChainLoader{
		NewStaticQuizLoader(nil),
		NewStaticQuizLoader([]domain.Quiz{sampleQuiz()}),
	}
	got, err := chain.LoadQuiz(context.Background(), domain.QuizRequest{Topic: "arithmetic", Difficulty: domain.Beginner})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "quiz-1" {
		t.Fatalf("expected quiz-1, got %+v", got)
	}

	failing := ChainLoader{errLoader{errors.New("backend down")}, NewStaticQuizLoader([]domain.Quiz{sampleQuiz()})}
	if _, err := failing.LoadQuiz(context.Background(), domain.QuizRequest{Topic: "arithmetic", Difficulty: domain.Beginner}); err == nil {
		t.Fatalf("expected hard errors to stop the chain")
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, req)
}

type errLoader struct{ err error }

func (l errLoader) LoadQuiz(context.Context, domain.QuizRequest) (domain.Quiz, error) {
	return domain.Quiz{}, l.err
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		Topic:      "Arithmetic",
		Difficulty: domain.Beginner,
		Lesson:     "Adding numbers combines quantities.",
		Questions: []domain.QuestionRecord{
			{
				Prompt:        "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: "4",
				Explanation:   "basic arithmetic",
			},
		},
	}
}
