package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mindgap-tutor/internal/domain"
)

// QuizLoader serves curated quizzes stored as JSONB, keyed by topic and difficulty.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const loadQuizSQL = `
SELECT data FROM quizzes
WHERE lower(topic) = lower($1) AND (difficulty = $2 OR difficulty = '')
ORDER BY difficulty DESC, created_at DESC
LIMIT 1`

func (l *QuizLoader) LoadQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, loadQuizSQL, req.Topic, string(req.Difficulty)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = req.Difficulty
	}
	return quiz, nil
}
