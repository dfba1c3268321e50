package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/config"
	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/infra/backend"
	"mindgap-tutor/internal/infra/file"
	"mindgap-tutor/internal/infra/memory"
	pgloader "mindgap-tutor/internal/infra/postgres"
	"mindgap-tutor/internal/infra/rabbit"
	redisinfra "mindgap-tutor/internal/infra/redis"
	"mindgap-tutor/internal/logger"
)

// deps holds the infrastructure built from config; close releases it.
type deps struct {
	backend *backend.Client
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func connect(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	if cfg.Backend.URL != "" {
		d.backend = backend.NewClient(cfg.Backend.URL, config.TTLDuration(cfg.Backend.Timeout, 30*time.Second))
	}
	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}
	return d, nil
}

// quizLoader consults the local library, then Postgres, then the backend.
// With none configured it serves the built-in sample quiz.
func (d *deps) quizLoader(cfg config.Config) (memory.QuizLoader, error) {
	var chain memory.ChainLoader
	if cfg.Quiz.Library != "" {
		lib, err := file.NewQuizLoader(cfg.Quiz.Library)
		if err != nil {
			return nil, err
		}
		chain = append(chain, lib)
	}
	if d.pool != nil {
		chain = append(chain, pgloader.NewQuizLoader(d.pool))
	}
	if d.backend != nil {
		chain = append(chain, d.backend)
	}
	if len(chain) == 0 {
		return memory.NewStaticQuizLoader(sampleQuizzes()), nil
	}
	return chain, nil
}

func (d *deps) quizRepository(cfg config.Config, loader memory.QuizLoader) app.QuizRepository {
	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if d.redis != nil {
		return redisinfra.NewQuizRepository(d.redis, loader, ttl)
	}
	return memory.NewQuizRepository(loader, ttl)
}

func (d *deps) sessionStore(cfg config.Config) app.SessionRepository {
	if d.redis != nil {
		return redisinfra.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

func (d *deps) reporters(cfg config.Config, log *logger.Logger) []app.Reporter {
	var out []app.Reporter
	if d.backend != nil {
		out = append(out, d.backend)
	}
	if cfg.RabbitMQ.URL != "" {
		exchange := cfg.RabbitMQ.Exchange
		if exchange == "" {
			exchange = "mindgap.quiz"
		}
		pub, err := rabbit.Dial(cfg.RabbitMQ.URL, exchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, completions will not be published", "error", err)
			return out
		}
		d.closers = append(d.closers, func() { _ = pub.Close() })
		out = append(out, pub)
	}
	return out
}

func serviceOptions(cfg config.Config) ([]app.Option, error) {
	level, err := domain.ParseDifficulty(cfg.Quiz.Difficulty, domain.Beginner)
	if err != nil {
		return nil, fmt.Errorf("quiz.difficulty: %w", err)
	}
	return []app.Option{app.WithDefaultDifficulty(level)}, nil
}

// sampleQuizzes is served when no content source is configured.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:     "sample-arithmetic",
			Topic:  "Arithmetic",
			Lesson: "Addition combines two quantities into one total. Multiplication is repeated addition.",
			Questions: []domain.QuestionRecord{
				{
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
					Explanation:   "Adding two and two gives four.",
				},
				{
					Prompt:        "What is 3 x 4?",
					Options:       []string{"7", "12", "34"},
					CorrectAnswer: "12",
					Explanation:   "Three groups of four make twelve.",
				},
			},
		},
	}
}
