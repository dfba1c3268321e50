package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mindgap-tutor/internal/domain"
)

// QuizLoader fetches quiz content from a backing source (backend API, Postgres, files).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error)
}

// QuizRepository caches quizzes with TTL so repeated topics skip regeneration.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	key := req.Key()
	if quiz, ok := r.lookup(key); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if quiz, ok := r.lookup(key); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, req)
		if err != nil {
			return domain.Quiz{}, err
		}

		r.mu.Lock()
		r.cache[key] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) lookup(key string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader serves quizzes from memory (sample content, YAML deck files, tests).
// A quiz without a difficulty serves every level of its topic.
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes []domain.Quiz) *StaticQuizLoader {
	l := &StaticQuizLoader{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for _, q := range quizzes {
		l.quizzes[domain.QuizRequest{Topic: q.Topic, Difficulty: q.Difficulty}.Key()] = q
	}
	return l
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[req.Key()]; ok {
		return quiz, nil
	}
	if quiz, ok := l.quizzes[domain.QuizRequest{Topic: req.Topic}.Key()]; ok {
		quiz.Difficulty = req.Difficulty
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// ChainLoader asks each loader in turn until one has the quiz.
type ChainLoader []QuizLoader

func (c ChainLoader) LoadQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	for _, l := range c {
		quiz, err := l.LoadQuiz(ctx, req)
		if errors.Is(err, domain.ErrQuizNotFound) {
			continue
		}
		return quiz, err
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
