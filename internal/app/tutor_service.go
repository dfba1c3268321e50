package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/logger"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session)
	Get(ctx context.Context, id string) (*Session, bool)
	Delete(ctx context.Context, id string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error)
}

// Reporter forwards a completed quiz result to a progress-tracking backend.
type Reporter interface {
	Report(ctx context.Context, completion domain.Completion) error
}

// StartResult is what a renderer needs to show a freshly started quiz.
type StartResult struct {
	Lesson string `json:"lesson"`
	State  State  `json:"state"`
}

// Option customizes a TutorService.
type Option func(*TutorService)

// WithDefaultDifficulty sets the level used when a caller passes none.
func WithDefaultDifficulty(d domain.Difficulty) Option {
	return func(s *TutorService) { s.defaultDifficulty = d }
}

// WithReportTimeout bounds how long completion reporters may run.
func WithReportTimeout(d time.Duration) Option {
	return func(s *TutorService) { s.reportTimeout = d }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TutorService) { s.now = now }
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *TutorService) { s.newID = newID }
}

// TutorService contains the quiz-taking use cases of the learning client.
type TutorService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	reporters []Reporter
	log       *logger.Logger

	defaultDifficulty domain.Difficulty
	reportTimeout     time.Duration
	now               func() time.Time
	newID             func() string

	inflight sync.WaitGroup
}

func NewTutorService(store SessionRepository, quizzes QuizRepository, reporters []Reporter, log *logger.Logger, opts ...Option) *TutorService {
	s := &TutorService{
		sessions:          store,
		quizzes:           quizzes,
		reporters:         reporters,
		log:               log.With("component", "tutor"),
		defaultDifficulty: domain.Beginner,
		reportTimeout:     10 * time.Second,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the lesson and quiz for topic and opens a new session on it.
func (s *TutorService) Start(ctx context.Context, topic, difficulty string) (StartResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return StartResult{}, domain.ErrTopicRequired
	}
	level, err := domain.ParseDifficulty(difficulty, s.defaultDifficulty)
	if err != nil {
		return StartResult{}, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, domain.QuizRequest{Topic: topic, Difficulty: level})
	if err != nil {
		return StartResult{}, err
	}
	deck, err := domain.NewDeck(quiz.Questions)
	if err != nil {
		return StartResult{}, fmt.Errorf("quiz for %q: %w", topic, err)
	}

	session := NewSession(SessionParams{
		ID:         s.newID(),
		Topic:      topic,
		Difficulty: level,
		Deck:       deck,
		OnComplete: s.report,
		Now:        s.now,
	})
	s.sessions.Save(ctx, session)
	s.log.Info("quiz session started", "session", session.ID(), "topic", topic, "difficulty", level, "questions", deck.Len())

	return StartResult{Lesson: quiz.Lesson, State: session.State()}, nil
}

// Select locks in an answer for the current question of session id.
func (s *TutorService) Select(ctx context.Context, id, option string) (State, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return State{}, domain.ErrSessionNotFound
	}
	st, err := session.SelectOption(option)
	if err != nil {
		return st, err
	}
	s.sessions.Save(ctx, session)
	return st, nil
}

// Advance moves session id to its next question or finishes it.
func (s *TutorService) Advance(ctx context.Context, id string) (State, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return State{}, domain.ErrSessionNotFound
	}
	st, err := session.Advance()
	if err != nil {
		return st, err
	}
	s.sessions.Save(ctx, session)
	return st, nil
}

// State returns the current snapshot of session id.
func (s *TutorService) State(ctx context.Context, id string) (State, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return State{}, domain.ErrSessionNotFound
	}
	return session.State(), nil
}

// Review returns the locked-in answers of session id.
func (s *TutorService) Review(ctx context.Context, id string) ([]domain.Answer, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Answers(), nil
}

// Abandon drops session id; the quiz view was torn down.
func (s *TutorService) Abandon(ctx context.Context, id string) {
	s.sessions.Delete(ctx, id)
}

// Wait blocks until in-flight completion reports are done.
func (s *TutorService) Wait() {
	s.inflight.Wait()
}

// report is the session completion callback. Delivery happens in the
// background; the session is already finished and nothing here can change it.
func (s *TutorService) report(c domain.Completion) {
	log := s.log.With("session", c.SessionID, "topic", c.Topic)
	log.Info("quiz session finished", "score", c.Score, "total", c.Total, "band", c.Band())
	if len(s.reporters) == 0 {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.reportTimeout)
		defer cancel()

		var g errgroup.Group
		for _, r := range s.reporters {
			r := r
			g.Go(func() error {
				if err := r.Report(ctx, c); err != nil {
					log.Error("completion report failed", "reporter", fmt.Sprintf("%T", r), "error", err)
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}
