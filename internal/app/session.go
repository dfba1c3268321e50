package app

import (
	"fmt"
	"sync"
	"time"

	"mindgap-tutor/internal/domain"
)

// Phase is the lifecycle stage of a quiz session.
type Phase int

const (
	PhaseInProgress Phase = iota
	PhaseFinished
)

func (p Phase) String() string {
	if p == PhaseFinished {
		return "finished"
	}
	return "in_progress"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "finished":
		*p = PhaseFinished
	case "in_progress":
		*p = PhaseInProgress
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// CompletionFunc receives the single completion event of a session.
type CompletionFunc func(domain.Completion)

// SessionParams configures a new Session.
type SessionParams struct {
	ID         string
	Topic      string
	Difficulty domain.Difficulty
	Deck       domain.Deck
	OnComplete CompletionFunc
	// Now defaults to time.Now; tests pin it for deterministic timestamps.
	Now func() time.Time
}

// Session walks a deck one question at a time. It holds no I/O and can be
// driven by any renderer through SelectOption, Advance and State.
type Session struct {
	id         string
	topic      string
	difficulty domain.Difficulty
	deck       domain.Deck
	onComplete CompletionFunc
	now        func() time.Time

	mu       sync.Mutex
	phase    Phase
	index    int
	selected string
	revealed bool
	score    int
	answers  []domain.Answer
	result   domain.Completion
}

// NewSession starts a session at the first question. An empty deck finishes
// immediately with a 0/0 result and fires the completion callback before returning.
func NewSession(p SessionParams) *Session {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		id:         p.ID,
		topic:      p.Topic,
		difficulty: p.Difficulty,
		deck:       p.Deck,
		onComplete: p.OnComplete,
		now:        now,
		answers:    make([]domain.Answer, 0, p.Deck.Len()),
	}
	if s.deck.Len() == 0 {
		s.mu.Lock()
		done := s.finishLocked()
		s.mu.Unlock()
		s.notify(done)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// SelectOption locks in an answer for the current question and reveals feedback.
// Selecting again before Advance is a no-op.
func (s *Session) SelectOption(option string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return s.snapshotLocked(), domain.ErrInvalidTransition
	}
	if s.revealed {
		return s.snapshotLocked(), nil
	}

	question, err := s.deck.Get(s.index)
	if err != nil {
		return s.snapshotLocked(), err
	}
	if !question.HasOption(option) {
		return s.snapshotLocked(), domain.ErrOptionNotFound
	}

	correct := option == question.CorrectAnswer
	s.selected = option
	s.revealed = true
	if correct {
		s.score++
	}
	s.answers = append(s.answers, domain.Answer{
		Index:         s.index,
		Prompt:        question.Prompt,
		Selected:      option,
		CorrectAnswer: question.CorrectAnswer,
		Correct:       correct,
		Explanation:   question.Explanation,
	})
	return s.snapshotLocked(), nil
}

// Advance moves to the next question, or finishes the session after the last one.
// The completion callback receives the accumulated score; the current answer was
// already counted by SelectOption.
func (s *Session) Advance() (State, error) {
	s.mu.Lock()
	if s.phase == PhaseFinished || !s.revealed {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, domain.ErrInvalidTransition
	}

	if s.index+1 < s.deck.Len() {
		s.index++
		s.selected = ""
		s.revealed = false
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, nil
	}

	done := s.finishLocked()
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(done)
	return st, nil
}

// State returns a snapshot of the session for rendering.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Answers returns the locked-in answers in deck order.
func (s *Session) Answers() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

func (s *Session) finishLocked() domain.Completion {
	s.phase = PhaseFinished
	s.selected = ""
	s.revealed = false
	s.result = domain.Completion{
		SessionID:  s.id,
		Topic:      s.topic,
		Difficulty: s.difficulty,
		Score:      s.score,
		Total:      s.deck.Len(),
		FinishedAt: s.now(),
	}
	return s.result
}

// notify runs outside the lock so callbacks may read the session.
func (s *Session) notify(c domain.Completion) {
	if s.onComplete != nil {
		s.onComplete(c)
	}
}
