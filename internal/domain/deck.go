package domain

import "fmt"

// Deck is the immutable, ordered question sequence of one quiz attempt.
// The zero value is a valid empty deck.
type Deck struct {
	questions []QuestionRecord
}

// NewDeck validates and copies records. Callers keep no reference into the deck.
func NewDeck(records []QuestionRecord) (Deck, error) {
	questions := make([]QuestionRecord, len(records))
	for i, rec := range records {
		if len(rec.Options) < 2 {
			return Deck{}, fmt.Errorf("%w: question %d has %d options", ErrDataContractViolation, i, len(rec.Options))
		}
		if !rec.HasOption(rec.CorrectAnswer) {
			return Deck{}, fmt.Errorf("%w: question %d correct answer %q is not an option", ErrDataContractViolation, i, rec.CorrectAnswer)
		}
		questions[i] = cloneRecord(rec)
	}
	return Deck{questions: questions}, nil
}

// Get returns a copy of the question at index.
func (d Deck) Get(index int) (QuestionRecord, error) {
	if index < 0 || index >= len(d.questions) {
		return QuestionRecord{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(d.questions))
	}
	return cloneRecord(d.questions[index]), nil
}

func (d Deck) Len() int {
	return len(d.questions)
}

func cloneRecord(q QuestionRecord) QuestionRecord {
	q.Options = append([]string(nil), q.Options...)
	return q
}
