package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown or was abandoned.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates no quiz content could be loaded for a topic.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrOptionNotFound indicates a selected option is not one of the current question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrOutOfRange is returned when a deck is indexed outside [0, Len()).
	ErrOutOfRange = errors.New("question index out of range")
	// ErrInvalidTransition is returned when a session operation is invoked in the wrong phase.
	ErrInvalidTransition = errors.New("invalid quiz transition")
	// ErrDataContractViolation marks malformed question records supplied by the content backend.
	ErrDataContractViolation = errors.New("question data contract violation")
	// ErrTopicRequired is returned when a quiz is requested for a blank topic.
	ErrTopicRequired = errors.New("topic is required")
	// ErrInvalidDifficulty is returned for difficulty labels outside the known levels.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
