package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the given key.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz document could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSourceUnavailable indicates the quiz document was present but could not be parsed.
	ErrSourceUnavailable = errors.New("quiz source unavailable")
	// ErrSessionFinished is returned when a mutation is attempted after scoring froze.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrOptionOutOfRange indicates a submitted presentation index is invalid.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrNoQuestions is returned when an answer is submitted against an empty quiz.
	ErrNoQuestions = errors.New("quiz has no questions")
)
