package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or belongs to someone else.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrOptionNotFound indicates a submitted option key is not one of the question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyQuestionBank is returned when there is nothing to select a session from.
	ErrEmptyQuestionBank = errors.New("no questions available")
	// ErrInvalidQuestionCount rejects zero or negative requested counts.
	ErrInvalidQuestionCount = errors.New("question count must be positive or \"all\"")
	// ErrSessionClosed is returned for any mutation after completion or abandonment.
	ErrSessionClosed = errors.New("quiz session already finished")
	// ErrAlreadyAnswered guards against double submission for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionUnanswered is returned when advancing past a question with no outcome.
	ErrQuestionUnanswered = errors.New("current question has not been answered")
	// ErrHistoryNotFound indicates a history index out of range.
	ErrHistoryNotFound = errors.New("history entry not found")
	// ErrHistoryThrottled is returned when a duplicate history write arrives too quickly.
	ErrHistoryThrottled = errors.New("history update throttled")
)
