package domain

import "errors"

var (
	// ErrMalformedUpdate is returned when a delta record is missing identity
	// fields. This is a protocol violation; the whole batch is rejected.
	ErrMalformedUpdate = errors.New("malformed update record")
	// ErrQuizNotStarted is returned for operations that need an active quiz.
	ErrQuizNotStarted = errors.New("quiz is not started")
	// ErrRegistrationClosed is returned when a team tries to register outside
	// the registration phase.
	ErrRegistrationClosed = errors.New("registration is closed")
	// ErrQuestionNotRunning is returned when an answer arrives while no
	// question is open.
	ErrQuestionNotRunning = errors.New("no question is running")
	// ErrQuestionOutOfRange is returned for question numbers outside 1..N.
	ErrQuestionOutOfRange = errors.New("question number out of range")
	// ErrRegistrationOpen is returned when a question is started while
	// registration is still open.
	ErrRegistrationOpen = errors.New("registration is still open")
	// ErrQuestionRunning is returned when registration is opened while a
	// question is still running.
	ErrQuestionRunning = errors.New("a question is still running")
	// ErrTeamNotFound is returned when a team id is unknown to the session.
	ErrTeamNotFound = errors.New("team not found")
	// ErrAnswerNotFound is returned when grading an answer that does not exist.
	ErrAnswerNotFound = errors.New("answer not found")
)
