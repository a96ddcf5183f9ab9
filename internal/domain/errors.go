package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a pin resolves to no live session.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrPlayerNotFound is returned when a player acts without having joined.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrInvalidState is returned for operations outside their legal
	// lifecycle state, e.g. joining after start.
	ErrInvalidState = errors.New("invalid session state for operation")
	// ErrNotHost is returned when a non-host attempts a host-only action.
	ErrNotHost = errors.New("only the host may perform this action")
	// ErrNoPlayers is returned when a host starts a session nobody joined.
	ErrNoPlayers = errors.New("session has no players")
	// ErrDuplicateAnswer is returned when a player already answered the
	// question; the first accepted submission wins.
	ErrDuplicateAnswer = errors.New("answer already recorded for question")
	// ErrStaleQuestion is returned when a submission targets a question that
	// is not the session's current active question.
	ErrStaleQuestion = errors.New("question is no longer accepting answers")
	// ErrPinExhausted is returned when the pin space is effectively full.
	ErrPinExhausted = errors.New("pin capacity exhausted")
	// ErrInvalidQuiz indicates malformed quiz content.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
