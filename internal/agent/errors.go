package agent

import (
	"errors"
	"fmt"
)

var (
	ErrCompletion        = errors.New("completion service error")
	ErrToolRoundLimit    = errors.New("tool round limit reached")
	ErrSessionTerminated = errors.New("session terminated")
	ErrEmptyTurn         = errors.New("empty user turn")
	ErrSessionFailed     = errors.New("session failed")
)

// CompletionError is a per-turn completion service failure. The session
// history has already been rolled back when it is returned.
type CompletionError struct {
	Turn int
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("turn %d: %v: %v", e.Turn, ErrCompletion, e.Err)
}

func (e *CompletionError) Unwrap() []error { return []error{ErrCompletion, e.Err} }

// IsRecoverable reports whether err only failed the current turn and the
// session may keep accepting input.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrCompletion) || errors.Is(err, ErrToolRoundLimit) || errors.Is(err, ErrEmptyTurn)
}
