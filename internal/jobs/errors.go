package jobs

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrJobNotFound is returned when a job identifier is unknown
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExists is returned when creating a job with a duplicate identifier
	ErrJobExists = errors.New("job already exists")
	// ErrJobTerminal is returned when cancelling a job that already reached a terminal state
	ErrJobTerminal = errors.New("job already in a terminal state")
)

// ValidationError wraps a job-input validation failure. It is returned
// synchronously from Create and produces no job.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job input: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StageError is the fatal failure of a non-scene stage. The wrapped cause
// is preserved verbatim on the job.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AllScenesFailedError indicates every scene in the batch exhausted its
// retries; a render with no images cannot proceed, so the job fails.
type AllScenesFailedError struct {
	Total int
}

func (e *AllScenesFailedError) Error() string {
	return fmt.Sprintf("all %d scenes failed to generate", e.Total)
}

// StallTimeoutError marks a job the watchdog failed for making no
// observable progress within the configured window.
type StallTimeoutError struct {
	Timeout time.Duration
}

func (e *StallTimeoutError) Error() string {
	return fmt.Sprintf("job made no progress within %s", e.Timeout)
}
