package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or has expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrEmptyPool indicates the word pool has no entries.
	ErrEmptyPool = errors.New("word pool is empty")
	// ErrCountExceedsPool indicates more questions were requested than the pool holds.
	ErrCountExceedsPool = errors.New("question count exceeds word pool size")
	// ErrPoolTooSmall indicates the pool cannot supply enough distinct distractors.
	ErrPoolTooSmall = errors.New("word pool too small for multiple choice")
	// ErrNotStarted is returned for actions on a session that has not been started.
	ErrNotStarted = errors.New("quiz session not started")
	// ErrAlreadyStarted is returned when start is called twice on one session.
	ErrAlreadyStarted = errors.New("quiz session already started")
	// ErrAnswerPending is returned by next while the current question is unanswered.
	ErrAnswerPending = errors.New("current question has not been answered")
	// ErrSessionFinished is returned for play actions on a finished session.
	ErrSessionFinished = errors.New("quiz session finished")
	// ErrNotFinished is returned when a summary is requested before the last question.
	ErrNotFinished = errors.New("quiz session not finished")
	// ErrInvalidInput is matched by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage wraps failures of the leaderboard or word storage.
	ErrStorage = errors.New("storage failure")
	// ErrUnauthorized is returned for failed admin authentication.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAudioUnavailable is returned when no synthesizer is configured.
	ErrAudioUnavailable = errors.New("audio playback unavailable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StorageError wraps err so that errors.Is(err, ErrStorage) holds while keeping the cause.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// IsSamplingError reports errors that prevent a session from starting because of the pool.
func IsSamplingError(err error) bool {
	return errors.Is(err, ErrEmptyPool) || errors.Is(err, ErrCountExceedsPool) || errors.Is(err, ErrPoolTooSmall)
}

// IsTransitionError reports actions that are invalid in the session's current state.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrNotStarted) || errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrAnswerPending) || errors.Is(err, ErrSessionFinished) || errors.Is(err, ErrNotFinished)
}
