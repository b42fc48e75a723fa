package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the tether library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Supervisor errors - Public API errors returned by the Supervisor.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrKeySelectorRequired is returned when the key selector is nil.
	ErrKeySelectorRequired = errors.New("key selector is required")

	// ErrTaskRequired is returned when the per-key task is nil.
	ErrTaskRequired = errors.New("task is required")

	// ErrSourceRequired is returned when the snapshot source is nil.
	ErrSourceRequired = errors.New("snapshot source is required")

	// ErrAlreadyStarted is returned when Run is called on a supervisor that already ran.
	ErrAlreadyStarted = errors.New("supervisor already started")

	// ErrAlreadyWatched is returned when a single-consumer source is watched twice.
	ErrAlreadyWatched = errors.New("source already watched")

	// ErrSourceClosed is returned when pushing into a source that was closed.
	ErrSourceClosed = errors.New("source closed")
)

// Lifecycle errors - raised by the per-key state machine.
var (
	// ErrProtocolViolation marks an illegal lifecycle transition.
	//
	// It is never returned; it is the panic value (wrapped) raised when the driver's
	// diff logic disagrees with the state machine. Seeing it means a bug in tether.
	ErrProtocolViolation = errors.New("lifecycle protocol violation")

	// ErrTaskPanicked wraps a panic recovered from a per-key task.
	ErrTaskPanicked = errors.New("task panicked")
)

// Cancellation causes - control-flow signals delivered through context.Cause.
//
// None of them is a failure and none should be reported to an end user.
var (
	// ErrKeyRemoved is matched (errors.Is) by every KeyRemovedError.
	ErrKeyRemoved = errors.New("key removed")

	// ErrSourceExhausted is the cause used when the snapshot source ends while keys
	// are still waiting out their grace period. No key can come back after that.
	ErrSourceExhausted = errors.New("key was kept alive during its grace period, " +
		"but the snapshot source was exhausted so it can never come back")

	// ErrKeyRevived is the cause used to abort a pending grace-period cancellation
	// because its key reappeared in a snapshot.
	ErrKeyRevived = errors.New("key reappeared before its grace period elapsed")
)

// KeyRemovedError is the cancellation cause of a task whose key left the snapshot
// and did not come back within the grace period.
type KeyRemovedError struct {
	GracePeriod time.Duration
}

// Error implements error.
func (e *KeyRemovedError) Error() string {
	if e.GracePeriod <= 0 {
		return "key was removed from the snapshot"
	}

	return fmt.Sprintf("key was removed from the snapshot and stayed away for the %s grace period", e.GracePeriod)
}

// Is reports whether target is ErrKeyRemoved.
func (e *KeyRemovedError) Is(target error) bool {
	return target == ErrKeyRemoved
}

// IsCancellation reports whether err is one of the expected cancellation causes.
//
// Parameters:
//   - err: The error to check (typically context.Cause(ctx))
//
// Returns:
//   - bool: true for ErrKeyRemoved, ErrSourceExhausted and ErrKeyRevived
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrKeyRemoved) ||
		errors.Is(err, ErrSourceExhausted) ||
		errors.Is(err, ErrKeyRevived)
}
