package tether

import "github.com/arloliu/tether/types"

// Sentinel errors returned by the Supervisor.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrKeySelectorRequired is returned when the key selector is nil.
	ErrKeySelectorRequired = types.ErrKeySelectorRequired

	// ErrTaskRequired is returned when the per-key task is nil.
	ErrTaskRequired = types.ErrTaskRequired

	// ErrSourceRequired is returned when the snapshot source is nil.
	ErrSourceRequired = types.ErrSourceRequired

	// ErrAlreadyStarted is returned when Run is called on a supervisor that already ran.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrTaskPanicked wraps a panic recovered from a per-key task.
	ErrTaskPanicked = types.ErrTaskPanicked

	// ErrProtocolViolation is the panic value (wrapped) of an illegal lifecycle transition.
	ErrProtocolViolation = types.ErrProtocolViolation

	// ErrAlreadyWatched is returned when a single-consumer source is watched twice.
	ErrAlreadyWatched = types.ErrAlreadyWatched

	// ErrSourceClosed is returned when pushing into a closed source.
	ErrSourceClosed = types.ErrSourceClosed
)

// Cancellation causes observed by tasks through context.Cause.
//
// They are control-flow signals, not failures:
//
//	<-ctx.Done()
//	if errors.Is(context.Cause(ctx), tether.ErrKeyRemoved) {
//	    // the key left the snapshots for longer than the grace period
//	}
var (
	// ErrKeyRemoved is matched by every *KeyRemovedError.
	ErrKeyRemoved = types.ErrKeyRemoved

	// ErrSourceExhausted is the cause used when the source ends while the key
	// was waiting out its grace period.
	ErrSourceExhausted = types.ErrSourceExhausted
)

// IsCancellation reports whether err is one of the expected cancellation causes.
func IsCancellation(err error) bool {
	return types.IsCancellation(err)
}
