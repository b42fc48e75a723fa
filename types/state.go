package types

// EntryState represents the lifecycle state of a single key.
//
// States follow a defined progression:
//
//	Loading → Done                      (task finished)
//	Loading/Done → InGracePeriod        (key left the snapshot)
//	InGracePeriod → Loading/Done        (key came back in time)
//	InGracePeriod → removed             (grace period elapsed)
type EntryState int

const (
	// EntryLoading indicates a task is running and has not produced a result yet.
	EntryLoading EntryState = iota

	// EntryDone indicates the task finished; its outcome is retained.
	EntryDone

	// EntryInGracePeriod indicates the key left the snapshot and is waiting to be cancelled.
	EntryInGracePeriod
)

// String returns the string representation of the state.
func (s EntryState) String() string {
	switch s {
	case EntryLoading:
		return "Loading"
	case EntryDone:
		return "Done"
	case EntryInGracePeriod:
		return "InGracePeriod"
	default:
		return "Unknown"
	}
}
