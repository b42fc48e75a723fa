package types

// Outcome is the result of a per-key task.
//
// Err is non-nil when the task returned an error or panicked; Value then holds
// whatever the task returned alongside the error (usually the zero value).
type Outcome[R any] struct {
	Value R
	Err   error
}

// Failed reports whether the task ended with an error.
func (o Outcome[R]) Failed() bool {
	return o.Err != nil
}
