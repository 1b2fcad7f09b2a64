package scheduler

import "fmt"

// ValidationError refuses a whole batch before any scoring or mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateConflictError reports an illegal state transition: cancelling an
// appointment that is not scheduled, or binding a slot that is already
// taken.
type StateConflictError struct {
	Op    string
	ID    int64
	State string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: id %d is %s", e.Op, e.ID, e.State)
}
