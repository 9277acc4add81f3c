package visit

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a visit does not exist.
var ErrNotFound = errors.New("visit not found")

// ErrStatusConflict is returned by the repository when a conditional status
// update matched no row: either the edge is illegal or another actor moved
// the visit first.
var ErrStatusConflict = errors.New("visit status changed concurrently")

// TransitionError reports an attempt to move a visit along an edge the state
// machine does not allow, including the lost-race case.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid visit transition from %q to %q", e.From, e.To)
}

// IsTransitionError reports whether err is (or wraps) a TransitionError.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
