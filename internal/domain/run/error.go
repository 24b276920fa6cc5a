package run

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("migration run not found")

// InvalidTransitionError is returned when an operator action is not legal
// from the run's current status. The message is operator-facing.
type InvalidTransitionError struct {
	Action string
	Status Status
}

func (e *InvalidTransitionError) Error() string {
	switch e.Action {
	case "pause":
		return fmt.Sprintf("Cannot pause migration with status: %s. Only RUNNING migrations can be paused.", e.Status)
	case "resume":
		return fmt.Sprintf("Cannot resume migration with status: %s. Only PAUSED migrations can be resumed.", e.Status)
	default:
		return fmt.Sprintf("Cannot %s migration with status: %s", e.Action, e.Status)
	}
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
