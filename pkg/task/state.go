package task

import "fmt"

// State is the lifecycle position of a task.
//
// States are ordered IDLE < RUNNING < {CANCELLED, FINISHED}; a task only ever
// moves forward. The two terminal states share the top rank, so once one is
// reached the other can no longer follow.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
	StateFinished
)

func (s State) rank() int {
	switch s {
	case StateIdle:
		return 0
	case StateRunning:
		return 1
	default:
		return 2
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateFinished
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateCancelled:
		return "CANCELLED"
	case StateFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// checkTransition is the single guard every state change goes through.
//
// It returns ErrSettled when the target is not reachable because the task has
// already settled (a repeated cancel, or the loser of a cancel/finish race).
// Callers treat that as a silent no-op. Every other error is misuse.
func checkTransition(from, to State) error {
	switch {
	case from.Terminal() && to.Terminal():
		return ErrSettled
	case to == StateRunning && from == StateRunning:
		return fmt.Errorf("%w: task is already running", ErrIllegalState)
	case to == StateRunning && from.Terminal():
		return fmt.Errorf("%w: task already reached %s and cannot run again", ErrIllegalArgument, from)
	case to.rank() <= from.rank():
		return fmt.Errorf("%w: cannot move from %s to %s", ErrIllegalState, from, to)
	}
	return nil
}
