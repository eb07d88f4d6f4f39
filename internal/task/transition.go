package task

import (
	"fmt"

	"github.com/nexboard/nexboard/pkg/cerr"
)

// allowedTransitions is the directed graph of status changes a non-admin may
// perform: each status may only move to the next column. DONE has no
// outgoing edges. Admins bypass this table entirely.
var allowedTransitions = map[Status][]Status{
	StatusBacklog:    {StatusTodo},
	StatusTodo:       {StatusInProgress},
	StatusInProgress: {StatusInReview},
	StatusInReview:   {StatusDone},
	StatusDone:       {},
}

// CanTransition reports whether a non-admin may move a task from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewInvalidTransitionError names both statuses so the caller can see which
// edge was rejected.
func NewInvalidTransitionError(from, to Status) *cerr.Error {
	return cerr.NewError(cerr.InvalidArgument,
		fmt.Sprintf("invalid status transition from %s to %s", from, to), nil)
}
