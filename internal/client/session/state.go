package session

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

type State int

const (
	Browsing State = iota
	Creating
	AwaitingPrediction
	Submitted
	Selected
	Editing
	Resubmitting
	Deleting
)

var stateNames = [...]string{
	Browsing:           "browsing",
	Creating:           "creating",
	AwaitingPrediction: "awaiting prediction",
	Submitted:          "submitted",
	Selected:           "selected",
	Editing:            "editing",
	Resubmitting:       "resubmitting",
	Deleting:           "deleting",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// transitions lists the states reachable from each state. Reset to
// Browsing is always allowed and not listed.
var transitions = map[State][]State{
	Browsing:           {Creating, Selected},
	Creating:           {AwaitingPrediction, Submitted},
	AwaitingPrediction: {Submitted, Creating},
	Submitted:          {Creating, Selected, Editing, Deleting},
	Selected:           {Selected, Editing, Deleting, Creating},
	Editing:            {Resubmitting, Deleting, Selected},
	Resubmitting:       {Submitted, Editing},
	Deleting:           {Submitted, Selected, Editing},
}

func canTransition(from, to State) bool {
	return to == Browsing || slices.Contains(transitions[from], to)
}

type machine struct {
	state State
}

func (m *machine) to(next State) error {
	if !canTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}

// in fails unless the machine is in one of states.
func (m *machine) in(states ...State) error {
	if slices.Contains(states, m.state) {
		return nil
	}
	return fmt.Errorf("%w: not allowed while %s", common.ErrInvalidTransition, m.state)
}
