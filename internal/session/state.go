package session

import "github.com/iyulab/shell-tunnel/internal/apierr"

// State is a value from the closed lifecycle set. Zero value is Created.
type State int

const (
	Created State = iota
	Active
	Idle
	Terminated
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Active:
		return "Active"
	case Idle:
		return "Idle"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// CanExecute reports whether a command may run while the session is in
// this state.
func (s State) CanExecute() bool { return s == Active || s == Idle }

// IsTerminal reports whether this state is absorbing.
func (s State) IsTerminal() bool { return s == Terminated }

// legal enumerates the directed transition graph from §3:
//
//	Created ─► Active ◄─► Idle
//	              │          │
//	              ▼          ▼
//	          Terminated  Terminated
var legal = map[State]map[State]bool{
	Created:    {Active: true},
	Active:     {Idle: true, Terminated: true},
	Idle:       {Active: true, Terminated: true},
	Terminated: {},
}

// TransitionTo validates target against the legal graph. On success s is
// mutated in place and nil is returned; on failure s is left untouched
// and an *apierr.Error of kind InvalidState is returned.
func (s *State) TransitionTo(target State) error {
	if legal[*s][target] {
		*s = target
		return nil
	}
	return apierr.InvalidStateTransition(s.String(), target.String())
}
