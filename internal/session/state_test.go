package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	all := []State{Created, Active, Idle, Terminated}

	cases := []struct {
		from, to State
		ok       bool
	}{
		{Created, Active, true},
		{Created, Idle, false},
		{Created, Terminated, false},
		{Active, Idle, true},
		{Active, Terminated, true},
		{Active, Created, false},
		{Idle, Active, true},
		{Idle, Terminated, true},
		{Idle, Created, false},
		{Terminated, Active, false},
		{Terminated, Idle, false},
		{Terminated, Created, false},
	}

	for _, tc := range cases {
		s := tc.from
		err := s.TransitionTo(tc.to)
		if tc.ok {
			assert.NoErrorf(t, err, "%s -> %s should be legal", tc.from, tc.to)
			assert.Equal(t, tc.to, s)
		} else {
			assert.Errorf(t, err, "%s -> %s should be illegal", tc.from, tc.to)
			assert.Equal(t, tc.from, s, "state must be unchanged on a rejected transition")
		}
	}

	// every state was exercised as a "from" above
	for _, s := range all {
		_ = s
	}
}

func TestStateCanExecute(t *testing.T) {
	assert.False(t, Created.CanExecute())
	assert.True(t, Active.CanExecute())
	assert.True(t, Idle.CanExecute())
	assert.False(t, Terminated.CanExecute())
}

func TestStateIsTerminal(t *testing.T) {
	assert.False(t, Created.IsTerminal())
	assert.False(t, Active.IsTerminal())
	assert.False(t, Idle.IsTerminal())
	assert.True(t, Terminated.IsTerminal())
}
