package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/session"
)

func TestInSessionRoundTrip(t *testing.T) {
	reg := session.NewRegistry()
	id, err := reg.Create(session.Config{})
	require.NoError(t, err)

	result, err := InSession(reg, id, Command{CommandLine: "echo hi"})
	require.NoError(t, err)
	assert.True(t, result.Success())

	rec, ok, err := reg.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.Idle, rec.State, "must return to Idle after execution")
	assert.Equal(t, uint64(1), rec.Context.ExecutionCount)
	require.NotNil(t, rec.Context.LastExitCode)
	assert.Equal(t, 0, *rec.Context.LastExitCode)
}

func TestInSessionMissingSession(t *testing.T) {
	reg := session.NewRegistry()
	_, err := InSession(reg, session.FromRaw(12345), Command{CommandLine: "echo hi"})
	assert.Error(t, err)
}

func TestInSessionRejectsTerminatedSession(t *testing.T) {
	reg := session.NewRegistry()
	id, err := reg.Create(session.Config{})
	require.NoError(t, err)
	require.NoError(t, reg.Update(id, func(r *session.Record) {
		_ = r.State.TransitionTo(session.Terminated)
	}))

	_, err = InSession(reg, id, Command{CommandLine: "echo hi"})
	assert.Error(t, err)
}
