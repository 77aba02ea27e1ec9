package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSimpleCommand(t *testing.T) {
	result, err := Execute(Command{CommandLine: "echo hello"})
	require.NoError(t, err)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	assert.True(t, result.Success())
	assert.Contains(t, result.Output, "hello")
	assert.False(t, result.TimedOut)
}

func TestExecuteNonZeroExit(t *testing.T) {
	result, err := Execute(Command{CommandLine: "exit 7"})
	require.NoError(t, err)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 7, *result.ExitCode)
	assert.False(t, result.Success())
}

func TestExecuteTimeout(t *testing.T) {
	result, err := Execute(Command{CommandLine: "sleep 5", Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Nil(t, result.ExitCode)
	assert.False(t, result.Success())
}

func TestExecuteDeniedCommand(t *testing.T) {
	_, err := Execute(Command{CommandLine: "rm -rf /"})
	assert.Error(t, err)
}

func TestExecuteAsyncStreamsChunksAndResult(t *testing.T) {
	handle := ExecuteAsync(Command{CommandLine: "echo one; echo two"})

	var collected string
	for chunk := range handle.Chunks {
		collected += chunk.Text
	}

	result, err := handle.Wait(context.Background())
	require.NoError(t, err)
	assert.Contains(t, collected, "one")
	assert.Contains(t, collected, "two")
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
}

func TestExecuteAsyncDroppedReceiverStillCompletes(t *testing.T) {
	handle := ExecuteAsync(Command{CommandLine: "echo hi"})
	// Do not drain handle.Chunks at all; Wait must still observe completion.
	result, err := handle.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
}

func TestHandleWaitRespectsContextCancellation(t *testing.T) {
	handle := ExecuteAsync(Command{CommandLine: "sleep 5", Timeout: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := handle.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	for range handle.Chunks {
	}
}
