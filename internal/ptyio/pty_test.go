package ptyio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnCommandRunsToCompletion(t *testing.T) {
	shell, err := SpawnCommand("echo hello", "", nil)
	require.NoError(t, err)
	defer shell.Close()

	var out []byte
	buf := make([]byte, 256)
	for {
		n, wouldBlock, err := shell.ReadChunk(buf, 20*time.Millisecond)
		if err != nil {
			require.True(t, IsCleanTermination(err), "unexpected read error: %v", err)
			break
		}
		if wouldBlock {
			if _, exited, _ := shell.TryWait(); exited {
				break
			}
			continue
		}
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
	}

	code, err := shell.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, string(out), "hello")
}

func TestSpawnCommandExitCode(t *testing.T) {
	shell, err := SpawnCommand("exit 3", "", nil)
	require.NoError(t, err)
	defer shell.Close()

	buf := make([]byte, 64)
	for {
		_, wouldBlock, err := shell.ReadChunk(buf, 20*time.Millisecond)
		if err != nil {
			require.True(t, IsCleanTermination(err), "unexpected read error: %v", err)
			break
		}
		if wouldBlock {
			if _, exited, _ := shell.TryWait(); exited {
				break
			}
			continue
		}
	}

	code, err := shell.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestSetSize(t *testing.T) {
	shell, err := SpawnShell("", nil)
	require.NoError(t, err)
	defer shell.Close()
	defer shell.Kill()

	assert.NoError(t, shell.SetSize(40, 100))
}
