//go:build windows

package ptyio

import (
	"errors"
	"io"
	"os"
)

func isTimeout(err error) bool {
	return os.IsTimeout(err)
}

// Windows has no signal-0 probe; TryWait relies solely on cmd.ProcessState
// refreshed by Wait, so liveness here is a no-op best-effort true.
func processAlive(p *os.Process) bool {
	return true
}

// isCleanTermination reports whether err is how this platform signals
// clean child termination on read. Windows PTY reads surface a plain
// EOF rather than EIO.
func isCleanTermination(err error) bool {
	return errors.Is(err, io.EOF)
}
