// Package executor implements C7: driving a command on a PTY to
// completion with timeout, raw+sanitized output, and an optional
// streaming chunk channel bridging blocking PTY I/O onto the cooperative
// HTTP/WS scheduler.
//
// The read-loop shape is grounded on termbrowser's persistent PTY-reader
// goroutine (terminal.Manager.GetOrCreate's `go func() { ... s.ptmx.Read
// (buf) ... }`), and the bounded fan-out channel on blaxel-ai-sandbox's
// readLoop/broadcast/Subscriber pattern, adapted from "one session, many
// subscribers" to "one execution, one chunk channel."
package executor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iyulab/shell-tunnel/internal/apierr"
	"github.com/iyulab/shell-tunnel/internal/ptyio"
	"github.com/iyulab/shell-tunnel/internal/vt"
)

// DefaultTimeout is applied when Command.Timeout is zero.
const DefaultTimeout = 30 * time.Second

const readBufSize = 4096

// pollInterval is the would-block retry sleep, per spec §4.7 step 2.
const pollInterval = 10 * time.Millisecond

// ChunkChanCapacity is the minimum bounded channel capacity for streaming
// execution, per spec §4.7.
const ChunkChanCapacity = 64

// denylist holds the small set of obviously destructive command patterns
// this core refuses to spawn at all, per SPEC_FULL.md's supplemented
// denylist feature. This is not a sandbox: anything not matched here runs
// unrestricted.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`^\s*rm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s+/\s*$`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|\s*:&\s*\}\s*;\s*:`),
	regexp.MustCompile(`^\s*mkfs`),
	regexp.MustCompile(`^\s*dd\s+if=/dev/zero\s+of=/dev/sd`),
}

func isDenied(commandLine string) bool {
	for _, re := range denylist {
		if re.MatchString(commandLine) {
			return true
		}
	}
	return false
}

// Command is one execution request.
type Command struct {
	CommandLine string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration // zero means DefaultTimeout
}

func (c Command) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// ExecutionResult is the outcome of one command execution.
type ExecutionResult struct {
	RawOutput []byte
	Output    string // sanitized text, per C6
	ExitCode  *int   // nil iff timed out or the status is unobtainable
	Duration  time.Duration
	TimedOut  bool
}

// Success reports true only when the command completed with exit code 0
// and did not time out — the client is never told success=true otherwise.
func (r ExecutionResult) Success() bool {
	return !r.TimedOut && r.ExitCode != nil && *r.ExitCode == 0
}

// ChunkSource tags where an OutputChunk came from. A PTY multiplexes
// stdout/stderr onto one stream, so this core always tags Combined.
type ChunkSource int

const (
	SourceCombined ChunkSource = iota
	SourceStdout
	SourceStderr
)

// OutputChunk is one segment of streamed output.
type OutputChunk struct {
	Raw    []byte
	Text   string // UTF-8-lossy view of Raw
	Source ChunkSource
}

// Execute runs cmd synchronously to completion (or timeout) and returns
// the full result. This is the body spec §4.7 describes: spawn, write the
// command line, loop on non-blocking reads, probe exit, sanitize.
func Execute(cmd Command) (ExecutionResult, error) {
	if isDenied(cmd.CommandLine) {
		return ExecutionResult{}, apierr.ExecutionFailed("command matches the destructive-pattern denylist")
	}

	start := time.Now()
	shell, err := ptyio.SpawnCommand(cmd.CommandLine, cmd.WorkingDir, cmd.Env)
	if err != nil {
		return ExecutionResult{}, err
	}
	defer shell.Close()

	if _, err := shell.Writer().Write([]byte(cmd.CommandLine + "\n")); err != nil {
		return ExecutionResult{}, apierr.IO(err)
	}

	raw, timedOut, readErr := readLoop(shell, cmd.timeout(), nil)
	if readErr != nil {
		return ExecutionResult{}, readErr
	}

	result := ExecutionResult{
		RawOutput: raw,
		Output:    vt.Strip(raw),
		Duration:  time.Since(start),
		TimedOut:  timedOut,
	}

	if timedOut {
		// Best-effort kill; the reported result does not depend on this
		// succeeding, per spec §9's open-question resolution.
		_ = shell.Kill()
		return result, nil
	}

	code, err := shell.Wait()
	if err != nil {
		logrus.WithError(err).Warn("executor: wait for child failed")
		return result, nil // ExitCode stays nil: status unobtainable
	}
	result.ExitCode = &code
	return result, nil
}

// readLoop implements spec §4.7 steps 1-3: poll elapsed time against the
// timeout, attempt a non-blocking read, sleep ~10ms on would-block, and
// stop once the child has exited and residual output has been drained.
// If chunks is non-nil, every successful read's bytes are also pushed as
// one OutputChunk (never split further).
func readLoop(shell *ptyio.SpawnedShell, timeout time.Duration, chunks chan<- OutputChunk) ([]byte, bool, error) {
	var acc []byte
	buf := make([]byte, readBufSize)
	deadline := time.Now().Add(timeout)
	childDone := false

	for {
		if time.Now().After(deadline) {
			return acc, true, nil
		}

		n, wouldBlock, err := shell.ReadChunk(buf, pollInterval)
		if err != nil {
			if ptyio.IsCleanTermination(err) {
				return acc, false, nil // child exited: EOF/EIO is not a failure
			}
			return acc, false, apierr.IO(err)
		}
		if wouldBlock {
			if childDone {
				return acc, false, nil // residual output drained after exit
			}
			if _, exited, _ := shell.TryWait(); exited {
				childDone = true
				continue // one more pass to drain any residual output
			}
			time.Sleep(pollInterval)
			continue
		}

		chunk := append([]byte(nil), buf[:n]...)
		acc = append(acc, chunk...)
		if chunks != nil {
			sendChunk(chunks, OutputChunk{Raw: chunk, Text: lossyText(chunk), Source: SourceCombined})
		}

		if !childDone {
			if _, exited, _ := shell.TryWait(); exited {
				childDone = true
			}
		}
	}
}

// sendChunk performs a blocking send from inside the worker: it waits
// while the channel's buffer is full. A panic raised by the send is
// recovered here so that it cannot abort the worker.
func sendChunk(ch chan<- OutputChunk, c OutputChunk) {
	defer func() { recover() }()
	ch <- c
}

func lossyText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// Handle is returned by ExecuteAsync: a receiver of output chunks plus a
// completion future for the final result.
type Handle struct {
	Chunks <-chan OutputChunk
	result chan asyncResult
}

type asyncResult struct {
	res ExecutionResult
	err error
}

// Wait blocks until the background execution completes and returns its
// result. The result channel carries exactly one value; call Wait exactly
// once per Handle.
func (h *Handle) Wait(ctx context.Context) (ExecutionResult, error) {
	select {
	case r, ok := <-h.result:
		if !ok {
			return ExecutionResult{}, apierr.ChannelClosed()
		}
		return r.res, r.err
	case <-ctx.Done():
		return ExecutionResult{}, ctx.Err()
	}
}

// ExecuteAsync dispatches the same logic as Execute onto a dedicated
// blocking worker goroutine and streams chunks back over a bounded
// channel as they are read. Chunk sends block while the channel's
// ChunkChanCapacity buffer is full: a worker whose caller stops draining
// runs to completion only when the remaining chunks fit in that buffer;
// otherwise it waits on the send until the channel is drained again.
func ExecuteAsync(cmd Command) *Handle {
	chunks := make(chan OutputChunk, ChunkChanCapacity)
	resultCh := make(chan asyncResult, 1)
	h := &Handle{Chunks: chunks, result: resultCh}

	go func() {
		defer close(chunks)
		defer func() {
			if r := recover(); r != nil {
				resultCh <- asyncResult{err: apierr.TaskError(panicErr(r))}
			}
			close(resultCh)
		}()

		if isDenied(cmd.CommandLine) {
			resultCh <- asyncResult{err: apierr.ExecutionFailed("command matches the destructive-pattern denylist")}
			return
		}

		start := time.Now()
		shell, err := ptyio.SpawnCommand(cmd.CommandLine, cmd.WorkingDir, cmd.Env)
		if err != nil {
			resultCh <- asyncResult{err: err}
			return
		}
		defer shell.Close()

		if _, err := shell.Writer().Write([]byte(cmd.CommandLine + "\n")); err != nil {
			resultCh <- asyncResult{err: apierr.IO(err)}
			return
		}

		raw, timedOut, readErr := readLoop(shell, cmd.timeout(), chunks)
		if readErr != nil {
			resultCh <- asyncResult{err: readErr}
			return
		}

		result := ExecutionResult{
			RawOutput: raw,
			Output:    vt.Strip(raw),
			Duration:  time.Since(start),
			TimedOut:  timedOut,
		}
		if timedOut {
			_ = shell.Kill()
			resultCh <- asyncResult{res: result}
			return
		}

		code, err := shell.Wait()
		if err != nil {
			logrus.WithError(err).Warn("executor: wait for child failed")
			resultCh <- asyncResult{res: result}
			return
		}
		result.ExitCode = &code
		resultCh <- asyncResult{res: result}
	}()

	return h
}

func panicErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return panicValue{r}
}

// panicValue wraps an arbitrary recovered panic value as an error.
type panicValue struct{ v interface{} }

func (e panicValue) Error() string {
	if s, ok := e.v.(string); ok {
		return "panic: " + s
	}
	return "panic: non-string panic value"
}
