package executor

import (
	"time"

	"github.com/iyulab/shell-tunnel/internal/apierr"
	"github.com/iyulab/shell-tunnel/internal/session"
)

// InSession looks up id, verifies it can execute, flips it Idle->Active,
// runs cmd synchronously, flips it back Active->Idle regardless of
// outcome, touches its activity timestamp, and records the exit code into
// its context — per spec §4.7's "Execute-in-session" operation.
func InSession(reg *session.Registry, id session.ID, cmd Command) (ExecutionResult, error) {
	rec, ok, err := reg.Get(id)
	if err != nil {
		return ExecutionResult{}, err
	}
	if !ok {
		return ExecutionResult{}, apierr.SessionNotFound(id.String())
	}
	if !rec.State.CanExecute() {
		return ExecutionResult{}, apierr.NotExecutable(rec.State.String())
	}

	if err := reg.Update(id, func(r *session.Record) {
		_ = r.State.TransitionTo(session.Active)
	}); err != nil {
		return ExecutionResult{}, err
	}

	if cmd.WorkingDir == "" {
		cmd.WorkingDir = rec.Context.Cwd
	}

	result, execErr := Execute(cmd)

	updateErr := reg.Update(id, func(r *session.Record) {
		_ = r.State.TransitionTo(session.Idle)
		r.LastActive = time.Now()
		if execErr == nil {
			r.Context.RecordExecution(cmd.CommandLine, result.ExitCode)
		}
	})

	if execErr != nil {
		return ExecutionResult{}, execErr
	}
	return result, updateErr
}
