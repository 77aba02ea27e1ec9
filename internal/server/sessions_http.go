package server

import (
	"net/http"
	"time"

	"github.com/iyulab/shell-tunnel/internal/apierr"
	"github.com/iyulab/shell-tunnel/internal/executor"
	"github.com/iyulab/shell-tunnel/internal/session"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.registry.List()
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	summaries := make([]sessionSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, toSessionSummary(rec))
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Count: len(summaries), Sessions: summaries})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeAPIErr(w, err)
			return
		}
	}

	id, err := s.registry.Create(session.Config{
		Shell:      req.Shell,
		WorkingDir: req.WorkingDir,
		Env:        req.Env,
	})
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:    id.AsRaw(),
		SessionIDStr: id.String(),
	})
}

func parseSessionID(r *http.Request) (session.ID, error) {
	raw := r.PathValue("id")
	// Accept either the canonical sess-XXXXXXXX form or a bare decimal u64,
	// since §6 shows both shapes appearing on the wire (session_id vs
	// session_id_str) and clients may round-trip either one in the path.
	if id, err := session.ParseID(raw); err == nil {
		return id, nil
	}
	var v uint64
	if _, err := parseDecimal(raw, &v); err == nil {
		return session.FromRaw(v), nil
	}
	return 0, apierr.SessionNotFound(raw)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	rec, ok, err := s.registry.Get(id)
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	if !ok {
		writeAPIErr(w, apierr.SessionNotFound(id.String()))
		return
	}
	writeJSON(w, http.StatusOK, toGetSessionResponse(rec))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		writeAPIErr(w, err)
		return
	}

	// Transition to Terminated before removal, per §3's lifecycle.
	_ = s.registry.Update(id, func(rec *session.Record) {
		_ = rec.State.TransitionTo(session.Terminated)
	})

	_, ok, err := s.registry.Remove(id)
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	if !ok {
		writeAPIErr(w, apierr.SessionNotFound(id.String()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecuteInSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAPIErr(w, err)
		return
	}

	result, err := executor.InSession(s.registry, id, toCommand(req))
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExecuteResponse(result))
}

func (s *Server) handleExecuteOneShot(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAPIErr(w, err)
		return
	}
	result, err := executor.Execute(toCommand(req))
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExecuteResponse(result))
}

func toCommand(req executeRequest) executor.Command {
	cmd := executor.Command{
		CommandLine: req.Command,
		WorkingDir:  req.WorkingDir,
		Env:         req.Env,
	}
	if req.TimeoutSecs != nil {
		cmd.Timeout = time.Duration(*req.TimeoutSecs) * time.Second
	}
	return cmd
}

func toExecuteResponse(result executor.ExecutionResult) executeResponse {
	raw := string(result.RawOutput)
	return executeResponse{
		Success:    result.Success(),
		ExitCode:   result.ExitCode,
		Output:     result.Output,
		RawOutput:  &raw,
		DurationMs: uint64(result.Duration.Milliseconds()),
		TimedOut:   result.TimedOut,
	}
}

func parseDecimal(s string, out *uint64) (int, error) {
	var v uint64
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n, apierr.BadRequest("not a decimal number")
		}
		v = v*10 + uint64(c-'0')
		n++
	}
	if n == 0 {
		return 0, apierr.BadRequest("empty decimal number")
	}
	*out = v
	return n, nil
}
