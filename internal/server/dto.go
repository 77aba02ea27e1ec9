// Package server implements C10 (request surface) and C11 (wire DTOs):
// the HTTP endpoints and WebSocket upgrade handlers that compose the
// registry, executor, keystore, and rate limiter, plus the JSON shapes
// they speak. Grounded on termbrowser/server.go's route table
// (http.NewServeMux, mux.Handle(...middleware...), path-parameter
// routes) and its handleTerminal/ServeWebSocket split between HTTP
// upgrade and the stateful protocol loop.
package server

import "github.com/iyulab/shell-tunnel/internal/session"

// infoResponse backs GET /api/v1.
type infoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// sessionSummary is one entry of GET /api/v1/sessions' session list.
type sessionSummary struct {
	SessionID   uint64  `json:"session_id"`
	State       string  `json:"state"`
	IdleSeconds float64 `json:"idle_seconds"`
}

type listSessionsResponse struct {
	Count    int              `json:"count"`
	Sessions []sessionSummary `json:"sessions"`
}

// createSessionRequest backs POST /api/v1/sessions.
type createSessionRequest struct {
	Shell      string            `json:"shell,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

type createSessionResponse struct {
	SessionID    uint64 `json:"session_id"`
	SessionIDStr string `json:"session_id_str"`
}

// getSessionResponse backs GET /api/v1/sessions/{id}.
type getSessionResponse struct {
	SessionID      uint64  `json:"session_id"`
	State          string  `json:"state"`
	WorkingDir     *string `json:"working_dir,omitempty"`
	LastExitCode   *int    `json:"last_exit_code,omitempty"`
	ExecutionCount uint64  `json:"execution_count"`
	IdleSeconds    float64 `json:"idle_seconds"`
}

// executeRequest backs both POST /api/v1/sessions/{id}/execute and
// POST /api/v1/execute.
type executeRequest struct {
	Command     string            `json:"command"`
	WorkingDir  string            `json:"working_dir,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	TimeoutSecs *uint64           `json:"timeout_secs,omitempty"`
}

// executeResponse backs both execute endpoints.
type executeResponse struct {
	Success    bool    `json:"success"`
	ExitCode   *int    `json:"exit_code,omitempty"`
	Output     string  `json:"output"`
	RawOutput  *string `json:"raw_output,omitempty"`
	DurationMs uint64  `json:"duration_ms"`
	TimedOut   bool    `json:"timed_out"`
}

// errorResponse is the uniform error body per spec §6.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func toSessionSummary(rec session.Record) sessionSummary {
	return sessionSummary{
		SessionID:   rec.ID.AsRaw(),
		State:       rec.State.String(),
		IdleSeconds: rec.IdleSeconds(),
	}
}

func toGetSessionResponse(rec session.Record) getSessionResponse {
	resp := getSessionResponse{
		SessionID:      rec.ID.AsRaw(),
		State:          rec.State.String(),
		ExecutionCount: rec.Context.ExecutionCount,
		IdleSeconds:    rec.IdleSeconds(),
		LastExitCode:   rec.Context.LastExitCode,
	}
	if rec.Context.Cwd != "" {
		cwd := rec.Context.Cwd
		resp.WorkingDir = &cwd
	}
	return resp
}

// WebSocket frame schema, per spec §4.10/§6.

type wsFrame struct {
	Type string `json:"type"`

	// execute
	Command     string `json:"command,omitempty"`
	TimeoutSecs *uint64 `json:"timeout_secs,omitempty"`

	// output
	Data    string `json:"data,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`

	// result
	Success    bool   `json:"success,omitempty"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	DurationMs uint64 `json:"duration_ms,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`

	// error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
