package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/iyulab/shell-tunnel/internal/apierr"
	"github.com/iyulab/shell-tunnel/internal/executor"
	"github.com/iyulab/shell-tunnel/internal/session"
)

// wsConn serializes writes to one WebSocket connection (gorilla's Conn
// permits only one concurrent writer) while the protocol loop below
// drives reads serially on its own goroutine.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(frame wsFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame)
}

// handleOneShotWebSocket implements the "ANY(WS) /api/v1/ws" endpoint:
// the one-shot protocol loop with no session binding, per spec §4.10.
func (s *Server) handleOneShotWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws: upgrade failed")
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	s.runProtocolLoop(wc, nil)
}

// handleSessionWebSocket implements "ANY(WS) /api/v1/sessions/{id}/ws":
// it first verifies the session exists, sending one SESSION_NOT_FOUND
// error frame and closing if not, per spec §4.10.
func (s *Server) handleSessionWebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		writeAPIErr(w, err)
		return
	}
	if ok, _ := s.registry.Contains(id); !ok {
		conn, upErr := s.upgrader.Upgrade(w, r, nil)
		if upErr != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(wsFrame{Type: "error", Code: "SESSION_NOT_FOUND", Message: "session not found"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws: upgrade failed")
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	s.runProtocolLoop(wc, &id)
}

// runProtocolLoop drives the frame protocol for one connection. When
// sessionID is non-nil, a successful execute updates that session's
// context; otherwise this is the one-shot (registry-free) variant.
func (s *Server) runProtocolLoop(wc *wsConn, sessionID *session.ID) {
	for {
		msgType, data, err := wc.conn.ReadMessage()
		if err != nil {
			return // close or I/O error: loop exits cleanly, per spec §4.10
		}
		if msgType == websocket.BinaryMessage {
			continue // binary frames from the client are ignored
		}

		var frame wsFrame
		if jsonErr := json.Unmarshal(data, &frame); jsonErr != nil {
			wc.send(wsFrame{Type: "error", Code: "PARSE_ERROR", Message: jsonErr.Error()})
			continue
		}

		switch frame.Type {
		case "ping":
			wc.send(wsFrame{Type: "pong"})
		case "execute":
			// Blocking the read loop here is what guarantees frames
			// arriving mid-execute are only processed after this execute's
			// result/error frame, per spec §4.10.
			s.runExecute(wc, sessionID, frame)
		default:
			// any other frame type is ignored
		}
	}
}

func (s *Server) runExecute(wc *wsConn, sessionID *session.ID, frame wsFrame) {
	cmd := executor.Command{CommandLine: frame.Command}
	if frame.TimeoutSecs != nil {
		cmd.Timeout = time.Duration(*frame.TimeoutSecs) * time.Second
	}

	if sessionID != nil {
		rec, ok, err := s.registry.Get(*sessionID)
		if err != nil {
			wc.send(wsFrame{Type: "error", Code: "INTERNAL_ERROR", Message: err.Error()})
			return
		}
		if !ok {
			wc.send(wsFrame{Type: "error", Code: "SESSION_NOT_FOUND", Message: "session not found"})
			return
		}
		if !rec.State.CanExecute() {
			wc.send(wsFrame{Type: "error", Code: "INVALID_STATE", Message: "session not executable in state " + rec.State.String()})
			return
		}
		if cmd.WorkingDir == "" {
			cmd.WorkingDir = rec.Context.Cwd
		}
		if err := s.registry.Update(*sessionID, func(r *session.Record) {
			_ = r.State.TransitionTo(session.Active)
		}); err != nil {
			wc.send(wsFrame{Type: "error", Code: "INTERNAL_ERROR", Message: err.Error()})
			return
		}
	}

	handle := executor.ExecuteAsync(cmd)

	for chunk := range handle.Chunks {
		if err := wc.send(wsFrame{Type: "output", Data: chunk.Text, IsFinal: false}); err != nil {
			// Client disconnected mid-stream: stop sending, but keep
			// draining so the worker still runs to completion, per
			// spec §4.7/§5's "continues to completion" contract.
			drainChunks(handle)
			break
		}
	}

	result, err := handle.Wait(context.Background())

	if sessionID != nil {
		_ = s.registry.Update(*sessionID, func(r *session.Record) {
			_ = r.State.TransitionTo(session.Idle)
			r.LastActive = time.Now()
			if err == nil {
				r.Context.RecordExecution(cmd.CommandLine, result.ExitCode)
			}
		})
	}

	if err != nil {
		var apiErr *apierr.Error
		if apierr.As(err, &apiErr) {
			wc.send(wsFrame{Type: "error", Code: apiErr.Code(), Message: apiErr.Error()})
		} else {
			wc.send(wsFrame{Type: "error", Code: "TASK_ERROR", Message: err.Error()})
		}
		return
	}

	wc.send(wsFrame{
		Type:       "result",
		Success:    result.Success(),
		ExitCode:   result.ExitCode,
		DurationMs: uint64(result.Duration.Milliseconds()),
		TimedOut:   result.TimedOut,
	})
}

// drainChunks discards remaining chunks without forwarding them, keeping
// the worker's blocking channel send unblocked.
func drainChunks(h *executor.Handle) {
	for range h.Chunks {
	}
}
