package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/iyulab/shell-tunnel/internal/admin"
	"github.com/iyulab/shell-tunnel/internal/config"
	"github.com/iyulab/shell-tunnel/internal/keystore"
	"github.com/iyulab/shell-tunnel/internal/ratelimit"
	"github.com/iyulab/shell-tunnel/internal/session"
)

const serverVersion = "0.1.0"

// Server owns the wiring between C4 (registry), C7 (via the executor
// package's free functions), C8 (keystore), and C9 (limiter), and
// exposes the C10 request surface. Grounded on termbrowser/server.go's
// Server struct and New/Run split.
type Server struct {
	cfg      config.Server
	registry *session.Registry
	keys     *keystore.Store
	limiter  *ratelimit.Limiter
	admin    *admin.Handlers // nil if admin bootstrap was not configured
	upgrader websocket.Upgrader
}

// New constructs a Server. admin may be nil if no admin store was
// configured; its endpoints are simply not mounted.
func New(cfg config.Server, registry *session.Registry, keys *keystore.Store, limiter *ratelimit.Limiter, adm *admin.Handlers) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		keys:     keys,
		limiter:  limiter,
		admin:    adm,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Mux builds the full route table with the admission chain applied to
// every /api/v1 info, session, execute and WebSocket endpoint, per spec
// §4.10. The admin routes, mounted only when configured, do not pass
// through the admission chain; they are gated by the admin JWT session.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	gated := func(h http.HandlerFunc) http.Handler {
		return admission(s.limiter, s.keys, h)
	}

	mux.Handle("GET /api/v1", gated(s.handleInfo))
	mux.Handle("GET /api/v1/sessions", gated(s.handleListSessions))
	mux.Handle("POST /api/v1/sessions", gated(s.handleCreateSession))
	mux.Handle("GET /api/v1/sessions/{id}", gated(s.handleGetSession))
	mux.Handle("DELETE /api/v1/sessions/{id}", gated(s.handleDeleteSession))
	mux.Handle("POST /api/v1/sessions/{id}/execute", gated(s.handleExecuteInSession))
	mux.Handle("POST /api/v1/execute", gated(s.handleExecuteOneShot))
	mux.Handle("GET /api/v1/sessions/{id}/ws", gated(s.handleSessionWebSocket))
	mux.Handle("GET /api/v1/ws", gated(s.handleOneShotWebSocket))

	if s.admin != nil {
		s.admin.Register(mux)
	}

	mux.Handle("/", http.NotFoundHandler())

	return corsMiddleware(mux)
}

// Run starts the HTTP server, blocking until it exits.
func (s *Server) Run() error {
	addr := s.cfg.Addr()
	logrus.Infof("shell-tunnel listening on %s", addr)
	return http.ListenAndServe(addr, s.Mux())
}

// corsMiddleware permits all origins/methods/headers, per spec §6.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Name:    "shell-tunnel",
		Version: serverVersion,
		Status:  "running",
	})
}
