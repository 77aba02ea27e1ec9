package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/iyulab/shell-tunnel/internal/keystore"
	"github.com/iyulab/shell-tunnel/internal/ratelimit"
)

// admission composes the rate-limit + auth gate every non-health
// endpoint passes through. Rate-limit runs first so an overloaded
// endpoint cannot be used as an auth oracle, per spec §4.10.
func admission(limiter *ratelimit.Limiter, keys *keystore.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := limiter.Check(sourceAddr(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		if !decision.Allowed {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", "")
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		layout := keys.Layout()
		if !keys.Admit(r.Header.Get(layout.HeaderName)) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sourceAddr extracts the client address the rate limiter keys on,
// preferring X-Forwarded-For (first hop) and falling back to
// RemoteAddr.
func sourceAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
