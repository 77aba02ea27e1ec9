// Package admin implements the additive admin surface described in
// SPEC_FULL.md: a password+TOTP login issuing a short-lived JWT session
// cookie, gating the runtime key-management endpoints that mutate the
// C8 keystore. Adapted wholesale from termbrowser/auth.Manager,
// generalized from "gate the web terminal UI" to "gate the admin API."
package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid admin credentials")

const sessionCookieName = "st_admin_session"

// Manager verifies admin logins and issues/validates JWT session cookies.
type Manager struct {
	passwordHash []byte
	totpSecret   string
	jwtSecret    []byte
}

// NewManager constructs a Manager from a bcrypt password hash, a TOTP
// secret, and a JWT signing secret.
func NewManager(passwordHash, totpSecret string, jwtSecret []byte) *Manager {
	return &Manager{
		passwordHash: []byte(passwordHash),
		totpSecret:   totpSecret,
		jwtSecret:    jwtSecret,
	}
}

// Verify checks a password + TOTP code pair.
func (m *Manager) Verify(password, totpCode string) error {
	pwErr := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password))
	totpOK := totp.Validate(totpCode, m.totpSecret)
	if pwErr != nil || !totpOK {
		return errInvalidCredentials
	}
	return nil
}

// IssueToken mints a 1-hour JWT admin session token.
func (m *Manager) IssueToken() (string, error) {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}

// SetCookie attaches the session token as an HttpOnly, SameSite=Strict
// cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, tokenStr string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    tokenStr,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   3600,
		Path:     "/api/v1/admin",
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		MaxAge: -1,
		Path:   "/api/v1/admin",
	})
}

// ValidateRequest checks the session cookie against the JWT secret.
func (m *Manager) ValidateRequest(r *http.Request) error {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return errInvalidCredentials
	}
	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidCredentials
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return errInvalidCredentials
	}
	return nil
}

// Middleware rejects any request without a valid admin session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.ValidateRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
