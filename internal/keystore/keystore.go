// Package keystore implements C8: a concurrent set of accepted bearer
// credentials plus an admission predicate. Shaped after
// termbrowser/auth.Manager's credential-holder role, generalized from
// "one password+TOTP pair" to "a set of opaque bearer tokens".
package keystore

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Layout describes the wire shape admission expects: a header name and
// the prefix preceding the credential within it.
type Layout struct {
	HeaderName string
	Prefix     string
}

// DefaultLayout is "Authorization: Bearer <token>".
var DefaultLayout = Layout{HeaderName: "Authorization", Prefix: "Bearer "}

// Store is a concurrent set of accepted bearer credentials.
type Store struct {
	mu      sync.RWMutex
	keys    map[string]struct{}
	enabled bool
	layout  Layout
}

// New constructs a Store. When enabled is false, Admit always admits.
func New(enabled bool, layout Layout) *Store {
	if layout.HeaderName == "" {
		layout = DefaultLayout
	}
	return &Store{
		keys:    make(map[string]struct{}),
		enabled: enabled,
		layout:  layout,
	}
}

// Add registers a credential as accepted.
func (s *Store) Add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
}

// Remove revokes a credential.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// IsValid reports whether key is a member of the accepted set.
func (s *Store) IsValid(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Count returns the number of accepted credentials.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// List returns a snapshot of every accepted credential. Intended for the
// admin key-management surface, not the hot admission path.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}

// IsEnabled reports whether auth is enforced at all.
func (s *Store) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled toggles enforcement, used by config hot-reload.
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Layout returns the header/prefix this store expects.
func (s *Store) Layout() Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// ExtractKey strips the exact configured prefix from a header value,
// returning the bare credential. Returns ("", false) if the prefix does
// not match exactly.
func (s *Store) ExtractKey(headerValue string) (string, bool) {
	layout := s.Layout()
	if !strings.HasPrefix(headerValue, layout.Prefix) {
		return "", false
	}
	return headerValue[len(layout.Prefix):], true
}

// Admit is the admission predicate: if auth is disabled, every request is
// accepted; otherwise headerValue must carry the exact prefix followed by
// a member credential.
func (s *Store) Admit(headerValue string) bool {
	if !s.IsEnabled() {
		return true
	}
	key, ok := s.ExtractKey(headerValue)
	if !ok {
		return false
	}
	return s.IsValid(key)
}

// GenerateKey returns a printable opaque bootstrap token of the form
// "st_<unix-seconds>_<lowercase base32>", using a CSPRNG per spec §4.8/§9's explicit
// recommendation over the source's weaker generator.
func GenerateKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
	return fmt.Sprintf("st_%d_%s", time.Now().Unix(), strings.ToLower(enc)), nil
}
