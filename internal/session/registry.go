// Package session implements C1-C4: session identity, the lifecycle state
// machine, per-session execution context, and the concurrent registry that
// ties them together. Grounded on termbrowser's terminal.Manager
// (sync.RWMutex over a map[string]*Session) and blaxel-ai-sandbox's
// cleanup-interval sweep for the optional idle eviction path.
package session

import (
	"time"

	"github.com/iyulab/shell-tunnel/internal/apierr"
)

// Config is the initial configuration a session is created from.
type Config struct {
	Shell      string
	WorkingDir string
	Env        map[string]string
}

// Record is the full session record: identity, state, context, timestamps,
// and the configuration that produced it.
type Record struct {
	ID         ID
	State      State
	Context    Context
	Config     Config
	CreatedAt  time.Time
	LastActive time.Time
}

// Clone returns a deep, independent copy suitable for returning to callers
// as an immutable snapshot.
func (r Record) Clone() Record {
	out := r
	out.Context = r.Context.Clone()
	return out
}

// IdleSeconds reports how long it has been since the session last recorded
// activity.
func (r Record) IdleSeconds() float64 {
	return time.Since(r.LastActive).Seconds()
}

// Registry is the concurrent id -> *Record map. All mutation happens
// through Update so that readers never observe a torn record.
type Registry struct {
	mu       rwLock
	sessions map[ID]*Record
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[ID]*Record)}
}

// Create reserves a new id, seeds a session in state Created with the
// given config, transitions it immediately to Idle (sessions are
// executable the moment creation returns, per §3's lifecycle), inserts
// it, and returns the new id. Never overwrites an existing entry.
func (r *Registry) Create(cfg Config) (ID, error) {
	id := NewID()
	now := time.Now()
	ctx := NewContext(cfg.WorkingDir)
	ctx.MergeEnv(cfg.Env)

	rec := &Record{
		ID:         id,
		State:      Created,
		Context:    ctx,
		Config:     cfg,
		CreatedAt:  now,
		LastActive: now,
	}
	// A freshly created session is executable immediately, per §3's
	// lifecycle. The legal graph has no direct Created->Idle edge, so
	// reach it via the two legal hops instead of attempting an illegal
	// single transition.
	if err := rec.State.TransitionTo(Active); err != nil {
		return 0, err
	}
	if err := rec.State.TransitionTo(Idle); err != nil {
		return 0, err
	}

	if err := r.mu.Lock(); err != nil {
		return 0, apierr.LockPoisoned()
	}
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return 0, apierr.SessionExists(id.String())
	}
	r.sessions[id] = rec
	return id, nil
}

// Get returns a snapshot copy of the session, or false if absent.
func (r *Registry) Get(id ID) (Record, bool, error) {
	if err := r.mu.RLock(); err != nil {
		return Record{}, false, apierr.LockPoisoned()
	}
	defer r.mu.RUnlock()
	rec, ok := r.sessions[id]
	if !ok {
		return Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

// Contains reports whether id is present.
func (r *Registry) Contains(id ID) (bool, error) {
	if err := r.mu.RLock(); err != nil {
		return false, apierr.LockPoisoned()
	}
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok, nil
}

// Update applies f under exclusive access to the stored record for id.
// f must not perform I/O or block; it exists only to flip state and patch
// context in place. Returns apierr.SessionNotFound if id is absent.
func (r *Registry) Update(id ID, f func(*Record)) error {
	if err := r.mu.Lock(); err != nil {
		return apierr.LockPoisoned()
	}
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return apierr.SessionNotFound(id.String())
	}
	f(rec)
	return nil
}

// Remove atomically deletes id and returns the prior record, if any.
func (r *Registry) Remove(id ID) (Record, bool, error) {
	if err := r.mu.Lock(); err != nil {
		return Record{}, false, apierr.LockPoisoned()
	}
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return Record{}, false, nil
	}
	delete(r.sessions, id)
	return rec.Clone(), true, nil
}

// Count returns the current number of live sessions.
func (r *Registry) Count() (int, error) {
	if err := r.mu.RLock(); err != nil {
		return 0, apierr.LockPoisoned()
	}
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// ListIDs returns a snapshot of all currently live ids.
func (r *Registry) ListIDs() ([]ID, error) {
	if err := r.mu.RLock(); err != nil {
		return nil, apierr.LockPoisoned()
	}
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// List returns a snapshot of all currently live records.
func (r *Registry) List() ([]Record, error) {
	if err := r.mu.RLock(); err != nil {
		return nil, apierr.LockPoisoned()
	}
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.sessions))
	for _, rec := range r.sessions {
		out = append(out, rec.Clone())
	}
	return out, nil
}

// RemoveMatching performs a single-pass sweep, removing every session for
// which pred returns true, and reports how many were removed. Used by
// the optional idle-timeout sweeper (SweepIdle).
func (r *Registry) RemoveMatching(pred func(Record) bool) (int, error) {
	if err := r.mu.Lock(); err != nil {
		return 0, apierr.LockPoisoned()
	}
	defer r.mu.Unlock()
	removed := 0
	for id, rec := range r.sessions {
		if pred(rec.Clone()) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// SweepIdle removes every Terminated session and every session that has
// exceeded maxIdle without activity. Sessions are removed directly; their
// state is not changed before removal. This is the optional eviction
// policy §3 permits but does not mandate.
func (r *Registry) SweepIdle(maxIdle time.Duration) (int, error) {
	return r.RemoveMatching(func(rec Record) bool {
		if rec.State.IsTerminal() {
			return true
		}
		return time.Since(rec.LastActive) > maxIdle
	})
}
