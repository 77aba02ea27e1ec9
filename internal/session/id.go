package session

import (
	"fmt"
	"sync/atomic"
)

// ID is a session identifier: a process-wide monotonic counter value.
// Its canonical textual form is "sess-XXXXXXXX" (8 lowercase hex digits,
// zero-padded), which is what appears on the wire alongside the raw u64.
type ID uint64

var idCounter uint64 // fetch-and-incremented by NewID, starts at 1

// NewID atomically reserves the next session id. Concurrent callers never
// observe the same value.
func NewID() ID {
	return ID(atomic.AddUint64(&idCounter, 1))
}

// ResetCounterForTest rewinds the global counter; tests only.
func ResetCounterForTest() {
	atomic.StoreUint64(&idCounter, 0)
}

// AsRaw returns the id's raw u64 value.
func (id ID) AsRaw() uint64 { return uint64(id) }

// FromRaw reconstructs an ID from a raw u64, for tests or wire decoding.
func FromRaw(v uint64) ID { return ID(v) }

// String renders the canonical "sess-XXXXXXXX" form, truncated to the
// low 32 bits as the spec requires.
func (id ID) String() string {
	return fmt.Sprintf("sess-%08x", uint32(id))
}

// ParseID reads the canonical "sess-" + 8 hex digit form. Any deviation
// is reported as an error (callers surface apierr.SessionNotFound).
func ParseID(s string) (ID, error) {
	const prefix = "sess-"
	if len(s) != len(prefix)+8 || s[:len(prefix)] != prefix {
		return 0, fmt.Errorf("malformed session id %q", s)
	}
	var v uint32
	if _, err := fmt.Sscanf(s[len(prefix):], "%08x", &v); err != nil {
		return 0, fmt.Errorf("malformed session id %q: %w", s, err)
	}
	// Reject anything that round-trips to a different string (e.g. stray
	// uppercase hex digits that Sscanf tolerates but String() never emits).
	if ID(v).String() != s {
		return 0, fmt.Errorf("malformed session id %q", s)
	}
	return ID(v), nil
}
