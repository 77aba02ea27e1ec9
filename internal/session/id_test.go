package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDUnique(t *testing.T) {
	ResetCounterForTest()
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.False(t, seen[id], "duplicate id %v", id)
		seen[id] = true
	}
}

func TestNewIDConcurrentUnique(t *testing.T) {
	ResetCounterForTest()
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[ID]bool)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestIDStringRoundTrip(t *testing.T) {
	id := FromRaw(42)
	assert.Equal(t, "sess-0000002a", id.String())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"sess-",
		"sess-1",
		"sess-zzzzzzzz",
		"SESS-00000001",
		"sess-0000002A", // uppercase hex never round-trips
		"not-a-session-id",
	}
	for _, c := range cases {
		_, err := ParseID(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}
