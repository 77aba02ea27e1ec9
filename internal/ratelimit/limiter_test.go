package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckSlidingWindowSequence(t *testing.T) {
	l := New(Config{Enabled: true, MaxRequests: 5, Window: time.Minute, MaxTrackedSources: 100})

	for i, wantRemaining := range []int{4, 3, 2, 1, 0} {
		d := l.Check("1.2.3.4")
		assert.Truef(t, d.Allowed, "check %d should be allowed", i+1)
		assert.Equal(t, wantRemaining, d.Remaining)
		assert.Equal(t, 5, d.Limit)
	}

	d := l.Check("1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestCheckDistinctSourcesShareNoQuota(t *testing.T) {
	l := New(Config{Enabled: true, MaxRequests: 1, Window: time.Minute, MaxTrackedSources: 100})

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed, "a distinct source must have its own quota")
}

func TestCheckDisabledAlwaysAllows(t *testing.T) {
	l := New(Config{Enabled: false, MaxRequests: 1, Window: time.Minute})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Check("x").Allowed)
	}
}

func TestCheckWindowExpiry(t *testing.T) {
	l := New(Config{Enabled: true, MaxRequests: 1, Window: 10 * time.Millisecond, MaxTrackedSources: 100})

	assert.True(t, l.Check("x").Allowed)
	assert.False(t, l.Check("x").Allowed)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Check("x").Allowed, "a new window should reopen the quota")
}

func TestMaxTrackedSourcesEvictsOldest(t *testing.T) {
	l := New(Config{Enabled: true, MaxRequests: 100, Window: time.Hour, MaxTrackedSources: 2})

	l.Check("a")
	time.Sleep(time.Millisecond)
	l.Check("b")
	time.Sleep(time.Millisecond)
	l.Check("c")

	// Force compaction to run on the next check regardless of elapsed time.
	l.compactMu.Lock()
	l.lastCompaction = time.Now().Add(-3 * time.Hour)
	l.compactMu.Unlock()

	l.Check("c") // triggers compaction: must evict down to MaxTrackedSources

	assert.LessOrEqual(t, l.TrackedSources(), 2)
}

func TestSetConfigPreservesHistory(t *testing.T) {
	l := New(Config{Enabled: true, MaxRequests: 1, Window: time.Minute, MaxTrackedSources: 100})
	assert.True(t, l.Check("x").Allowed)
	assert.False(t, l.Check("x").Allowed)

	l.SetConfig(Config{Enabled: true, MaxRequests: 5, Window: time.Minute, MaxTrackedSources: 100})
	d := l.Check("x")
	assert.True(t, d.Allowed, "raising the limit should admit immediately without losing prior history")
}
