package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateGetRemoveSymmetry(t *testing.T) {
	reg := NewRegistry()

	id, err := reg.Create(Config{WorkingDir: "/tmp"})
	require.NoError(t, err)

	rec, ok, err := reg.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, Idle, rec.State)
	assert.Equal(t, "/tmp", rec.Context.Cwd)

	removed, ok, err := reg.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, removed.ID)

	_, ok, err = reg.Get(id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.Remove(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryGetMissing(t *testing.T) {
	reg := NewRegistry()
	_, ok, err := reg.Get(FromRaw(999))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryUpdateMissingReturnsNotFound(t *testing.T) {
	reg := NewRegistry()
	err := reg.Update(FromRaw(999), func(r *Record) {})
	assert.Error(t, err)
}

func TestRegistryListCount(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		_, err := reg.Create(Config{})
		require.NoError(t, err)
	}
	n, err := reg.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	list, err := reg.List()
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestRegistryConcurrentCreate(t *testing.T) {
	reg := NewRegistry()
	const n = 100
	var wg sync.WaitGroup
	ids := make(chan ID, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := reg.Create(Config{})
			require.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ID]bool)
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, n)

	count, err := reg.Count()
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestRegistrySweepIdle(t *testing.T) {
	reg := NewRegistry()

	staleID, err := reg.Create(Config{})
	require.NoError(t, err)
	require.NoError(t, reg.Update(staleID, func(r *Record) {
		r.LastActive = time.Now().Add(-time.Hour)
	}))

	freshID, err := reg.Create(Config{})
	require.NoError(t, err)

	removed, err := reg.SweepIdle(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, err := reg.Get(staleID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.Get(freshID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordCloneIndependence(t *testing.T) {
	reg := NewRegistry()
	id, err := reg.Create(Config{Env: map[string]string{"A": "1"}})
	require.NoError(t, err)

	rec, _, err := reg.Get(id)
	require.NoError(t, err)
	rec.Context.Env["A"] = "mutated"

	rec2, _, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "1", rec2.Context.Env["A"], "snapshot must not alias the stored record")
}
