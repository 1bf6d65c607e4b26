package pagealloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeakTrackerReportsOutstandingAllocation(t *testing.T) {
	t.Parallel()
	inner, err := NewBuddyAllocator(scenarioL)
	require.NoError(t, err)
	lt := NewLeakTracker(inner)

	p := lt.Allocate(48)
	require.NotNil(t, p, "Allocate(48) returned nil")
	leaks := lt.Leaks()
	rec, ok := leaks[p]
	require.True(t, ok, "outstanding allocation missing from Leaks()")
	assert.EqualValues(t, 48, rec.Size)
	assert.NotEmpty(t, rec.File)
	assert.NotZero(t, rec.Line)

	lt.Free(p)
	assert.Empty(t, lt.Leaks(), "Leaks() should be empty after Free")
}

func TestLeakTrackerReallocateMovesRecord(t *testing.T) {
	t.Parallel()
	inner, err := NewBuddyAllocator(scenarioL)
	require.NoError(t, err)
	lt := NewLeakTracker(inner)

	p := lt.Allocate(16)
	p2 := lt.Reallocate(p, 4096)
	require.NotNil(t, p2, "Reallocate returned nil")

	leaks := lt.Leaks()
	if p != p2 {
		_, stillTracked := leaks[p]
		assert.False(t, stillTracked, "old address still tracked after Reallocate moved it")
	}
	rec, ok := leaks[p2]
	require.True(t, ok, "new address missing from Leaks() after Reallocate")
	assert.EqualValues(t, 4096, rec.Size)

	lt.Free(p2)
	assert.Empty(t, lt.Leaks(), "Leaks() should be empty after freeing the reallocated address")
}

func TestLeakTrackerDelegatesPageCountAndGC(t *testing.T) {
	t.Parallel()
	inner, err := NewSegregatedAllocator(scenarioL)
	require.NoError(t, err)
	lt := NewLeakTracker(inner)

	p := lt.Allocate(24)
	require.NotNil(t, p, "Allocate(24) returned nil")
	assert.Equal(t, inner.PageCount(), lt.PageCount())
	lt.GC()
	assert.Equal(t, inner.PageCount(), lt.PageCount())
}
