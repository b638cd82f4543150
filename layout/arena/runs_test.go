package arena

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// spreadArena reserves 4-byte elements at 0, 16, 32, 48 - the footprint
// shape a stride/spread placement leaves behind.
func spreadArena(t *testing.T) *Arena {
	t.Helper()
	a := New("origin")
	for i := uint64(0); i < 4; i++ {
		require.NoError(t, a.Reserve(types.NewRange(i*16, 4), "a"))
	}
	return a
}

func TestFreeRunsWithinBound(t *testing.T) {
	a := spreadArena(t)

	runs := a.FreeRuns(types.Range{Start: 0, End: 64})
	require.Equal(t, []types.Range{
		{Start: 4, End: 16},
		{Start: 20, End: 32},
		{Start: 36, End: 48},
		{Start: 52, End: 64},
	}, runs)
}

func TestFreeRunsBoundCutsReservation(t *testing.T) {
	a := New("origin")
	require.NoError(t, a.Reserve(types.NewRange(8, 16), "x"))

	// A reservation reaching into the bound clips the leading run.
	runs := a.FreeRuns(types.Range{Start: 16, End: 40})
	require.Equal(t, []types.Range{{Start: 24, End: 40}}, runs)
}

func TestFreeRunsWholeArena(t *testing.T) {
	a := New("bounded", WithCapacity(64))
	require.NoError(t, a.Reserve(types.NewRange(16, 16), "mid"))

	runs := a.FreeRuns(types.Range{})
	require.Equal(t, []types.Range{
		{Start: 0, End: 16},
		{Start: 32, End: 64},
	}, runs)
}

func TestFreeRunsEmptyWhenFull(t *testing.T) {
	a := New("bounded", WithCapacity(32))
	require.NoError(t, a.Reserve(types.NewRange(0, 32), "all"))
	require.Empty(t, a.FreeRuns(types.Range{}))
}

func TestNextFreeEarliestAligned(t *testing.T) {
	a := spreadArena(t)

	// First 8-byte slot on an 8-byte boundary is 8 (run [4,16)).
	off, err := a.NextFree(8, 8, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(8), off)

	// Unaligned request takes the earliest run start.
	off, err = a.NextFree(4, 1, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(4), off)
}

func TestNextFreeOpenEndedTrailingRun(t *testing.T) {
	a := spreadArena(t) // highWater = 52

	// 100 bytes fit nowhere below the high-water mark, but the trailing
	// run [52, ...) extends into open space.
	off, err := a.NextFree(100, 1, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(52), off)
}

func TestNextFreeBoundedNoSpace(t *testing.T) {
	a := New("bounded", WithCapacity(32))
	require.NoError(t, a.Reserve(types.NewRange(0, 30), "x"))

	_, err := a.NextFree(8, 1, 0)
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestReserveEarliestPicksFirstSufficientRun(t *testing.T) {
	a := spreadArena(t)

	// 14 bytes: every run inside [0,64) is 12 bytes, nothing fits.
	_, err := a.ReserveEarliest(types.Range{Start: 0, End: 64}, 14, "big")
	require.ErrorIs(t, err, ErrNoSpace)

	// 12 bytes: earliest sufficient run is [4,16), reserved from its
	// start.
	r, err := a.ReserveEarliest(types.Range{Start: 0, End: 64}, 12, "fits")
	require.NoError(t, err)
	require.Equal(t, types.NewRange(4, 12), r)

	// The chosen run is consumed; the next caller moves on.
	r, err = a.ReserveEarliest(types.Range{Start: 0, End: 64}, 12, "next")
	require.NoError(t, err)
	require.Equal(t, types.NewRange(20, 12), r)
}

func TestReserveEarliestAtomicWithScan(t *testing.T) {
	a := New("origin")
	require.NoError(t, a.Reserve(types.NewRange(0, 4), "seed"))

	// Concurrent fills must never pick the same run.
	const workers = 8
	results := make(chan types.Range, workers)
	for i := 0; i < workers; i++ {
		go func() {
			r, err := a.ReserveEarliest(types.Range{Start: 0, End: 1024}, 16, "w")
			if err != nil {
				t.Error(err)
			}
			results <- r
		}()
	}
	seen := make(map[uint64]bool)
	for i := 0; i < workers; i++ {
		r := <-results
		require.False(t, seen[r.Start], "run at %d chosen twice", r.Start)
		seen[r.Start] = true
	}
}
