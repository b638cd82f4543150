package fill

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// spreadContainer reserves the footprint of a 4-element spread with
// 4-byte elements and gap 3: elements at 0, 16, 32, 48, footprint [0,64).
func spreadContainer(t *testing.T) (*arena.Arena, types.LayoutEntry) {
	t.Helper()
	ar := arena.New("origin")
	for i := uint64(0); i < 4; i++ {
		require.NoError(t, ar.Reserve(types.NewRange(i*16, 4), "a"))
	}
	entry := types.LayoutEntry{
		Base: 0, Stride: 16, ElemSize: 4, Count: 4,
		Direction: types.Forward, Arena: "origin",
	}
	return ar, entry
}

func decl(id string, elem, count uint64) *graph.Decl {
	return &graph.Decl{Stmt: graph.Stmt{ID: id, ElemSize: elem, Count: count}}
}

func TestFillTakesEarliestSufficientRun(t *testing.T) {
	ar, container := spreadContainer(t)

	// 4-byte filler lands at 4: the first free run [4,16) is 12 >= 4.
	entry, warn, err := Place(ar, decl("b", 4, 1), container)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, uint64(4), entry.Base)

	// Fill is sequential: the next fillers pack behind it.
	entry, warn, err = Place(ar, decl("c", 1, 1), container)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, uint64(8), entry.Base)

	entry, warn, err = Place(ar, decl("d", 2, 1), container)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, uint64(9), entry.Base)
}

func TestFillNeverSplitsAcrossRuns(t *testing.T) {
	ar, container := spreadContainer(t)

	// 20 bytes exceed every run inside the footprint (12 each), even
	// though 48 bytes are free in total. The filler must not be split.
	entry, warn, err := Place(ar, decl("big", 20, 1), container)
	require.NoError(t, err)
	require.NotNil(t, warn)
	require.Equal(t, types.KindFallbackAllocation, warn.Kind)
	require.Equal(t, types.SevWarning, warn.Severity)

	// Fallback lands strictly outside the footprint.
	require.GreaterOrEqual(t, entry.Base, container.End())
	require.False(t, entry.Footprint().Overlaps(container.Footprint()))
}

func TestFillSkipsShortRuns(t *testing.T) {
	ar := arena.New("origin")
	// Occupied: [0,4), [6,16). Free inside [0,32): [4,6) then [16,32).
	require.NoError(t, ar.Reserve(types.NewRange(0, 4), "a"))
	require.NoError(t, ar.Reserve(types.NewRange(6, 10), "a"))
	container := types.LayoutEntry{Base: 0, Stride: 8, ElemSize: 4, Count: 4, Arena: "origin"}

	// 8 bytes skip the 2-byte run and take the earliest sufficient one.
	entry, warn, err := Place(ar, decl("f", 8, 1), container)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, uint64(16), entry.Base)
}

func TestFillIsRecursive(t *testing.T) {
	ar, container := spreadContainer(t)

	// First filler claims [4,16) entirely.
	first, _, err := Place(ar, decl("buf", 12, 1), container)
	require.NoError(t, err)
	require.Equal(t, uint64(4), first.Base)

	// A later fill of the same container sees the remaining runs.
	second, _, err := Place(ar, decl("next", 4, 1), container)
	require.NoError(t, err)
	require.Equal(t, uint64(20), second.Base)

	// And the first filler's own footprint is immediately fillable.
	require.NoError(t, ar.Release(types.NewRange(4, 12)))
	require.NoError(t, ar.Reserve(types.NewRange(4, 4), "buf"))
	inner, _, err := Place(ar, decl("inner", 4, 1), first)
	require.NoError(t, err)
	require.Equal(t, uint64(8), inner.Base)
}

func TestFillDoesNotRelocateContainer(t *testing.T) {
	ar, container := spreadContainer(t)
	before := ar.Reservations()

	_, _, err := Place(ar, decl("b", 4, 1), container)
	require.NoError(t, err)

	after := ar.Reservations()
	// Every original reservation survives at its original offset.
	require.Subset(t, after, before)
}

func TestFillMultiElementFiller(t *testing.T) {
	ar, container := spreadContainer(t)

	// M = elem x count = 3 x 4 = 12 contiguous bytes.
	entry, warn, err := Place(ar, decl("arr", 3, 4), container)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, uint64(4), entry.Base)
	require.Equal(t, uint64(3), entry.Stride)
	require.Equal(t, uint64(4), entry.Count)
}
