package guard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/profile"
	"github.com/joshuapare/layoutkit/pkg/types"
)

func adjDecl(id, parent string, priority, index int) *graph.Decl {
	return &graph.Decl{
		Stmt: graph.Stmt{
			ID:         id,
			ElemSize:   4,
			Count:      1,
			AdjacentTo: parent,
			Priority:   priority,
		},
		Index: index,
	}
}

func TestCheckAdjacencySingleChild(t *testing.T) {
	decls := []*graph.Decl{
		{Stmt: graph.Stmt{ID: "parent", ElemSize: 8, Count: 1}, Index: 0},
		adjDecl("child", "parent", 0, 1),
	}

	children, err := CheckAdjacency(decls)
	require.NoError(t, err)
	require.Len(t, children["parent"], 1)
	require.Equal(t, "child", children["parent"][0].ID)
}

func TestCheckAdjacencyOrdersByPriorityThenIndex(t *testing.T) {
	decls := []*graph.Decl{
		{Stmt: graph.Stmt{ID: "parent", ElemSize: 8, Count: 1}, Index: 0},
		adjDecl("late-high", "parent", 2, 1),
		adjDecl("early-low", "parent", 1, 2),
		adjDecl("mid", "parent", 1, 3),
	}

	// Distinct priorities are legal... except early-low and mid collide.
	_, err := CheckAdjacency(decls)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrAdjacencyConflict)

	decls[3].Priority = 3
	children, err := CheckAdjacency(decls)
	require.NoError(t, err)

	ids := make([]string, 0, 3)
	for _, kid := range children["parent"] {
		ids = append(ids, kid.ID)
	}
	require.Equal(t, []string{"early-low", "late-high", "mid"}, ids)
}

func TestCheckAdjacencyEqualPriorityBlamesLaterDecl(t *testing.T) {
	decls := []*graph.Decl{
		{Stmt: graph.Stmt{ID: "parent", ElemSize: 8, Count: 1}, Index: 0},
		adjDecl("first", "parent", 0, 1),
		adjDecl("second", "parent", 0, 2),
	}

	_, err := CheckAdjacency(decls)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrAdjacencyConflict)
	require.Contains(t, err.Error(), "second")
	require.Contains(t, err.Error(), `"first"`)
}

func TestCheckAdjacencyDistinctParentsNeverConflict(t *testing.T) {
	decls := []*graph.Decl{
		{Stmt: graph.Stmt{ID: "p1", ElemSize: 8, Count: 1}, Index: 0},
		{Stmt: graph.Stmt{ID: "p2", ElemSize: 8, Count: 1}, Index: 1},
		adjDecl("a", "p1", 0, 2),
		adjDecl("b", "p2", 0, 3),
	}

	children, err := CheckAdjacency(decls)
	require.NoError(t, err)
	require.Len(t, children["p1"], 1)
	require.Len(t, children["p2"], 1)
}

func TestCollectBandsSurroundReservations(t *testing.T) {
	ar := arena.New("main", arena.WithProfile(profile.Embed())) // width 8
	require.NoError(t, ar.Reserve(types.NewRange(64, 16), "a"))
	require.NoError(t, ar.Reserve(types.NewRange(128, 16), "b"))

	set := Collect(ar)

	require.Equal(t, Band{
		types.Range{Start: 56, End: 64},
		types.Range{Start: 80, End: 88},
	}, set["a"])
	require.Equal(t, Band{
		types.Range{Start: 120, End: 128},
		types.Range{Start: 144, End: 152},
	}, set["b"])
}

func TestCollectClampsAgainstNeighborsAndArenaEdges(t *testing.T) {
	ar := arena.New("main",
		arena.WithProfile(profile.Embed()),
		arena.WithCapacity(40))
	require.NoError(t, ar.Reserve(types.NewRange(0, 8), "lo"))
	require.NoError(t, ar.Reserve(types.NewRange(12, 8), "mid"))
	require.NoError(t, ar.Reserve(types.NewRange(36, 4), "hi"))

	set := Collect(ar)

	// lo starts at the arena origin: no band before it, and mid's bytes
	// clip the band after it to the 4 free bytes between them.
	require.True(t, set["lo"][0].Empty())
	require.Equal(t, types.Range{Start: 8, End: 12}, set["lo"][1])

	// mid is clipped on both sides by its neighbors' bytes.
	require.Equal(t, types.Range{Start: 8, End: 12}, set["mid"][0])
	require.Equal(t, types.Range{Start: 20, End: 28}, set["mid"][1])

	// hi ends at capacity: nothing after it.
	require.Equal(t, types.Range{Start: 28, End: 36}, set["hi"][0])
	require.True(t, set["hi"][1].Empty())
}

func TestCollectMergesSpreadFootprint(t *testing.T) {
	ar := arena.New("main", arena.WithProfile(profile.Embed()))
	// Spread object: per-element reservations with free gaps between.
	for i := uint64(0); i < 3; i++ {
		require.NoError(t, ar.Reserve(types.NewRange(32+i*16, 4), "spread"))
	}

	set := Collect(ar)

	// One band pair around the merged footprint [32, 68), not one per
	// element: the inter-element gaps stay unguarded.
	require.Equal(t, Band{
		types.Range{Start: 24, End: 32},
		types.Range{Start: 68, End: 76},
	}, set["spread"])
}

func TestCheckFlagsGuardBandWrites(t *testing.T) {
	ar := arena.New("main", arena.WithProfile(profile.Embed()))
	require.NoError(t, ar.Reserve(types.NewRange(64, 16), "a"))
	set := Collect(ar)

	// Inside the owner's own bytes: clean.
	require.Nil(t, set.Check("a", types.NewRange(64, 16)))

	// Overrun into the trailing band.
	d := set.Check("a", types.NewRange(78, 4))
	require.NotNil(t, d)
	require.Equal(t, types.KindGuardViolation, d.Kind)
	require.Equal(t, types.SevFatal, d.Severity)
	require.Equal(t, "a", d.Decl)

	// Underrun into the leading band.
	require.NotNil(t, set.Check("a", types.NewRange(60, 2)))

	// Far away, or an unknown id: no report.
	require.Nil(t, set.Check("a", types.NewRange(200, 4)))
	require.Nil(t, set.Check("ghost", types.NewRange(64, 4)))
}
