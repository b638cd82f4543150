package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/layoutkit/pkg/types"
)

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Stmt{ID: "x", ElemSize: 4}))
	err := b.Add(Stmt{ID: "x", ElemSize: 8})
	require.Error(t, err)

	var terr *types.Error
	require.True(t, errors.As(err, &terr))
	require.Equal(t, types.ErrKindArg, terr.Kind)
}

func TestBuilderValidatesOperatorArgs(t *testing.T) {
	b := NewBuilder()

	require.Error(t, b.Add(Stmt{ID: "nosize"}))
	require.Error(t, b.Add(Stmt{ID: "r", ElemSize: 4, Op: types.OpRepeat}))
	require.Error(t, b.Add(Stmt{ID: "adj", ElemSize: 4, Op: types.OpAfter}))
	require.Error(t, b.Add(Stmt{ID: "f", ElemSize: 4, Op: types.OpFill, Anchor: BaseAnchor(types.BaseOrigin)}))

	// Repeat count becomes the declaration count.
	require.NoError(t, b.Add(Stmt{ID: "ok", ElemSize: 4, Op: types.OpRepeat, Repeat: 5}))
	prog, err := b.Build()
	require.NoError(t, err)
	d, ok := prog.Lookup("ok")
	require.True(t, ok)
	require.Equal(t, uint64(5), d.Count)
}

func TestBuildRejectsUnknownAnchor(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Stmt{ID: "x", ElemSize: 4, Op: types.OpAfter, Anchor: DeclAnchor("ghost")}))
	_, err := b.Build()
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestTopoOrderHandlesForwardReferences(t *testing.T) {
	b := NewBuilder()
	// x is declared before its anchor y.
	require.NoError(t, b.Add(Stmt{ID: "x", ElemSize: 4, Op: types.OpAfter, Anchor: DeclAnchor("y")}))
	require.NoError(t, b.Add(Stmt{ID: "y", ElemSize: 8}))
	prog, err := b.Build()
	require.NoError(t, err)

	order, err := prog.TopoOrder()
	require.NoError(t, err)
	require.Equal(t, []string{"y", "x"}, ids(order))
}

func TestTopoOrderBreaksTiesByDeclarationOrder(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Stmt{ID: "c", ElemSize: 1}))
	require.NoError(t, b.Add(Stmt{ID: "a", ElemSize: 1}))
	require.NoError(t, b.Add(Stmt{ID: "b", ElemSize: 1}))
	prog, err := b.Build()
	require.NoError(t, err)

	order, err := prog.TopoOrder()
	require.NoError(t, err)
	// Independent nodes keep source order, not name order.
	require.Equal(t, []string{"c", "a", "b"}, ids(order))
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Stmt{ID: "p", ElemSize: 4, Op: types.OpAfter, Anchor: DeclAnchor("q")}))
	require.NoError(t, b.Add(Stmt{ID: "q", ElemSize: 4, Op: types.OpAfter, Anchor: DeclAnchor("p")}))
	prog, err := b.Build()
	require.NoError(t, err)

	_, err = prog.TopoOrder()
	require.ErrorIs(t, err, types.ErrCycle)
	require.Contains(t, err.Error(), "p")
	require.Contains(t, err.Error(), "q")
}

func TestStrideAndFootprint(t *testing.T) {
	d := &Decl{Stmt: Stmt{ID: "a", ElemSize: 4, Count: 4, Op: types.OpSpread, Gap: 3}}
	require.Equal(t, uint64(16), d.Stride())
	require.Equal(t, uint64(64), d.FootprintLen())
	require.Equal(t, uint64(16), d.TotalBytes())
}

func TestParseFile(t *testing.T) {
	data := []byte(`{
		"arenas": [{"name": "heap", "capacity": 4096, "profile": "gpu"}],
		"decls": [
			{"id": "a", "elem_size": 4, "count": 4, "op": "spread", "gap": 3},
			{"id": "b", "elem_size": 4, "op": "fill", "anchor": "a"},
			{"id": "c", "elem_size": 8, "op": "after", "anchor": "b", "offset": 16},
			{"id": "d", "elem_size": 2, "op": "absolute", "addr": 2048, "arena": "heap"},
			{"id": "e", "elem_size": 4, "op": "after", "anchor": "origin"}
		]
	}`)

	arenas, prog, err := ParseFile(data)
	require.NoError(t, err)
	require.Len(t, arenas, 1)
	require.Equal(t, "heap", arenas[0].Name)
	require.Equal(t, uint64(4096), arenas[0].Capacity)

	require.Len(t, prog.Decls(), 5)
	b, ok := prog.Lookup("b")
	require.True(t, ok)
	require.Equal(t, types.OpFill, b.Op)
	require.Equal(t, types.AnchorDecl, b.Anchor.Kind)

	e, ok := prog.Lookup("e")
	require.True(t, ok)
	require.Equal(t, types.AnchorBase, e.Anchor.Kind)
	require.Equal(t, types.BaseOrigin, e.Anchor.Name)

	require.Equal(t, []string{"heap"}, prog.Arenas())
}

func TestParseFileRejectsUnknownOp(t *testing.T) {
	_, _, err := ParseFile([]byte(`{"decls": [{"id": "x", "elem_size": 4, "op": "sideways"}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "sideways")
}

func ids(decls []*Decl) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.ID
	}
	return out
}
