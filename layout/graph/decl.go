package graph

import (
	"fmt"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// AnchorRef names the reference point a declaration is placed against.
// It is a relation, not ownership: the anchor is unaware of its referents.
type AnchorRef struct {
	Kind types.AnchorKind `json:"kind"`
	Name string           `json:"name,omitempty"` // declaration id or base name
	Addr uint64           `json:"addr,omitempty"` // literal absolute address
}

// DeclAnchor references another declaration by identifier.
func DeclAnchor(id string) AnchorRef {
	return AnchorRef{Kind: types.AnchorDecl, Name: id}
}

// BaseAnchor references a global base (origin/warp/cacheline).
func BaseAnchor(name string) AnchorRef {
	return AnchorRef{Kind: types.AnchorBase, Name: name}
}

// AbsAnchor references a literal absolute address.
func AbsAnchor(addr uint64) AnchorRef {
	return AnchorRef{Kind: types.AnchorAbsolute, Addr: addr}
}

func (a AnchorRef) String() string {
	switch a.Kind {
	case types.AnchorDecl, types.AnchorBase:
		return a.Name
	case types.AnchorAbsolute:
		return fmt.Sprintf("@%d", a.Addr)
	default:
		return "<none>"
	}
}

// Stmt is one parsed declaration statement, the tuple handed over by the
// parser: (identifier, type descriptor, count, operator, operator args,
// anchor, arena, profile directives).
type Stmt struct {
	ID       string `json:"id"`
	ElemSize uint64 `json:"elem_size"`
	Count    uint64 `json:"count"` // defaults to 1

	Op     types.OpKind `json:"op"`
	Gap    uint64       `json:"gap,omitempty"`    // K for spread: stride = elem*(1+K)
	Repeat uint64       `json:"repeat,omitempty"` // N for repeat
	Offset uint64       `json:"offset,omitempty"` // literal byte offset chained after +/-
	Addr   uint64       `json:"addr,omitempty"`   // absolute placement address

	Anchor AnchorRef `json:"anchor,omitempty"`

	Arena   string `json:"arena,omitempty"`   // empty = default arena
	Profile string `json:"profile,omitempty"` // "", "cpu", "gpu", "embed"

	// AdjacentTo requests physical adjacency to a parent declaration
	// (inheritance with optional physical adjacency). At most one parent
	// per child; competing children are arbitrated by Priority, then by
	// declaration order.
	AdjacentTo string `json:"adjacent_to,omitempty"`
	Priority   int    `json:"priority,omitempty"`
}

// Decl is one node of the declaration graph. It is created by the
// Builder, mutated only by the solver (which fills in the resolved
// entry), and never destroyed during a solve: a failed solve is a
// diagnostic, not a mutation.
type Decl struct {
	Stmt

	// Index is the declaration's position in source order; it breaks
	// ties among independent nodes so ordering stays deterministic.
	Index int

	// Entry holds the resolved placement after a successful solve.
	Resolved bool
	Entry    types.LayoutEntry
}

// TotalBytes returns the bytes the declaration's elements need, excluding
// spread gaps. This is the M consumed by the fill engine.
func (d *Decl) TotalBytes() uint64 {
	return d.ElemSize * d.Count
}

// Stride returns the effective stride in bytes between elements.
func (d *Decl) Stride() uint64 {
	if d.Op == types.OpSpread {
		return d.ElemSize * (1 + d.Gap)
	}
	return d.ElemSize
}

// FootprintLen returns the total footprint length including spread gaps.
func (d *Decl) FootprintLen() uint64 {
	if d.Count == 0 {
		return 0
	}
	// The final element does not need its trailing gap, but the spread
	// footprint spans full stride units so fills can consume them.
	return d.Stride() * d.Count
}

// dependsOn lists the identifiers this declaration must be resolved after.
func (d *Decl) dependsOn() []string {
	var deps []string
	if d.Anchor.Kind == types.AnchorDecl {
		deps = append(deps, d.Anchor.Name)
	}
	if d.AdjacentTo != "" {
		deps = append(deps, d.AdjacentTo)
	}
	return deps
}
