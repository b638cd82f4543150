package graph

import (
	"fmt"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// Builder ingests parsed statements in source order and produces a
// Program. It rejects malformed statements eagerly so the solver only
// ever sees structurally valid declarations.
type Builder struct {
	decls []*Decl
	byID  map[string]*Decl
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{byID: make(map[string]*Decl)}
}

// Add ingests one statement. Identifiers must be unique; element size
// must be non-zero; count defaults to 1. Operator arguments are checked
// against the operator kind.
func (b *Builder) Add(s Stmt) error {
	if s.ID == "" {
		return argErr("declaration without identifier")
	}
	if _, dup := b.byID[s.ID]; dup {
		return argErr("duplicate identifier %q", s.ID)
	}
	if s.ElemSize == 0 && s.Op != types.OpReverse {
		return argErr("%s: element size must be non-zero", s.ID)
	}
	if s.Count == 0 {
		s.Count = 1
	}
	switch s.Op {
	case types.OpRepeat:
		if s.Repeat == 0 {
			return argErr("%s: repeat count must be >= 1", s.ID)
		}
		s.Count = s.Repeat
	case types.OpAfter, types.OpBefore:
		if s.Anchor.Kind == types.AnchorNone {
			return argErr("%s: adjacency operator needs an anchor", s.ID)
		}
	case types.OpFill, types.OpReverse:
		if s.Anchor.Kind != types.AnchorDecl {
			return argErr("%s: %s operator needs a declaration anchor", s.ID, s.Op)
		}
	case types.OpAbsolute:
		// Address 0 is a legal absolute placement; nothing to check.
	}
	d := &Decl{Stmt: s, Index: len(b.decls)}
	b.decls = append(b.decls, d)
	b.byID[s.ID] = d
	return nil
}

// Build finalizes the graph. Anchor names are checked for existence here
// (forward references are fine - the referent only has to exist somewhere
// in the program), but ordering is left to TopoOrder.
func (b *Builder) Build() (*Program, error) {
	for _, d := range b.decls {
		for _, dep := range d.dependsOn() {
			if _, ok := b.byID[dep]; !ok {
				return nil, types.WrapKind(types.ErrKindNotFound,
					fmt.Sprintf("%s: unknown anchor %q", d.ID, dep), types.ErrNotFound)
			}
		}
		if d.Anchor.Kind == types.AnchorBase {
			switch d.Anchor.Name {
			case types.BaseOrigin, types.BaseWarp, types.BaseCacheline:
			default:
				return nil, argErr("%s: unknown base anchor %q", d.ID, d.Anchor.Name)
			}
		}
	}
	decls := make([]*Decl, len(b.decls))
	copy(decls, b.decls)
	byID := make(map[string]*Decl, len(b.byID))
	for id, d := range b.byID {
		byID[id] = d
	}
	return &Program{decls: decls, byID: byID}, nil
}

func argErr(format string, args ...any) error {
	return &types.Error{Kind: types.ErrKindArg, Msg: fmt.Sprintf(format, args...)}
}
