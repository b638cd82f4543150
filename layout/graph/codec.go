package graph

import (
	"encoding/json"
	"fmt"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// ArenaSpec declares one arena of a program file.
type ArenaSpec struct {
	Name     string `json:"name"`
	Capacity uint64 `json:"capacity,omitempty"` // 0 = open-ended
	Profile  string `json:"profile,omitempty"`  // "", "cpu", "gpu", "embed"
}

// File is the JSON wire form of a declaration program, the interchange
// format between the parser front-end and layoutctl.
type File struct {
	Arenas []ArenaSpec `json:"arenas,omitempty"`
	Decls  []stmtWire  `json:"decls"`
}

// stmtWire mirrors Stmt with human-readable operator and anchor encodings.
type stmtWire struct {
	ID       string `json:"id"`
	ElemSize uint64 `json:"elem_size"`
	Count    uint64 `json:"count,omitempty"`

	Op     string `json:"op,omitempty"`
	Gap    uint64 `json:"gap,omitempty"`
	Repeat uint64 `json:"repeat,omitempty"`
	Offset uint64 `json:"offset,omitempty"`
	Addr   uint64 `json:"addr,omitempty"`

	Anchor     string  `json:"anchor,omitempty"`      // decl id or base name
	AnchorAddr *uint64 `json:"anchor_addr,omitempty"` // literal address anchor

	Arena      string `json:"arena,omitempty"`
	Profile    string `json:"profile,omitempty"`
	AdjacentTo string `json:"adjacent_to,omitempty"`
	Priority   int    `json:"priority,omitempty"`
}

// ParseOp maps an operator mnemonic to its kind.
func ParseOp(s string) (types.OpKind, error) {
	switch s {
	case "", "none":
		return types.OpNone, nil
	case "after", "+":
		return types.OpAfter, nil
	case "before", "-":
		return types.OpBefore, nil
	case "spread", "/":
		return types.OpSpread, nil
	case "repeat", "*":
		return types.OpRepeat, nil
	case "reverse", "~":
		return types.OpReverse, nil
	case "fill", "%":
		return types.OpFill, nil
	case "absolute", "@":
		return types.OpAbsolute, nil
	default:
		return types.OpNone, fmt.Errorf("unknown operator %q", s)
	}
}

func (w stmtWire) toStmt() (Stmt, error) {
	op, err := ParseOp(w.Op)
	if err != nil {
		return Stmt{}, fmt.Errorf("%s: %w", w.ID, err)
	}
	s := Stmt{
		ID:         w.ID,
		ElemSize:   w.ElemSize,
		Count:      w.Count,
		Op:         op,
		Gap:        w.Gap,
		Repeat:     w.Repeat,
		Offset:     w.Offset,
		Addr:       w.Addr,
		Arena:      w.Arena,
		Profile:    w.Profile,
		AdjacentTo: w.AdjacentTo,
		Priority:   w.Priority,
	}
	switch {
	case w.AnchorAddr != nil:
		s.Anchor = AbsAnchor(*w.AnchorAddr)
	case w.Anchor == types.BaseOrigin, w.Anchor == types.BaseWarp, w.Anchor == types.BaseCacheline:
		s.Anchor = BaseAnchor(w.Anchor)
	case w.Anchor != "":
		s.Anchor = DeclAnchor(w.Anchor)
	}
	return s, nil
}

// ParseFile decodes a JSON program and builds its declaration graph.
func ParseFile(data []byte) ([]ArenaSpec, *Program, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse program: %w", err)
	}
	b := NewBuilder()
	for _, w := range f.Decls {
		s, err := w.toStmt()
		if err != nil {
			return nil, nil, err
		}
		if err := b.Add(s); err != nil {
			return nil, nil, err
		}
	}
	prog, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return f.Arenas, prog, nil
}
