package solve

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/guard"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// Solution is the output of one solve: the finalized layout table, the
// diagnostics report, optional sanitizer guard metadata, and the live
// arena state the runtime helper intrinsics operate on.
type Solution struct {
	// mu serializes post-solve mutation (move/delete) against reads.
	// Relocation is stop-the-world relative to its arena; one lock over
	// the whole solution satisfies that trivially.
	mu sync.Mutex

	table     map[string]types.LayoutEntry
	report    *types.Report
	guards    guard.Set
	arenas    map[string]*arena.Arena
	failed    map[string]bool
	prog      *graph.Program
	adjacency map[string][]*graph.Decl
	defArena  string
	solver    *Solver
}

// arenaName returns the arena a declaration belongs to. Fillers and
// reversed copies without an explicit arena inherit their anchor's arena.
func (sol *Solution) arenaName(d *graph.Decl) string {
	if d.Arena != "" {
		return d.Arena
	}
	if d.Anchor.Kind == types.AnchorDecl {
		if ref, ok := sol.prog.Lookup(d.Anchor.Name); ok && ref.Arena != "" {
			return ref.Arena
		}
	}
	return sol.defArena
}

// resolvedAnchor looks up an anchor declaration and requires it to carry
// a layout entry already.
func (sol *Solution) resolvedAnchor(id string) (*graph.Decl, error) {
	ref, ok := sol.prog.Lookup(id)
	if !ok {
		return nil, types.WrapKind(types.ErrKindNotFound,
			fmt.Sprintf("anchor %q is not declared", id), types.ErrNotFound)
	}
	if !ref.Resolved {
		return nil, types.WrapKind(types.ErrKindState,
			fmt.Sprintf("anchor %q has no layout entry", id), types.ErrUnsolved)
	}
	return ref, nil
}

// Table returns a copy of the layout table.
func (sol *Solution) Table() map[string]types.LayoutEntry {
	sol.mu.Lock()
	defer sol.mu.Unlock()
	out := make(map[string]types.LayoutEntry, len(sol.table))
	for id, e := range sol.table {
		out[id] = e
	}
	return out
}

// Entry returns the layout entry for id.
func (sol *Solution) Entry(id string) (types.LayoutEntry, error) {
	sol.mu.Lock()
	defer sol.mu.Unlock()
	return sol.entryLocked(id)
}

func (sol *Solution) entryLocked(id string) (types.LayoutEntry, error) {
	e, ok := sol.table[id]
	if !ok {
		return types.LayoutEntry{}, types.WrapKind(types.ErrKindNotFound,
			fmt.Sprintf("no layout entry for %q", id), types.ErrNotFound)
	}
	return e, nil
}

// Report returns the diagnostics recorded during the solve and any
// post-solve operations.
func (sol *Solution) Report() *types.Report { return sol.report }

// Guards returns the sanitizer guard metadata (nil when the solver ran
// without Sanitize).
func (sol *Solution) Guards() guard.Set { return sol.guards }

// Arena returns the named arena.
func (sol *Solution) Arena(name string) (*arena.Arena, bool) {
	ar, ok := sol.arenas[name]
	return ar, ok
}

// ArenaNames returns all arena names in sorted order.
func (sol *Solution) ArenaNames() []string {
	names := make([]string, 0, len(sol.arenas))
	for name := range sol.arenas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed reports whether the named arena's solve was aborted by a fatal
// diagnostic.
func (sol *Solution) Failed(name string) bool { return sol.failed[name] }
