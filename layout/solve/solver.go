package solve

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/guard"
	"github.com/joshuapare/layoutkit/layout/profile"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// Options configures a Solver.
type Options struct {
	// Logger receives solver trace output. Nil means no logging.
	Logger *zap.Logger

	// Sanitize enables guard-band metadata collection for the runtime
	// sanitizer.
	Sanitize bool

	// DefaultArena names the arena used by declarations that specify
	// none. Defaults to "origin".
	DefaultArena string
}

// Solver resolves declaration graphs into layout tables.
type Solver struct {
	opts Options
	log  *zap.Logger
}

// New creates a solver. Zero Options give a silent solver with the
// default arena.
func New(opts Options) *Solver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultArena == "" {
		opts.DefaultArena = arena.DefaultName
	}
	return &Solver{opts: opts, log: opts.Logger}
}

// Solve runs both passes over prog. Arenas are created from specs; the
// default arena always exists and is open-ended unless a spec bounds it.
// Arenas referenced by declarations but absent from specs are created
// open-ended with the cpu profile.
//
// Fatal diagnostics suppress layout entries for the affected arena but do
// not stop other arenas from solving; the returned error is non-nil only
// when the solve could not produce any result at all (a malformed program
// or an anchor cycle, which poisons the global ordering).
func (s *Solver) Solve(specs []graph.ArenaSpec, prog *graph.Program) (*Solution, error) {
	sol := &Solution{
		table:    make(map[string]types.LayoutEntry),
		arenas:   make(map[string]*arena.Arena),
		failed:   make(map[string]bool),
		report:   &types.Report{},
		prog:     prog,
		defArena: s.opts.DefaultArena,
		solver:   s,
	}

	for _, spec := range specs {
		var opts []arena.Option
		if spec.Capacity != 0 {
			opts = append(opts, arena.WithCapacity(spec.Capacity))
		}
		opts = append(opts, arena.WithProfile(profile.For(types.ParseProfile(spec.Profile))))
		sol.arenas[spec.Name] = arena.New(spec.Name, opts...)
	}
	if _, ok := sol.arenas[s.opts.DefaultArena]; !ok {
		sol.arenas[s.opts.DefaultArena] = arena.New(s.opts.DefaultArena)
	}
	for _, d := range prog.Decls() {
		name := sol.arenaName(d)
		if _, ok := sol.arenas[name]; !ok {
			sol.arenas[name] = arena.New(name)
		}
	}

	// Pass 1: dependency ordering over the whole program. A cycle is
	// fatal and poisons the global order, so nothing is emitted.
	order, err := prog.TopoOrder()
	if err != nil {
		if errors.Is(err, types.ErrCycle) {
			sol.report.Fatalf(types.KindCyclicAnchor, "", "%v", err)
			return sol, err
		}
		return sol, err
	}

	// Adjacency arbitration happens before any reservation so an
	// ambiguous program fails whole, not halfway.
	adjacency, err := guard.CheckAdjacency(order)
	if err != nil {
		var terr *types.Error
		if errors.As(err, &terr) && terr.Kind == types.ErrKindAdjacency {
			sol.report.Fatalf(types.KindAdjacencyConflict, "", "%s", terr.Msg)
			return sol, err
		}
		return sol, err
	}
	sol.adjacency = adjacency

	coordinated := s.coordinationSet(sol, order)

	// Serialized coordinating pass: absolute reservations and
	// cross-arena chains resolve before per-arena parallelism starts.
	for _, d := range order {
		if !coordinated[d.ID] {
			continue
		}
		s.place(sol, d)
	}

	// Per-arena parallel pass. Each worker owns its arena's remaining
	// declarations in topological order; arenas share no mutable state.
	perArena := make(map[string][]*graph.Decl)
	for _, d := range order {
		if coordinated[d.ID] {
			continue
		}
		name := sol.arenaName(d)
		perArena[name] = append(perArena[name], d)
	}
	names := make([]string, 0, len(perArena))
	for name := range perArena {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	var g errgroup.Group
	for _, name := range names {
		name := name
		decls := perArena[name]
		g.Go(func() error {
			local := &types.Report{}
			entries := make(map[string]types.LayoutEntry, len(decls))
			failed := false
			for _, d := range decls {
				if failed {
					break
				}
				entry, diags, perr := s.resolve(sol, d)
				local.Merge(diags)
				if perr != nil {
					failed = true
					continue
				}
				d.Entry = entry
				d.Resolved = true
				entries[d.ID] = entry
			}
			mu.Lock()
			defer mu.Unlock()
			sol.report.Merge(local)
			if failed {
				sol.failed[name] = true
				return nil
			}
			for id, e := range entries {
				sol.table[id] = e
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sol, err
	}

	// Failed arenas emit no layout entries at all.
	for name := range sol.failed {
		for _, d := range prog.Decls() {
			if sol.arenaName(d) == name {
				delete(sol.table, d.ID)
				d.Resolved = false
			}
		}
	}

	if s.opts.Sanitize {
		sol.guards = make(guard.Set)
		for name, ar := range sol.arenas {
			if sol.failed[name] {
				continue
			}
			for id, band := range guard.Collect(ar) {
				sol.guards[id] = band
			}
		}
	}

	s.log.Debug("solve finished",
		zap.Int("declarations", len(prog.Decls())),
		zap.Int("entries", len(sol.table)),
		zap.Int("diagnostics", len(sol.report.Diagnostics)))
	return sol, nil
}

// place resolves one declaration during the serialized pass, recording
// diagnostics and arena failure directly on the solution.
func (s *Solver) place(sol *Solution, d *graph.Decl) {
	name := sol.arenaName(d)
	if sol.failed[name] {
		return
	}
	entry, diags, err := s.resolve(sol, d)
	sol.report.Merge(diags)
	if err != nil {
		sol.failed[name] = true
		return
	}
	d.Entry = entry
	d.Resolved = true
	sol.table[d.ID] = entry
}

// coordinationSet marks every declaration that must resolve in the
// serialized pass: absolute placements, declarations with cross-arena or
// absolute anchors, and the transitive dependencies of all of those.
func (s *Solver) coordinationSet(sol *Solution, order []*graph.Decl) map[string]bool {
	marked := make(map[string]bool)
	for _, d := range order {
		if d.Op == types.OpAbsolute || d.Anchor.Kind == types.AnchorAbsolute {
			marked[d.ID] = true
			continue
		}
		if d.Anchor.Kind == types.AnchorDecl {
			if ref, ok := sol.prog.Lookup(d.Anchor.Name); ok && sol.arenaName(ref) != sol.arenaName(d) {
				marked[d.ID] = true
			}
		}
		if d.AdjacentTo != "" {
			if ref, ok := sol.prog.Lookup(d.AdjacentTo); ok && sol.arenaName(ref) != sol.arenaName(d) {
				marked[d.ID] = true
			}
		}
	}
	// Close over dependencies: a coordinated declaration's anchors must
	// themselves resolve before it does. Walk in reverse topological
	// order so marks propagate through chains in one sweep.
	for i := len(order) - 1; i >= 0; i-- {
		d := order[i]
		if !marked[d.ID] {
			continue
		}
		if d.Anchor.Kind == types.AnchorDecl {
			marked[d.Anchor.Name] = true
		}
		if d.AdjacentTo != "" {
			marked[d.AdjacentTo] = true
		}
	}
	return marked
}

func (s *Solver) logPlacement(d *graph.Decl, entry types.LayoutEntry) {
	s.log.Debug("placed declaration",
		zap.String("id", d.ID),
		zap.String("op", d.Op.String()),
		zap.String("arena", entry.Arena),
		zap.Uint64("base", entry.Base),
		zap.Uint64("stride", entry.Stride),
		zap.Uint64("count", entry.Count))
}

func fatalKind(err error) types.DiagKind {
	var terr *types.Error
	if errors.As(err, &terr) {
		switch terr.Kind {
		case types.ErrKindOverlap:
			return types.KindOverlap
		case types.ErrKindAdjacency:
			return types.KindAdjacencyConflict
		case types.ErrKindRelocation:
			return types.KindRelocationForbidden
		case types.ErrKindCycle:
			return types.KindCyclicAnchor
		case types.ErrKindState, types.ErrKindNotFound:
			return types.KindUnresolvedAnchor
		}
	}
	return types.KindOverlap
}
