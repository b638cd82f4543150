package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// Program is a finalized declaration graph.
type Program struct {
	decls []*Decl
	byID  map[string]*Decl
}

// Decls returns the declarations in source order.
func (p *Program) Decls() []*Decl { return p.decls }

// Lookup resolves an identifier to its declaration.
func (p *Program) Lookup(id string) (*Decl, bool) {
	d, ok := p.byID[id]
	return d, ok
}

// Arenas returns the distinct arena names referenced by the program, in
// first-use order. Declarations without an arena use the default.
func (p *Program) Arenas() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range p.decls {
		name := d.Arena
		if name == "" {
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// TopoOrder returns the declarations ordered so every anchor precedes its
// referents. Ties among independent nodes are broken by declaration order,
// so the result is stable and deterministic. A dependency cycle is fatal:
// a placement cannot be resolved relative to itself, directly or
// transitively.
func (p *Program) TopoOrder() ([]*Decl, error) {
	indegree := make(map[string]int, len(p.decls))
	dependents := make(map[string][]*Decl, len(p.decls))
	for _, d := range p.decls {
		indegree[d.ID] += 0
		for _, dep := range d.dependsOn() {
			indegree[d.ID]++
			dependents[dep] = append(dependents[dep], d)
		}
	}

	// Kahn's algorithm with a sorted ready set keyed by declaration index.
	ready := make([]*Decl, 0, len(p.decls))
	for _, d := range p.decls {
		if indegree[d.ID] == 0 {
			ready = append(ready, d)
		}
	}
	order := make([]*Decl, 0, len(p.decls))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Index < ready[j].Index })
		d := ready[0]
		ready = ready[1:]
		order = append(order, d)
		for _, dep := range dependents[d.ID] {
			indegree[dep.ID]--
			if indegree[dep.ID] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(p.decls) {
		var cyclic []string
		for _, d := range p.decls {
			if indegree[d.ID] > 0 {
				cyclic = append(cyclic, d.ID)
			}
		}
		return nil, types.WrapKind(types.ErrKindCycle,
			fmt.Sprintf("anchor cycle through %s", strings.Join(cyclic, " -> ")),
			types.ErrCycle)
	}
	return order, nil
}
