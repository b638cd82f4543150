package arena

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joshuapare/layoutkit/layout/profile"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// DefaultName is the name of the arena every program starts with.
const DefaultName = "origin"

// reservation is one occupied range plus the identifier that owns it.
type reservation struct {
	rng   types.Range
	owner string
}

// Arena is a named byte-addressable region. The zero value is not usable;
// construct with New.
type Arena struct {
	mu sync.Mutex

	name     string
	policy   profile.Policy
	capacity uint64 // 0 = open-ended

	// occupied is sorted by start offset; ranges never overlap.
	occupied []reservation

	// highWater is one past the furthest byte ever reserved. For
	// open-ended arenas it bounds free-run scans.
	highWater uint64

	// image is the optional backing byte buffer used by the view
	// subsystem. Grown lazily alongside highWater.
	image []byte
}

// Option configures a new arena.
type Option func(*Arena)

// WithCapacity bounds the arena to n bytes. Without it the arena is
// open-ended.
func WithCapacity(n uint64) Option {
	return func(a *Arena) { a.capacity = n }
}

// WithProfile sets the arena's alignment/relocation policy.
func WithProfile(p profile.Policy) Option {
	return func(a *Arena) { a.policy = p }
}

// WithImage attaches a zeroed backing byte buffer of n bytes so views and
// runtime helpers can read and write actual contents.
func WithImage(n uint64) Option {
	return func(a *Arena) { a.image = make([]byte, n) }
}

// New creates an empty arena with the cpu policy unless overridden.
func New(name string, opts ...Option) *Arena {
	a := &Arena{name: name, policy: profile.CPU()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the arena identifier.
func (a *Arena) Name() string { return a.name }

// Policy returns the arena's profile policy.
func (a *Arena) Policy() profile.Policy { return a.policy }

// Capacity returns the bounded capacity, or 0 for open-ended arenas.
func (a *Arena) Capacity() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity
}

// HighWater returns one past the furthest byte ever reserved.
func (a *Arena) HighWater() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highWater
}

// Reserve marks r as occupied by owner. It fails if r is empty, extends
// past a bounded capacity, or intersects an existing reservation. An
// occupied address is never displaced: the caller gets the overlap error
// and the arena is unchanged.
func (a *Arena) Reserve(r types.Range, owner string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reserveLocked(r, owner)
}

func (a *Arena) reserveLocked(r types.Range, owner string) error {
	if r.Empty() {
		return fmt.Errorf("%w: %s", ErrBadRange, r)
	}
	if a.capacity != 0 && r.End > a.capacity {
		return fmt.Errorf("%w: %s exceeds capacity %d", ErrBadRange, r, a.capacity)
	}
	idx := a.searchLocked(r.Start)
	// The candidate may only collide with its immediate neighbors.
	if idx > 0 && a.occupied[idx-1].rng.Overlaps(r) {
		return a.overlapError(r, a.occupied[idx-1])
	}
	if idx < len(a.occupied) && a.occupied[idx].rng.Overlaps(r) {
		return a.overlapError(r, a.occupied[idx])
	}
	a.occupied = append(a.occupied, reservation{})
	copy(a.occupied[idx+1:], a.occupied[idx:])
	a.occupied[idx] = reservation{rng: r, owner: owner}
	if r.End > a.highWater {
		a.highWater = r.End
	}
	return nil
}

func (a *Arena) overlapError(r types.Range, occ reservation) error {
	return types.WrapKind(types.ErrKindOverlap,
		fmt.Sprintf("arena %q: %s overlaps %s owned by %q", a.name, r, occ.rng, occ.owner),
		types.ErrOverlap)
}

// searchLocked returns the index of the first reservation whose start is
// >= off.
func (a *Arena) searchLocked(off uint64) int {
	return sort.Search(len(a.occupied), func(i int) bool {
		return a.occupied[i].rng.Start >= off
	})
}

// Release removes an exact prior reservation. Partial releases are
// rejected so occupied-range accounting stays whole-object.
func (a *Arena) Release(r types.Range) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.searchLocked(r.Start)
	if idx >= len(a.occupied) || a.occupied[idx].rng != r {
		return fmt.Errorf("%w: %s", ErrNotReserved, r)
	}
	a.occupied = append(a.occupied[:idx], a.occupied[idx+1:]...)
	return nil
}

// ReleaseOwner removes every reservation owned by owner and returns how
// many ranges were released. Spread placements reserve one range per
// element, so a single declaration may own several.
func (a *Arena) ReleaseOwner(owner string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.occupied[:0]
	released := 0
	for _, res := range a.occupied {
		if res.owner == owner {
			released++
			continue
		}
		kept = append(kept, res)
	}
	a.occupied = kept
	return released
}

// Grow appends extra unoccupied bytes of capacity at the end of a bounded
// arena. Open-ended arenas ignore the call.
func (a *Arena) Grow(extra uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.capacity != 0 {
		a.capacity += extra
	}
}

// Occupant returns the identifier owning the byte at off.
func (a *Arena) Occupant(off uint64) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.searchLocked(off)
	if idx > 0 && a.occupied[idx-1].rng.ContainsOffset(off) {
		return a.occupied[idx-1].owner, true
	}
	if idx < len(a.occupied) && a.occupied[idx].rng.ContainsOffset(off) {
		return a.occupied[idx].owner, true
	}
	return "", false
}

// Reservation pairs an occupied range with its owning identifier.
type Reservation struct {
	Range types.Range
	Owner string
}

// Reservations returns a copy of the occupied set in ascending order,
// with owners. Used by guard metadata and the visualizer.
func (a *Arena) Reservations() []Reservation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Reservation, len(a.occupied))
	for i, res := range a.occupied {
		out[i] = Reservation{Range: res.rng, Owner: res.owner}
	}
	return out
}

// Snapshot is an opaque copy of an arena's occupied set, used by the
// relocation operation for validate-then-commit with rollback.
type Snapshot struct {
	occupied  []reservation
	highWater uint64
}

// Snapshot captures the current occupied set.
func (a *Arena) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	occ := make([]reservation, len(a.occupied))
	copy(occ, a.occupied)
	return Snapshot{occupied: occ, highWater: a.highWater}
}

// Restore rolls the occupied set back to a prior snapshot.
func (a *Arena) Restore(s Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.occupied = make([]reservation, len(s.occupied))
	copy(a.occupied, s.occupied)
	a.highWater = s.highWater
}

// Bytes returns the backing image, growing it to cover the high-water
// mark. Returns ErrNoImage when the arena was built without WithImage.
func (a *Arena) Bytes() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.image == nil {
		return nil, ErrNoImage
	}
	if uint64(len(a.image)) < a.highWater {
		grown := make([]byte, a.highWater)
		copy(grown, a.image)
		a.image = grown
	}
	return a.image, nil
}
