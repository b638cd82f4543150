package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindCycle      ErrKind = iota // anchor dependency cycle (CyclicAnchorError)
	ErrKindOverlap                   // reservation intersects an occupied range (OverlapError)
	ErrKindAdjacency                 // ambiguous :adjacent request (AdjacencyConflictError)
	ErrKindRelocation                // move forbidden by profile (RelocationForbidden)
	ErrKindNotFound                  // unknown declaration/anchor/arena
	ErrKindState                     // invalid operation for current state (e.g. unsolved table)
	ErrKindArg                       // malformed declaration attribute
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two typed errors by kind so sentinels work with errors.Is
// even when call sites wrap them with extra context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrCycle indicates an anchor references itself directly or transitively.
	ErrCycle = &Error{Kind: ErrKindCycle, Msg: "cyclic anchor dependency"}
	// ErrOverlap indicates a reservation would intersect an occupied range.
	ErrOverlap = &Error{Kind: ErrKindOverlap, Msg: "reservation overlaps occupied range"}
	// ErrAdjacencyConflict indicates two children claim adjacency to one parent.
	ErrAdjacencyConflict = &Error{Kind: ErrKindAdjacency, Msg: "ambiguous adjacency request"}
	// ErrRelocationForbidden indicates a move attempted under the embed profile.
	ErrRelocationForbidden = &Error{Kind: ErrKindRelocation, Msg: "relocation forbidden by profile"}
	// ErrNotFound indicates a missing declaration, anchor, or arena.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrUnsolved indicates an intrinsic was invoked before a successful solve.
	ErrUnsolved = &Error{Kind: ErrKindState, Msg: "layout table not solved"}
)

// WrapKind attaches a kind and message to an underlying cause.
func WrapKind(kind ErrKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// -----------------------------------------------------------------------------
// Core Enums
// -----------------------------------------------------------------------------

// Direction is the element order of a placement.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Profile selects the alignment and relocation rules applied to an arena.
type Profile uint8

const (
	ProfileCPU   Profile = iota // cache-line alignment (default)
	ProfileGPU                  // warp/segment alignment
	ProfileEmbed                // relocation forbidden
)

func (p Profile) String() string {
	switch p {
	case ProfileGPU:
		return "gpu"
	case ProfileEmbed:
		return "embed"
	default:
		return "cpu"
	}
}

// ParseProfile maps a directive string to a Profile. Unknown strings
// fall back to cpu, matching the default profile rule.
func ParseProfile(s string) Profile {
	switch s {
	case "gpu":
		return ProfileGPU
	case "embed":
		return ProfileEmbed
	default:
		return ProfileCPU
	}
}

// OpKind identifies the placement operator of a declaration.
type OpKind uint8

const (
	OpNone     OpKind = iota // no operator: earliest aligned free position
	OpAfter                  // '+'  adjacency after the anchor
	OpBefore                 // '-'  adjacency before the anchor
	OpSpread                 // '/K' stride with K free gap slots per element
	OpRepeat                 // '*N' contiguous repetition
	OpReverse                // '~'  reversed copy into a fresh range
	OpFill                   // '%'  gap filling inside a container footprint
	OpAbsolute               // literal absolute address
)

func (k OpKind) String() string {
	switch k {
	case OpAfter:
		return "after"
	case OpBefore:
		return "before"
	case OpSpread:
		return "spread"
	case OpRepeat:
		return "repeat"
	case OpReverse:
		return "reverse"
	case OpFill:
		return "fill"
	case OpAbsolute:
		return "absolute"
	default:
		return "none"
	}
}

// AnchorKind identifies what an anchor reference names.
type AnchorKind uint8

const (
	AnchorNone     AnchorKind = iota // no anchor
	AnchorDecl                       // another declaration, by identifier
	AnchorBase                       // a global base (origin/warp/cacheline)
	AnchorAbsolute                   // a literal absolute address
)

func (k AnchorKind) String() string {
	switch k {
	case AnchorDecl:
		return "decl"
	case AnchorBase:
		return "base"
	case AnchorAbsolute:
		return "absolute"
	default:
		return "none"
	}
}

// Global base names resolvable without a declaration lookup.
const (
	BaseOrigin    = "origin"    // offset 0 of the owning arena
	BaseWarp      = "warp"      // next warp-aligned offset past current use
	BaseCacheline = "cacheline" // next cache-line-aligned offset past current use
)
