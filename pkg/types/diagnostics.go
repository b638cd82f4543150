package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Diagnostics Channel
// -----------------------------------------------------------------------------
//
// Every solver-internal error surfaces to the caller as a structured
// diagnostic. Fatal kinds abort the affected arena's solve; warnings are
// emitted alongside a still-valid layout table. The surrounding toolchain's
// reporting layer consumes the Report; this package only collects.

// Severity classifies how serious a diagnostic is.
type Severity uint8

const (
	SevWarning Severity = iota // solve continues with a substituted placement
	SevFatal                   // layout table suppressed for the affected arena
)

func (s Severity) String() string {
	if s == SevFatal {
		return "fatal"
	}
	return "warning"
}

// MarshalJSON emits the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DiagKind is the stable machine-readable category of a diagnostic.
type DiagKind string

const (
	KindCyclicAnchor        DiagKind = "cyclic-anchor"
	KindOverlap             DiagKind = "overlap"
	KindAdjacencyConflict   DiagKind = "adjacency-conflict"
	KindFallbackAllocation  DiagKind = "fallback-allocation"
	KindRelocationForbidden DiagKind = "relocation-forbidden"
	KindUnresolvedAnchor    DiagKind = "unresolved-anchor" // anchor in a failed or unsolved arena
	KindUnsafeAlias         DiagKind = "unsafe-alias"
	KindGuardViolation      DiagKind = "guard-violation" // runtime, sanitizer mode
)

// Diagnostic is one issue tied to a declaration.
type Diagnostic struct {
	Kind     DiagKind `json:"kind"`
	Severity Severity `json:"severity"`
	Decl     string   `json:"declaration_id,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Decl == "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %s", d.Severity, d.Kind, d.Decl, d.Message)
}

// Report collects the diagnostics of one solve.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Add appends a diagnostic.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Fatalf records a fatal diagnostic against decl.
func (r *Report) Fatalf(kind DiagKind, decl, format string, args ...any) {
	r.Add(Diagnostic{Kind: kind, Severity: SevFatal, Decl: decl, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning diagnostic against decl.
func (r *Report) Warnf(kind DiagKind, decl, format string, args ...any) {
	r.Add(Diagnostic{Kind: kind, Severity: SevWarning, Decl: decl, Message: fmt.Sprintf(format, args...)})
}

// HasFatal reports whether any fatal diagnostic was recorded.
func (r *Report) HasFatal() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SevFatal {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-severity diagnostics.
func (r *Report) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SevWarning {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends all diagnostics from o, preserving order.
func (r *Report) Merge(o *Report) {
	if o == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (r *Report) String() string {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
