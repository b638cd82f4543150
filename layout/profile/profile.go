// Package profile supplies the alignment and relocation rules consulted by
// the layout solver and the arena manager. Three variants exist: cpu
// (cache-line alignment, the default), gpu (warp/segment alignment for
// coalesced access), and embed (minimal alignment, relocation forbidden).
package profile

import (
	"github.com/joshuapare/layoutkit/internal/align"
	"github.com/joshuapare/layoutkit/pkg/types"
)

const (
	// cpuLineSize is the default cache-line granularity.
	cpuLineSize = 64

	// gpuCoalesceSize is the per-warp coalescing granularity (32 lanes x 4B).
	gpuCoalesceSize = 128

	// gpuSegmentSize is the byte-segment size for GPU transactions.
	gpuSegmentSize = 128

	// embedMinAlign is the minimum alignment under the embed profile.
	embedMinAlign = 8
)

// Policy holds the resolved rules for one profile variant.
type Policy struct {
	Profile     types.Profile
	LineSize    uint64 // base alignment quantum for fresh placements
	SegmentSize uint64 // coalescing segment (gpu only; equals LineSize otherwise)
}

// CPU returns the default policy: cache-line alignment, relocation allowed.
func CPU() Policy {
	return Policy{Profile: types.ProfileCPU, LineSize: cpuLineSize, SegmentSize: cpuLineSize}
}

// GPU returns the warp/segment policy used for coalesced device memory.
func GPU() Policy {
	return Policy{Profile: types.ProfileGPU, LineSize: gpuCoalesceSize, SegmentSize: gpuSegmentSize}
}

// Embed returns the embedded policy: tight packing, relocation forbidden.
func Embed() Policy {
	return Policy{Profile: types.ProfileEmbed, LineSize: embedMinAlign, SegmentSize: embedMinAlign}
}

// For maps a profile enum to its policy.
func For(p types.Profile) Policy {
	switch p {
	case types.ProfileGPU:
		return GPU()
	case types.ProfileEmbed:
		return Embed()
	default:
		return CPU()
	}
}

// Alignment returns the default alignment for a fresh placement of
// elemSize-byte elements. Elements never straddle the policy's line
// unnecessarily: small elements align to their own size, larger ones to
// the line.
func (p Policy) Alignment(elemSize uint64) uint64 {
	if elemSize == 0 {
		return 1
	}
	a := elemSize
	if !align.IsPow2(a) {
		// Round odd element sizes up to the next power of two for the
		// alignment computation only; the reservation keeps exact size.
		a = nextPow2(a)
	}
	if a > p.LineSize {
		return p.LineSize
	}
	return a
}

// AllowsMove reports whether the relocation operation is legal under this
// profile. Embed-profile objects may never move.
func (p Policy) AllowsMove() bool {
	return p.Profile != types.ProfileEmbed
}

// GuardWidth returns the sanitizer guard-band width placed immediately
// before and after each reservation.
func (p Policy) GuardWidth() uint64 {
	return p.LineSize
}

func nextPow2(v uint64) uint64 {
	out := uint64(1)
	for out < v {
		out <<= 1
	}
	return out
}
