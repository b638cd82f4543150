// Package align provides byte-alignment helpers shared by the arena manager
// and the layout solver. All alignments are powers of two.
package align

// Up returns v aligned up to the next multiple of a. A zero or one
// alignment returns v unchanged.
//
// Example:
//
//	Up(1, 8)  = 8
//	Up(8, 8)  = 8
//	Up(9, 8)  = 16
func Up(v, a uint64) uint64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// Down returns v aligned down to the previous multiple of a.
func Down(v, a uint64) uint64 {
	if a <= 1 {
		return v
	}
	return v &^ (a - 1)
}

// IsAligned reports whether v is a multiple of a.
func IsAligned(v, a uint64) bool {
	if a <= 1 {
		return true
	}
	return v&(a-1) == 0
}

// IsPow2 reports whether a is a non-zero power of two.
func IsPow2(a uint64) bool {
	return a != 0 && a&(a-1) == 0
}
