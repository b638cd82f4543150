package arena

import "errors"

var (
	// ErrNoSpace indicates no free run large enough was found and the arena
	// could not be grown.
	ErrNoSpace = errors.New("arena: no free run large enough")

	// ErrBadRange indicates a zero-length or out-of-bounds range argument.
	ErrBadRange = errors.New("arena: bad range")

	// ErrNotReserved indicates an attempt to release bytes that are not an
	// exact existing reservation.
	ErrNotReserved = errors.New("arena: range is not a reservation")

	// ErrNoImage indicates a byte-level operation on an arena constructed
	// without a backing image.
	ErrNoImage = errors.New("arena: no backing image")
)
