package storage

import "errors"

// Error taxonomy from spec.md §7. These are the only failure modes
// the storage manager itself raises; IndexOutOfBounds, EndOfStream and
// ResourceLocked are declared here for completeness (spec.md calls
// them out as "raised by helper layers; propagated verbatim") but the
// two storage backends in this package never originate them directly.
var (
	// ErrInvalidPage is returned when Load/Store/Delete references an
	// unknown record id.
	ErrInvalidPage = errors.New("storage: invalid page")

	// ErrIllegalState signals on-disk corruption, a failed read/write,
	// or a violated invariant (unknown node-type tag, header checksum
	// mismatch, truncated record, ...).
	// It is terminal for the operation in progress.
	ErrIllegalState = errors.New("storage: illegal state")

	// ErrIllegalArgument signals a caller supplied nonsense at
	// construction (non-positive page size, negative capacity, ...).
	ErrIllegalArgument = errors.New("storage: illegal argument")

	// ErrNotSupported signals an unsupported option, such as an
	// unknown tree variant passed to rtree.Config.Validate.
	ErrNotSupported = errors.New("storage: not supported")

	// ErrIndexOutOfBounds is raised by helper layers on bad indices.
	ErrIndexOutOfBounds = errors.New("storage: index out of bounds")

	// ErrEndOfStream is raised by helper layers when a read runs past
	// available data.
	ErrEndOfStream = errors.New("storage: end of stream")

	// ErrResourceLocked is raised by helper layers when a resource is
	// held by another caller.
	ErrResourceLocked = errors.New("storage: resource locked")
)
