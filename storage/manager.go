package storage

import "fmt"

// NewPage is the sentinel id passed to Store to request a freshly
// allocated record; it is never a valid stored identifier (spec.md
// §3, "Page identifier").
const NewPage int64 = -1

// Empty is the sentinel id a well-formed Load/Store/Delete never
// returns; it shares NewPage's bit pattern but denotes "no such
// record" rather than "allocate one".
const Empty int64 = -1

// Manager is the storage-manager contract spec.md §4.B describes: an
// identifier-to-byte-array mapping with four operations. Two
// implementations live behind it: an in-memory vector
// (MemoryManager) and a paged-file-plus-LRU-cache backend
// (DiskManager).
type Manager interface {
	// Load returns a fresh copy of the bytes stored at id.
	// Returns ErrInvalidPage if id is unknown.
	Load(id int64) ([]byte, error)

	// Store writes data at id. If id == NewPage, a fresh id is
	// allocated and returned; otherwise id must already be a known
	// record (ErrInvalidPage if not), and its contents are replaced.
	Store(id int64, data []byte) (int64, error)

	// Delete marks id's pages free. Future Load(id) calls fail with
	// ErrInvalidPage.
	Delete(id int64) error

	// Flush persists all pending index/header state. In-memory
	// backends treat this as a no-op.
	Flush() error

	// Close releases any held resources (file handles). Safe to call
	// more than once.
	Close() error

	// Stats reports the counter bag spec.md §1 calls for: page
	// reads/writes, cache hits, bytes written.
	Stats() Stats
}

// Stats is the small counter bag a storage manager accumulates,
// mirroring the teacher's pager.stats anonymous struct.
type Stats struct {
	PageReads    int64
	PageWrites   int64
	CacheHits    int64
	BytesWritten int64
}

// invalidPageError wraps ErrInvalidPage with the offending id for
// diagnostics, while still satisfying errors.Is(err, ErrInvalidPage).
func invalidPageError(id int64) error {
	return fmt.Errorf("%w: id=%d", ErrInvalidPage, id)
}

func illegalStateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}
