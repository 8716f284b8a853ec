package storage

import "sync"

// MemoryManager is the in-memory storage backend: a sequence indexed
// by id with a LIFO stack of empty slots for reuse (spec.md §4.B).
// It never touches disk and Flush is a no-op; it exists for tests and
// for R-tree configurations that don't need durability.
type MemoryManager struct {
	mu         sync.Mutex
	records    [][]byte // nil entry == empty slot
	emptySlots []int64  // LIFO of reusable indices
	stats      Stats
}

// NewMemoryManager creates an empty in-memory storage manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

func (m *MemoryManager) Load(id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= int64(len(m.records)) || m.records[id] == nil {
		return nil, invalidPageError(id)
	}

	m.stats.PageReads++
	out := make([]byte, len(m.records[id]))
	copy(out, m.records[id])
	return out, nil
}

func (m *MemoryManager) Store(id int64, data []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)

	if id == NewPage {
		if n := len(m.emptySlots); n > 0 {
			reused := m.emptySlots[n-1]
			m.emptySlots = m.emptySlots[:n-1]
			m.records[reused] = stored
			id = reused
		} else {
			id = int64(len(m.records))
			m.records = append(m.records, stored)
		}
	} else {
		if id < 0 || id >= int64(len(m.records)) || m.records[id] == nil {
			return 0, invalidPageError(id)
		}
		m.records[id] = stored
	}

	m.stats.PageWrites++
	m.stats.BytesWritten += int64(len(stored))
	return id, nil
}

func (m *MemoryManager) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= int64(len(m.records)) || m.records[id] == nil {
		return invalidPageError(id)
	}

	m.records[id] = nil
	m.emptySlots = append(m.emptySlots, id)
	return nil
}

// Flush is a no-op: there is nothing out-of-memory to persist.
func (m *MemoryManager) Flush() error { return nil }

// Close is a no-op: there are no external resources to release.
func (m *MemoryManager) Close() error { return nil }

func (m *MemoryManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
