package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// DefaultPageSize is spec.md §6.5's default physical page size.
const DefaultPageSize uint32 = 4096

// DiskConfig configures a DiskManager, mirroring the teacher's plain
// Config/DefaultConfig shape (btree.Config, btree.DefaultConfig).
type DiskConfig struct {
	// IndexPath is the metadata file (free list, page index).
	IndexPath string
	// DataPath is the file holding fixed-size physical pages.
	DataPath string
	// PageSize is the fixed physical page size; every write is padded
	// to exactly this many bytes.
	PageSize uint32
	// LRUCapacity bounds the in-memory page cache.
	LRUCapacity int
	// Logger receives open, record-allocation and flush events at
	// Debug level; cache evictions and errors are not logged. A nil
	// Logger is replaced with zap.NewNop().
	Logger *zap.Logger
}

// DefaultDiskConfig returns spec.md §6.5's defaults for the two files
// rooted at basePath (basePath+".data", basePath+".index").
func DefaultDiskConfig(basePath string) DiskConfig {
	return DiskConfig{
		IndexPath:   basePath + ".index",
		DataPath:    basePath + ".data",
		PageSize:    DefaultPageSize,
		LRUCapacity: DefaultLRUCapacity,
	}
}

// Validate checks the tunables a DiskManager was constructed with,
// returning ErrIllegalArgument for nonsense values.
func (c DiskConfig) Validate() error {
	if c.PageSize == 0 {
		return fmt.Errorf("%w: page size must be positive", ErrIllegalArgument)
	}
	if c.IndexPath == "" || c.DataPath == "" {
		return fmt.Errorf("%w: index and data paths must be set", ErrIllegalArgument)
	}
	return nil
}

// pageRecord tracks which physical pages back one logical record.
type pageRecord struct {
	id     int64
	length uint32
	pages  []int64
}

// DiskManager is the paged-disk storage backend of spec.md §4.B: an
// index file holding free-list + page-index metadata, a data file
// holding fixed-size physical pages, and an LRU cache in front of
// both. It generalizes the teacher's Pager (btree/pager.go) from a
// single fixed-size page per key to variable-length records spread
// across however many physical pages they need.
type DiskManager struct {
	mu sync.Mutex

	cfg       DiskConfig
	indexFile *os.File
	dataFile  *os.File

	nextPage   int64
	emptyPages []int64 // LIFO free list
	index      map[int64]*pageRecord

	cache  *pageCache
	logger *zap.Logger
	stats  Stats
	closed bool
}

// NewDiskManager opens the database rooted at cfg's paths, creating it
// if absent, and loading the persisted free list / page index if
// present.
func NewDiskManager(cfg DiskConfig) (*DiskManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LRUCapacity <= 0 {
		cfg.LRUCapacity = DefaultLRUCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dataFile, err := os.OpenFile(cfg.DataPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	m := &DiskManager{
		cfg:      cfg,
		dataFile: dataFile,
		index:    make(map[int64]*pageRecord),
		cache:    newPageCache(cfg.LRUCapacity),
		logger:   logger,
	}

	if _, err := os.Stat(cfg.IndexPath); err == nil {
		indexFile, err := os.OpenFile(cfg.IndexPath, os.O_RDWR, 0644)
		if err != nil {
			dataFile.Close()
			return nil, err
		}
		m.indexFile = indexFile
		if err := m.loadIndex(); err != nil {
			dataFile.Close()
			indexFile.Close()
			return nil, err
		}
	} else {
		indexFile, err := os.OpenFile(cfg.IndexPath, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			dataFile.Close()
			return nil, err
		}
		m.indexFile = indexFile
	}

	logger.Debug("disk storage manager opened",
		zap.String("index", cfg.IndexPath),
		zap.String("data", cfg.DataPath),
		zap.Uint32("page_size", cfg.PageSize),
		zap.Int("records", len(m.index)))

	return m, nil
}

func numChunks(length int, pageSize uint32) int {
	n := (length + int(pageSize) - 1) / int(pageSize)
	if n == 0 {
		n = 1
	}
	return n
}

func (m *DiskManager) allocatePage() int64 {
	if n := len(m.emptyPages); n > 0 {
		id := m.emptyPages[n-1]
		m.emptyPages = m.emptyPages[:n-1]
		return id
	}
	id := m.nextPage
	m.nextPage++
	return id
}

func (m *DiskManager) writeChunk(pageID int64, chunk []byte) error {
	buf := make([]byte, m.cfg.PageSize)
	copy(buf, chunk)
	offset := pageID * int64(m.cfg.PageSize)
	if _, err := m.dataFile.WriteAt(buf, offset); err != nil {
		return illegalStateError("write page %d: %v", pageID, err)
	}
	m.stats.PageWrites++
	m.stats.BytesWritten += int64(len(buf))
	return nil
}

func (m *DiskManager) readChunk(pageID int64) ([]byte, error) {
	buf := make([]byte, m.cfg.PageSize)
	offset := pageID * int64(m.cfg.PageSize)
	n, err := m.dataFile.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, illegalStateError("read page %d: %v", pageID, err)
	}
	if n != int(m.cfg.PageSize) {
		return nil, illegalStateError("short read on page %d: got %d bytes", pageID, n)
	}
	m.stats.PageReads++
	return buf, nil
}

// Load returns a fresh copy of the bytes stored at id.
func (m *DiskManager) Load(id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, illegalStateError("manager closed")
	}

	if data, ok := m.cache.get(id); ok {
		m.stats.CacheHits++
		return data, nil
	}

	rec, ok := m.index[id]
	if !ok {
		return nil, invalidPageError(id)
	}

	scratch := make([]byte, 0, len(rec.pages)*int(m.cfg.PageSize))
	for _, pageID := range rec.pages {
		chunk, err := m.readChunk(pageID)
		if err != nil {
			return nil, err
		}
		scratch = append(scratch, chunk...)
	}
	if int(rec.length) > len(scratch) {
		return nil, illegalStateError("record %d length %d exceeds %d stored bytes", id, rec.length, len(scratch))
	}
	data := scratch[:rec.length]

	m.cache.put(id, data)

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Store writes data at id, or allocates a fresh record when
// id == NewPage.
func (m *DiskManager) Store(id int64, data []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, illegalStateError("manager closed")
	}

	chunkCount := numChunks(len(data), m.cfg.PageSize)

	if id == NewPage {
		pages := make([]int64, chunkCount)
		for i := 0; i < chunkCount; i++ {
			pages[i] = m.allocatePage()
		}
		if err := m.writeChunks(pages, data); err != nil {
			return 0, err
		}

		rec := &pageRecord{id: pages[0], length: uint32(len(data)), pages: pages}
		m.index[rec.id] = rec
		m.cache.put(rec.id, data)
		m.logger.Debug("allocated record", zap.Int64("id", rec.id), zap.Int("pages", len(pages)))
		return rec.id, nil
	}

	rec, ok := m.index[id]
	if !ok {
		return 0, invalidPageError(id)
	}

	var pages []int64
	if chunkCount <= len(rec.pages) {
		pages = append(pages, rec.pages[:chunkCount]...)
		m.emptyPages = append(m.emptyPages, rec.pages[chunkCount:]...)
	} else {
		pages = append(pages, rec.pages...)
		for i := len(rec.pages); i < chunkCount; i++ {
			pages = append(pages, m.allocatePage())
		}
	}

	if err := m.writeChunks(pages, data); err != nil {
		return 0, err
	}

	rec.length = uint32(len(data))
	rec.pages = pages
	m.cache.put(id, data)
	return id, nil
}

func (m *DiskManager) writeChunks(pages []int64, data []byte) error {
	for i, pageID := range pages {
		start := i * int(m.cfg.PageSize)
		end := start + int(m.cfg.PageSize)
		if end > len(data) {
			end = len(data)
		}
		if err := m.writeChunk(pageID, data[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Delete marks id's pages free.
func (m *DiskManager) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return illegalStateError("manager closed")
	}

	rec, ok := m.index[id]
	if !ok {
		return invalidPageError(id)
	}

	m.emptyPages = append(m.emptyPages, rec.pages...)
	delete(m.index, id)
	m.cache.remove(id)
	return nil
}

// Flush persists the free list and page index to the index file in
// full, per spec.md §4.B/§6.2. Pages themselves are already on disk
// (every Store call writes its chunks immediately); only the
// bookkeeping needed to find them again is batched until Flush.
func (m *DiskManager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return illegalStateError("manager closed")
	}

	if err := m.writeIndex(); err != nil {
		return err
	}
	if err := m.dataFile.Sync(); err != nil {
		return illegalStateError("sync data file: %v", err)
	}
	if err := m.indexFile.Sync(); err != nil {
		return illegalStateError("sync index file: %v", err)
	}

	m.logger.Debug("flushed", zap.Int("records", len(m.index)), zap.Int("free_pages", len(m.emptyPages)))
	return nil
}

// Close releases the file handles without flushing. Callers that want
// durable state must Flush first; an unflushed Close models the crash
// scenario spec.md §8 Scenario F exercises.
func (m *DiskManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	err1 := m.dataFile.Close()
	err2 := m.indexFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (m *DiskManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// writeIndex serializes the index file per spec.md §4.B's layout:
//
//	page_size u32
//	next_page i64
//	|empty_pages| u32, each free page id i64
//	|page_index| u32, then per record: id i64, length u32, |pages| u32, each page id i64
func (m *DiskManager) writeIndex() error {
	buf := make([]byte, 0, 4096)
	var tmp [8]byte

	binary.LittleEndian.PutUint32(tmp[:4], m.cfg.PageSize)
	buf = append(buf, tmp[:4]...)

	binary.LittleEndian.PutUint64(tmp[:8], uint64(m.nextPage))
	buf = append(buf, tmp[:8]...)

	binary.LittleEndian.PutUint32(tmp[:4], uint32(len(m.emptyPages)))
	buf = append(buf, tmp[:4]...)
	for _, id := range m.emptyPages {
		binary.LittleEndian.PutUint64(tmp[:8], uint64(id))
		buf = append(buf, tmp[:8]...)
	}

	binary.LittleEndian.PutUint32(tmp[:4], uint32(len(m.index)))
	buf = append(buf, tmp[:4]...)
	for _, rec := range m.index {
		binary.LittleEndian.PutUint64(tmp[:8], uint64(rec.id))
		buf = append(buf, tmp[:8]...)
		binary.LittleEndian.PutUint32(tmp[:4], rec.length)
		buf = append(buf, tmp[:4]...)
		binary.LittleEndian.PutUint32(tmp[:4], uint32(len(rec.pages)))
		buf = append(buf, tmp[:4]...)
		for _, p := range rec.pages {
			binary.LittleEndian.PutUint64(tmp[:8], uint64(p))
			buf = append(buf, tmp[:8]...)
		}
	}

	if err := m.indexFile.Truncate(0); err != nil {
		return illegalStateError("truncate index file: %v", err)
	}
	if _, err := m.indexFile.WriteAt(buf, 0); err != nil {
		return illegalStateError("write index file: %v", err)
	}
	return nil
}

// loadIndex reads the index file in full, per spec.md §4.B.
func (m *DiskManager) loadIndex() error {
	data, err := io.ReadAll(m.indexFile)
	if err != nil {
		return illegalStateError("read index file: %v", err)
	}
	if len(data) == 0 {
		return nil
	}

	r := &byteReader{data: data}

	pageSize, err := r.u32()
	if err != nil {
		return illegalStateError("truncated index file header: %v", err)
	}
	m.cfg.PageSize = pageSize

	nextPage, err := r.i64()
	if err != nil {
		return illegalStateError("truncated index file header: %v", err)
	}
	m.nextPage = nextPage

	emptyCount, err := r.u32()
	if err != nil {
		return illegalStateError("truncated free list: %v", err)
	}
	m.emptyPages = make([]int64, 0, emptyCount)
	for i := uint32(0); i < emptyCount; i++ {
		id, err := r.i64()
		if err != nil {
			return illegalStateError("truncated free list entry: %v", err)
		}
		m.emptyPages = append(m.emptyPages, id)
	}

	recordCount, err := r.u32()
	if err != nil {
		return illegalStateError("truncated page index: %v", err)
	}
	m.index = make(map[int64]*pageRecord, recordCount)
	for i := uint32(0); i < recordCount; i++ {
		id, err := r.i64()
		if err != nil {
			return illegalStateError("truncated record header: %v", err)
		}
		length, err := r.u32()
		if err != nil {
			return illegalStateError("truncated record header: %v", err)
		}
		pageCount, err := r.u32()
		if err != nil {
			return illegalStateError("truncated record header: %v", err)
		}
		pages := make([]int64, 0, pageCount)
		for j := uint32(0); j < pageCount; j++ {
			p, err := r.i64()
			if err != nil {
				return illegalStateError("truncated record page list: %v", err)
			}
			pages = append(pages, p)
		}
		m.index[id] = &pageRecord{id: id, length: length, pages: pages}
	}

	return nil
}

// byteReader is a minimal little-endian cursor over an in-memory
// index-file image, used only while loading.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrEndOfStream
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) i64() (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrEndOfStream
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}
