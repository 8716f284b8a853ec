package rtree

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/rtreedb/rtreedb/storage"
)

// headerPageID is the reserved page the tree header lives at. Both
// storage backends hand out id 0 to the very first Store(NewPage,...)
// call against a fresh manager, and New always writes the header
// before anything else, so "the first page stored after
// initialization" (spec.md §6.3) is always page 0 in practice; Open
// reads it back from the same fixed id.
const headerPageID int64 = 0

// header is the singleton record spec.md §3 describes: root page id,
// variant and every tunable, plus the live node/data/height counters
// a faithful implementation must keep consistent across reopen.
type header struct {
	cfg Config

	rootID        int64
	nodeCount     int64
	dataCount     int64
	height        int
	nodesPerLevel []int64
}

// encodeHeader serializes h with a trailing CRC32 checksum over the
// preceding bytes, the same technique the teacher's WAL applies to
// each record (btree/wal.go calculateChecksum).
func encodeHeader(h *header) []byte {
	size := 4 /* variant */ + 8 /* fill factor bits */ + 4 + 4 /* capacities */ +
		4 /* overlap factor */ + 8 /* split dist factor bits */ + 8 /* reinsert factor bits */ +
		1 /* tight mbr */ + 4 /* page size */ + 4 /* lru capacity */ +
		8 /* root id */ + 8 /* node count */ + 8 /* data count */ + 4 /* height */ +
		4 + 8*len(h.nodesPerLevel) /* per-level counts */
	buf := make([]byte, size+4) // +4 checksum trailer
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(h.cfg.Variant))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(h.cfg.FillFactor))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.cfg.IndexCapacity))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.cfg.LeafCapacity))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.cfg.NearMinimumOverlapFactor))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(h.cfg.SplitDistributionFactor))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(h.cfg.ReinsertFactor))
	off += 8
	if h.cfg.TightMBRs {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint32(buf[off:], h.cfg.PageSize)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.cfg.LRUCapacity))
	off += 4

	binary.LittleEndian.PutUint64(buf[off:], uint64(h.rootID))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(h.nodeCount))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(h.dataCount))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.height))
	off += 4

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.nodesPerLevel)))
	off += 4
	for _, c := range h.nodesPerLevel {
		binary.LittleEndian.PutUint64(buf[off:], uint64(c))
		off += 8
	}

	checksum := crc32.ChecksumIEEE(buf[:off])
	binary.LittleEndian.PutUint32(buf[off:], checksum)
	return buf
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < 4+8+4+4+4+8+8+1+4+4+8+8+8+4+4+4 {
		return nil, fmt.Errorf("%w: header record too short", storage.ErrIllegalState)
	}

	payload := buf[:len(buf)-4]
	wantChecksum := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	if got := crc32.ChecksumIEEE(payload); got != wantChecksum {
		return nil, fmt.Errorf("%w: header checksum mismatch (got %d, want %d)", storage.ErrIllegalState, got, wantChecksum)
	}

	h := &header{}
	off := 0

	h.cfg.Variant = Variant(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.cfg.FillFactor = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.cfg.IndexCapacity = int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.cfg.LeafCapacity = int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.cfg.NearMinimumOverlapFactor = int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.cfg.SplitDistributionFactor = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.cfg.ReinsertFactor = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.cfg.TightMBRs = buf[off] != 0
	off++
	h.cfg.PageSize = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.cfg.LRUCapacity = int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	h.rootID = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.nodeCount = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.dataCount = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.height = int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	levelCount := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.nodesPerLevel = make([]int64, 0, levelCount)
	for i := uint32(0); i < levelCount; i++ {
		if off+8 > len(payload) {
			return nil, fmt.Errorf("%w: truncated per-level counts", storage.ErrIllegalState)
		}
		h.nodesPerLevel = append(h.nodesPerLevel, int64(binary.LittleEndian.Uint64(buf[off:])))
		off += 8
	}

	return h, nil
}
