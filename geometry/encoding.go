package geometry

import (
	"encoding/binary"
	"math"
)

// putFloat64 and getFloat64 round-trip a float64 through its
// little-endian bit pattern, matching the in-memory node encoding
// spec.md §4.C mandates for every f64 field.
func putFloat64(buf []byte, v float64) {
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}

func getFloat64(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}

// putUint32 and getUint32 round-trip a count/length field through its
// little-endian encoding, matching the leading vertex-count field of
// Face's byte-array form.
func putUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func getUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
