package sdfat

import "fmt"

// Uint32BE is a 32-bit unsigned quantity stored as four big-endian bytes,
// index 0 holding the most significant byte. The engine keeps every LBA,
// cluster number, sector count and file size in this form because that is
// the byte order the block device expects in its command frames.
//
// Add wraps modulo 2^32 (a carry out of the most significant byte is
// discarded) and Sub assumes the minuend is not smaller than the
// subtrahend; it wraps otherwise.
type Uint32BE [4]byte

// NewUint32BE converts a native value into its big-endian byte form.
func NewUint32BE(v uint32) Uint32BE {
	return Uint32BE{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// uint32BEFromHalves reassembles a cluster number from the two 16-bit
// halves of a directory entry (high half at byte offsets 20-21, low half
// at 26-27, both little-endian on disk and already decoded to native
// order by the struct reader).
func uint32BEFromHalves(hi, lo uint16) Uint32BE {
	return Uint32BE{byte(hi >> 8), byte(hi), byte(lo >> 8), byte(lo)}
}

// uint32BEFromLE reassembles a 4-byte little-endian on-disk field,
// b0 being the byte at the lowest offset.
func uint32BEFromLE(b0, b1, b2, b3 byte) Uint32BE {
	return Uint32BE{b3, b2, b1, b0}
}

// Uint32 returns the native value.
func (u Uint32BE) Uint32() uint32 {
	return uint32(u[0])<<24 | uint32(u[1])<<16 | uint32(u[2])<<8 | uint32(u[3])
}

// halves splits the value into the two 16-bit halves stored in a
// directory entry cluster field.
func (u Uint32BE) halves() (hi, lo uint16) {
	return uint16(u[0])<<8 | uint16(u[1]), uint16(u[2])<<8 | uint16(u[3])
}

// Add returns u + other. The carry out of the most significant byte is
// discarded, so the result wraps modulo 2^32.
func (u Uint32BE) Add(other Uint32BE) Uint32BE {
	return NewUint32BE(u.Uint32() + other.Uint32())
}

// Sub returns u - other. The caller must ensure u >= other; a smaller
// minuend wraps.
func (u Uint32BE) Sub(other Uint32BE) Uint32BE {
	return NewUint32BE(u.Uint32() - other.Uint32())
}

// IsZero reports whether all four bytes are zero.
func (u Uint32BE) IsZero() bool {
	return u == Uint32BE{}
}

func (u Uint32BE) String() string {
	return fmt.Sprintf("0x%08X", u.Uint32())
}
