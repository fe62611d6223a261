package qiprog

import "encoding/binary"

// Every multi-byte field on the QiProg wire is little-endian, regardless of
// host byte order. These helpers are the only place the package touches raw
// field bytes.

// GetLE16 decodes a little-endian 16-bit field.
func GetLE16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// GetLE32 decodes a little-endian 32-bit field.
func GetLE32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutLE16 encodes v into b in wire order. b must be at least 2 bytes.
func PutLE16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// PutLE32 encodes v into b in wire order. b must be at least 4 bytes.
func PutLE32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// SplitAddr splits a 32-bit address or bus selector into the two 16-bit
// control fields of a transfer: the upper half goes in wValue, the lower half
// in wIndex. Device firmware reassembles the value bit-exact, so the halves
// must never be swapped.
func SplitAddr(addr uint32) (hi, lo uint16) {
	return uint16(addr >> 16), uint16(addr & 0xffff)
}

// JoinAddr is the inverse of SplitAddr.
func JoinAddr(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}
