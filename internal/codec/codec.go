// Package codec holds the integer primitives used to pull register values
// out of raw sensor buffers.
//
// Every function reads only the bytes it needs and panics on a short slice,
// the same way encoding/binary does. Length checks belong to the caller.
package codec

// U16LE assembles an unsigned 16-bit value stored LSB first.
func U16LE(b []byte) uint16 {
	_ = b[1]

	return uint16(b[0]) | uint16(b[1])<<8
}

// S16LE is U16LE reinterpreted as two's complement.
func S16LE(b []byte) int16 {
	return int16(U16LE(b)) //nolint:gosec
}

// U16BE assembles an unsigned 16-bit value stored MSB first.
func U16BE(b []byte) uint16 {
	_ = b[1]

	return uint16(b[0])<<8 | uint16(b[1])
}

// Packed20 assembles a 20-bit reading from its MSB, LSB and XLSB registers.
// The XLSB register carries bits 3..0 in its high nibble; its low nibble is
// ignored. The result is never sign extended.
func Packed20(b []byte) int32 {
	_ = b[2]

	return int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4
}

// PutU16LE is the inverse of U16LE.
func PutU16LE(b []byte, v uint16) {
	_ = b[1]

	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// PutPacked20 spreads the low 20 bits of v over three registers, leaving the
// low nibble of the last one zero.
func PutPacked20(b []byte, v int32) {
	_ = b[2]

	b[0] = byte(v >> 12)
	b[1] = byte(v >> 4)
	b[2] = byte(v<<4) & 0xF0
}
