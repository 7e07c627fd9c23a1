// Package byteops decodes fixed-width little-endian integers from borrowed
// byte slices. Callers guarantee the slice is at least as long as the
// requested width; there are no bounds checks here, by design, to keep the
// inner loops of the spectrum decoders tight.
package byteops

// U16 decodes a 16-bit little-endian unsigned integer from the first two
// bytes of b.
func U16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

// U32 decodes a 32-bit little-endian unsigned integer from the first four
// bytes of b.
func U32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// U64 decodes the container format's 64-bit field: only the low 40 bits are
// ever meaningful on disk (an upstream design constraint of the source
// format), so only bytes 0-4 are read; bytes 5-7 are ignored and the top
// 24 bits zero-filled rather than trusted. This
// is deliberate, not a truncation bug.
func U64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32
}

// Uint decodes a little-endian unsigned integer of the given byte width
// (1, 2, 4, or 8) from b. Used where the width is itself data-driven, as in
// a bunch record's gain field.
func Uint(b []byte, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
