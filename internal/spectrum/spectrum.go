// Package spectrum implements the two on-disk spectrum encodings: the
// instructed bunch packing, and the 12-bit pulse list. Both decoders
// translate a borrowed byte range into channel increments on one column
// (one pixel) of an output cube.
package spectrum

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ricounet67/QSEM-viewer/internal/byteops"
	"github.com/ricounet67/QSEM-viewer/internal/cube"
)

// ErrFormatViolation is returned when a bunch decode's consumed byte count
// would overshoot its declared payload length.
var ErrFormatViolation = errors.New("spectrum: format violation")

// DecodeBunch walks an instructed-bunch payload of length len(data),
// scattering channel increments into cube w at column (x, y). Channels at
// or beyond cutoff are silently dropped.
func DecodeBunch(data []byte, w cube.Writer, x, y, cutoff int) error {
	off := 0
	chanCursor := 0
	for off < len(data) {
		if off+2 > len(data) {
			return fmt.Errorf("spectrum: bunch head truncated at offset %d: %w", off, ErrFormatViolation)
		}
		size := int(data[off])
		channels := int(data[off+1])
		off += 2

		if size == 0 {
			chanCursor += channels
			continue
		}

		gainWidth := gainWidth(size)

		if off+gainWidth > len(data) {
			return fmt.Errorf("spectrum: gain field truncated at offset %d: %w", off, ErrFormatViolation)
		}
		gain := byteops.Uint(data[off:], gainWidth)
		off += gainWidth

		dataLen := dataAreaLen(size, channels)
		if off+dataLen > len(data) {
			return fmt.Errorf("spectrum: bunch data area truncated at offset %d: %w", off, ErrFormatViolation)
		}
		area := data[off : off+dataLen]
		off += dataLen

		for i := 0; i < channels; i++ {
			ch := chanCursor + i
			value := readValue(area, i, size)
			if ch < cutoff {
				w.Add(ch, x, y, uint32(value)+uint32(gain))
			}
		}
		chanCursor += channels
	}
	if off != len(data) {
		return fmt.Errorf("spectrum: bunch decode overshot payload (consumed %d of %d): %w", off, len(data), ErrFormatViolation)
	}
	return nil
}

// gainWidth returns the byte width of a bunch's gain field for a given
// head size class. Per-channel value widths (nibble / byte / u16 / u32)
// are handled directly in readValue and dataAreaLen.
func gainWidth(size int) int {
	switch size {
	case 1:
		return 1
	case 2:
		return 2
	case 4:
		return 4
	default:
		// Unconfirmed legacy head-size class, never observed in real
		// captures but kept and logged rather than rejected outright.
		slog.Warn("spectrum: legacy bunch size branch invoked", "size", size)
		return 8
	}
}

// dataAreaLen returns the number of on-disk bytes the per-channel data
// area occupies for a bunch of the given head size and channel count.
func dataAreaLen(size, channels int) int {
	switch size {
	case 1:
		return (channels + 1) / 2
	case 2, 4:
		return channels * size / 2
	default:
		// Legacy head-size classes always carry a 4-byte (u32) value per
		// channel, regardless of the literal on-disk size byte; see
		// readValue's matching default branch.
		return channels * 4
	}
}

// readValue extracts the i'th packed value from a bunch's data area for a
// given head size class.
func readValue(area []byte, i, size int) uint64 {
	switch size {
	case 1: // two nibble values packed per byte, low nibble first
		b := area[i/2]
		if i%2 == 0 {
			return uint64(b & 0x0F)
		}
		return uint64(b >> 4)
	case 2:
		return uint64(area[i])
	case 4:
		return uint64(byteops.U16(area[i*2:]))
	default:
		return uint64(byteops.U32(area[i*4:]))
	}
}

// DecodeTwelveBit decodes n 12-bit channel indices packed four to a
// six-byte group, incrementing cube w at column (x, y) once per pulse
// whose channel is below cutoff. There is no gain and no channel cursor:
// each pulse names its own absolute channel.
func DecodeTwelveBit(data []byte, n int, w cube.Writer, x, y, cutoff int) error {
	groups := (n + 3) / 4
	if need := groups * 6; len(data) < need {
		return fmt.Errorf("spectrum: 12-bit pulse list needs %d bytes for %d pulses, got %d: %w", need, n, len(data), ErrFormatViolation)
	}

	for i := 0; i < n; i++ {
		g := i / 4
		b := data[6*g : 6*g+6]
		var ch int
		switch i % 4 {
		case 0:
			ch = int(b[0])>>4 | int(b[1])<<4
		case 1:
			ch = (int(b[0])<<8 | int(b[3])) & 0x0FFF
		case 2:
			ch = int(b[2])<<4 | int(b[5])>>4
		case 3:
			ch = (int(b[5])<<8 | int(b[4])) & 0x0FFF
		}
		if ch < cutoff {
			w.Add(ch, x, y, 1)
		}
	}
	return nil
}
