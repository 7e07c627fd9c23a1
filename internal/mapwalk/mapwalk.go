// Package mapwalk implements the outer loop over a hypermap's rows and
// pixel records, dispatching each pixel's payload to the bunch decoder or
// the 12-bit pulse decoder and handling the "additional pulses" list that
// can follow a bunch payload.
package mapwalk

import (
	"fmt"

	"github.com/ricounet67/QSEM-viewer/internal/blockio"
	"github.com/ricounet67/QSEM-viewer/internal/cube"
	"github.com/ricounet67/QSEM-viewer/internal/spectrum"
)

// ErrFormatViolation is returned when a pixel record's fields are
// internally inconsistent, e.g. data_size2 < 4 in the non-12-bit branch.
// It is the same sentinel the spectrum decoders raise, so callers can
// errors.Is against one identity regardless of which stage detected it.
var ErrFormatViolation = spectrum.ErrFormatViolation

const twelveBitFlag = 1

// Walk consumes h rows of pixel records from r, scattering counts into w.
// downsample must be >= 1; cutoff is the exclusive channel bound.
func Walk(r *blockio.Reader, h int, downsample int, cutoff int, w cube.Writer) error {
	if downsample < 1 {
		downsample = 1
	}

	for row := 0; row < h; row++ {
		n, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("mapwalk: row %d pixel count: %w", row, err)
		}

		yd := row / downsample
		for i := uint32(0); i < n; i++ {
			if err := walkPixel(r, yd, downsample, cutoff, w); err != nil {
				return fmt.Errorf("mapwalk: row %d pixel %d: %w", row, i, err)
			}
		}
	}
	return nil
}

// walkPixel reads one 22-byte pixel record header and its payload, then
// dispatches to the appropriate spectrum decoder.
func walkPixel(r *blockio.Reader, yd, downsample, cutoff int, w cube.Writer) error {
	pixelX, err := r.ReadU32()
	if err != nil {
		return err
	}
	if _, err := r.ReadU16(); err != nil { // chan1, unused
		return err
	}
	if _, err := r.ReadU16(); err != nil { // chan2, unused
		return err
	}
	if err := r.Skip(4); err != nil { // unknown constant
		return err
	}
	flag, err := r.ReadU16()
	if err != nil {
		return err
	}
	if _, err := r.ReadU16(); err != nil { // data_size1, unused
		return err
	}
	nPulses, err := r.ReadU16()
	if err != nil {
		return err
	}
	dataSize2, err := r.ReadU16()
	if err != nil {
		return err
	}
	if err := r.Skip(2); err != nil { // padding
		return err
	}

	xd := int(pixelX) / downsample

	if flag == twelveBitFlag {
		payload, err := r.Borrow(int(dataSize2))
		if err != nil {
			return err
		}
		return spectrum.DecodeTwelveBit(payload, int(nPulses), w, xd, yd, cutoff)
	}

	if dataSize2 < 4 {
		return fmt.Errorf("mapwalk: data_size2=%d < 4 in bunch branch: %w", dataSize2, ErrFormatViolation)
	}
	payload, err := r.Borrow(int(dataSize2) - 4)
	if err != nil {
		return err
	}
	if err := spectrum.DecodeBunch(payload, w, xd, yd, cutoff); err != nil {
		return err
	}

	if nPulses == 0 {
		return r.Skip(4)
	}

	if _, err := r.ReadU32(); err != nil { // add_pulse_size, unused
		return err
	}
	for j := uint16(0); j < nPulses; j++ {
		v, err := r.ReadU16()
		if err != nil {
			return err
		}
		if int(v) < cutoff {
			w.Add(int(v), xd, yd, 1)
		}
	}
	return nil
}
