package qsem

import (
	"errors"

	"github.com/ricounet67/QSEM-viewer/internal/blockio"
	"github.com/ricounet67/QSEM-viewer/internal/spectrum"
)

// ErrStreamExhausted is returned when the container's block source ends
// while a read is still mid-record.
var ErrStreamExhausted = blockio.ErrStreamExhausted

// ErrFormatViolation is returned when a bunch decode overshoots its
// declared payload length, or a pixel record's fields are internally
// inconsistent.
var ErrFormatViolation = spectrum.ErrFormatViolation

// ErrUnsupportedCountWidth is returned when the caller (or the
// container's own depth estimate) asks for 64-bit counts, which this
// decoder does not support.
var ErrUnsupportedCountWidth = errors.New("qsem: unsupported count width")
