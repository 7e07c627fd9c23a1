package qsem

import "github.com/ricounet67/QSEM-viewer/internal/cube"

// CountWidth selects the unsigned integer width of the output cube.
type CountWidth = cube.CountWidth

const (
	U8  = cube.U8
	U16 = cube.U16
	U32 = cube.U32
)

// Cube is the dense (channel, x, y) array a decode produces.
type Cube = cube.Writer

// Options configures a decode. The zero value is valid: Cutoff nil means
// "use the container's channel estimate", and Downsample == 0 behaves as
// 1 (no downsampling).
type Options struct {
	// Cutoff, if non-nil, is the exclusive upper bound on channel
	// indices written to the cube. If nil, the container's
	// EstimateMapChannels is used instead.
	Cutoff *uint32

	// Downsample is the spatial downsample factor. Zero is treated as 1.
	Downsample uint32

	// CountWidth overrides the container's own depth estimate, but only
	// when ExplicitCountWidth is also set; otherwise its zero value (U8)
	// is ignored and resolveCountWidth falls back to the container's
	// estimate.
	CountWidth CountWidth

	// ExplicitCountWidth marks whether CountWidth above was deliberately
	// chosen by the caller, as opposed to left at its zero value.
	ExplicitCountWidth bool
}

func (o Options) downsample() uint32 {
	if o.Downsample == 0 {
		return 1
	}
	return o.Downsample
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}
