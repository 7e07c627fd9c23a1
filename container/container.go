// Package container defines the contract a compound-file container must
// satisfy to drive a hyperspectral map decode, and provides a reference
// implementation (Compound) of that contract.
package container

import (
	"github.com/ricounet67/QSEM-viewer/internal/blockio"
)

// CountWidth names the unsigned integer widths a container may suggest
// for the output cube. Unlike cube.CountWidth, it includes U64: the
// container is free to report that a map needs 64-bit counts, and it is
// the driver's job to reject that rather than the container's.
type CountWidth int

const (
	U8 CountWidth = iota
	U16
	U32
	U64
)

// Container is the handle a decode driver queries for everything it needs
// to allocate an output cube and start walking a map's pixel stream: a
// block source, the nominal block size, and estimates of the map's
// geometry and dynamic range.
type Container interface {
	// GetIterAndProperties returns a fresh block source positioned at the
	// start of the logical data stream, together with its nominal block
	// size. The source yields totalBlocks buffers in order, each of length
	// at most blockSize.
	GetIterAndProperties() (src blockio.BlockSource, blockSize uint32, totalBlocks uint32, err error)

	// EstimateMapChannels reports the default channel depth to allocate
	// when the caller has not supplied an explicit cutoff.
	EstimateMapChannels() uint32

	// EstimateMapDepth suggests a count-element width wide enough to hold
	// the largest count this map is expected to produce once decoded at
	// the given downsample factor.
	EstimateMapDepth(downsample uint32) CountWidth

	// Width and Height report the map's raster dimensions before any
	// downsampling is applied.
	Width() uint32
	Height() uint32
}
