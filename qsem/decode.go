// Package qsem decodes a hyperspectral map stream into a dense
// (channel, x, y) cube of counts. It owns no I/O of its own: callers
// supply a container.Container that knows how to produce blocks and
// estimate the map's geometry.
package qsem

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/ricounet67/QSEM-viewer/container"
	"github.com/ricounet67/QSEM-viewer/internal/blockio"
	"github.com/ricounet67/QSEM-viewer/internal/cube"
	"github.com/ricounet67/QSEM-viewer/internal/mapwalk"
)

// mapDataOffset is the fixed absolute offset of the pixel stream within
// the logical data stream.
const mapDataOffset = 0x1A0

// Decode reads the whole map from c and returns the fully populated
// cube. Options' zero value decodes with the container's own channel
// and depth estimates and no downsampling.
func Decode(c container.Container, opts Options) (Cube, error) {
	src, blockSize, totalBlocks, err := c.GetIterAndProperties()
	if err != nil {
		return nil, fmt.Errorf("qsem: opening block source: %w", err)
	}

	width, err := resolveCountWidth(c, opts)
	if err != nil {
		return nil, err
	}

	cutoff := opts.Cutoff
	depth := c.EstimateMapChannels()
	if cutoff != nil {
		depth = *cutoff
	}

	s := opts.downsample()
	wd := ceilDiv(c.Width(), s)
	hd := ceilDiv(c.Height(), s)

	slog.Info("qsem: decode starting",
		"blockSize", blockSize, "totalBlocks", totalBlocks,
		"w", c.Width(), "h", c.Height(), "downsample", s, "depth", depth)

	w := cube.New(width, int(depth), int(wd), int(hd))

	r, err := blockio.New(src)
	if err != nil {
		return nil, fmt.Errorf("qsem: reading first block: %w", err)
	}
	if err := r.Seek(mapDataOffset); err != nil {
		return nil, fmt.Errorf("qsem: skipping header prologue: %w", err)
	}

	if err := mapwalk.Walk(r, int(c.Height()), int(s), int(depth), w); err != nil {
		return nil, fmt.Errorf("qsem: decode: %w", err)
	}
	return w, nil
}

// DecodeChunked decodes the map in row bands of the given heights, which
// must sum to at most c.Height(). It yields one cube of shape
// (depth, W, heights[i]) per band at full width; downsample only affects
// how the caller chooses to group rows into bands, not the shape returned
// here. The same reader is reused across bands, so an early break from the
// returned sequence abandons the decode at its current row.
func DecodeChunked(c container.Container, heights []uint32, opts Options) iter.Seq2[Cube, error] {
	return func(yield func(Cube, error) bool) {
		src, blockSize, totalBlocks, err := c.GetIterAndProperties()
		if err != nil {
			yield(nil, fmt.Errorf("qsem: opening block source: %w", err))
			return
		}

		width, err := resolveCountWidth(c, opts)
		if err != nil {
			yield(nil, err)
			return
		}

		cutoff := opts.Cutoff
		depth := c.EstimateMapChannels()
		if cutoff != nil {
			depth = *cutoff
		}

		slog.Info("qsem: chunked decode starting",
			"blockSize", blockSize, "totalBlocks", totalBlocks,
			"bands", len(heights), "depth", depth)

		r, err := blockio.New(src)
		if err != nil {
			yield(nil, fmt.Errorf("qsem: reading first block: %w", err))
			return
		}
		if err := r.Seek(mapDataOffset); err != nil {
			yield(nil, fmt.Errorf("qsem: skipping header prologue: %w", err))
			return
		}

		for i, h := range heights {
			band := cube.New(width, int(depth), int(c.Width()), int(h))
			err := mapwalk.Walk(r, int(h), 1, int(depth), band)
			if err != nil {
				yield(nil, fmt.Errorf("qsem: band %d: %w", i, err))
				return
			}
			if !yield(band, nil) {
				return
			}
		}
	}
}

// resolveCountWidth picks the cube's element width: the caller's
// explicit choice if given, otherwise the container's own estimate,
// rejected if it names a width wider than this decoder supports.
func resolveCountWidth(c container.Container, opts Options) (CountWidth, error) {
	if opts.ExplicitCountWidth {
		switch opts.CountWidth {
		case U8, U16, U32:
			return opts.CountWidth, nil
		default:
			return 0, fmt.Errorf("qsem: unsupported explicit count width %d: %w", opts.CountWidth, ErrUnsupportedCountWidth)
		}
	}
	switch c.EstimateMapDepth(opts.downsample()) {
	case container.U8:
		return U8, nil
	case container.U16:
		return U16, nil
	case container.U32:
		return U32, nil
	default:
		return 0, fmt.Errorf("qsem: container estimated a 64-bit count width: %w", ErrUnsupportedCountWidth)
	}
}
