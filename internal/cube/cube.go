// Package cube implements the dense (channel, x, y) output array the
// decoder scatters counts into, at one of three unsigned integer widths.
// The decoders and the row walker talk to it only through the Writer
// interface; the concrete width is chosen once, at allocation time, so the
// inner decode loops never branch on it.
package cube

// CountWidth selects the unsigned integer width used to accumulate counts.
// 64-bit counts are intentionally not supported; callers requesting that
// width should fail before ever reaching New.
type CountWidth int

const (
	U8 CountWidth = iota
	U16
	U32
)

// Writer is a mutable column-addressable view onto a cube. Add increments
// the cell at (channel, x, y) by delta, wrapping silently within the
// chosen width if it would overflow; the caller is responsible for
// picking a width that cannot overflow for its data.
type Writer interface {
	// Add increments the cell at (channel, x, y). ch, x, and y are assumed
	// to already be within bounds; callers (the spectrum decoders and the
	// row walker) only call Add after checking the channel cutoff, and the
	// driver is responsible for sizing the cube to fit W, H, and the
	// downsample factor.
	Add(ch, x, y int, delta uint32)

	// Depth, Width, and Height report the cube's shape.
	Depth() int
	Width() int
	Height() int
}

// New allocates a zero-initialised cube of the given shape and width.
func New(width CountWidth, depth, w, h int) Writer {
	n := depth * w * h
	switch width {
	case U8:
		return &cube8{data: make([]uint8, n), d: depth, w: w, h: h}
	case U16:
		return &cube16{data: make([]uint16, n), d: depth, w: w, h: h}
	default:
		return &cube32{data: make([]uint32, n), d: depth, w: w, h: h}
	}
}

type cube8 struct {
	data    []uint8
	d, w, h int
}

func (c *cube8) Add(ch, x, y int, delta uint32) {
	i := (y*c.w+x)*c.d + ch
	c.data[i] += uint8(delta)
}
func (c *cube8) Depth() int  { return c.d }
func (c *cube8) Width() int  { return c.w }
func (c *cube8) Height() int { return c.h }

// Data exposes the backing slice for callers (tests, the driver) that need
// to read the cube back out; it is not part of the Writer interface since
// the core itself never reads the cube, only writes to it.
func (c *cube8) Data() []uint8 { return c.data }

type cube16 struct {
	data    []uint16
	d, w, h int
}

func (c *cube16) Add(ch, x, y int, delta uint32) {
	i := (y*c.w+x)*c.d + ch
	c.data[i] += uint16(delta)
}
func (c *cube16) Depth() int     { return c.d }
func (c *cube16) Width() int     { return c.w }
func (c *cube16) Height() int    { return c.h }
func (c *cube16) Data() []uint16 { return c.data }

type cube32 struct {
	data    []uint32
	d, w, h int
}

func (c *cube32) Add(ch, x, y int, delta uint32) {
	i := (y*c.w+x)*c.d + ch
	c.data[i] += delta
}
func (c *cube32) Depth() int     { return c.d }
func (c *cube32) Width() int     { return c.w }
func (c *cube32) Height() int    { return c.h }
func (c *cube32) Data() []uint32 { return c.data }

// At8 returns the value at (ch, x, y) for a cube allocated with U8 width,
// or false if w is not such a cube. Exported helper for tests and callers
// that know their chosen width.
func At8(w Writer, ch, x, y int) (uint8, bool) {
	c, ok := w.(*cube8)
	if !ok {
		return 0, false
	}
	return c.data[(y*c.w+x)*c.d+ch], true
}

// At16 is the U16 analogue of At8.
func At16(w Writer, ch, x, y int) (uint16, bool) {
	c, ok := w.(*cube16)
	if !ok {
		return 0, false
	}
	return c.data[(y*c.w+x)*c.d+ch], true
}

// At32 is the U32 analogue of At8.
func At32(w Writer, ch, x, y int) (uint32, bool) {
	c, ok := w.(*cube32)
	if !ok {
		return 0, false
	}
	return c.data[(y*c.w+x)*c.d+ch], true
}

// Sum adds up every cell in the cube. Callers use this to check that the
// total number of recorded pulses survived a decode unchanged, regardless
// of width, by re-reading through Add's sibling accessors.
func Sum(w Writer) uint64 {
	var total uint64
	switch c := w.(type) {
	case *cube8:
		for _, v := range c.data {
			total += uint64(v)
		}
	case *cube16:
		for _, v := range c.data {
			total += uint64(v)
		}
	case *cube32:
		for _, v := range c.data {
			total += uint64(v)
		}
	}
	return total
}
