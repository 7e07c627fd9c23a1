// Package blockio hides block-boundary seams from the decoder's upper
// layers. A BlockSource hands over opaque byte blocks one at a time;
// Reader stitches them into a single linear byte stream, carrying any
// unconsumed residue from one block over to the next, so that every
// primitive read sees a contiguous slice even when the bytes it needs
// straddle a block seam.
package blockio

import (
	"errors"

	"github.com/ricounet67/QSEM-viewer/internal/byteops"
)

// ErrStreamExhausted is returned when the block source ends while a read
// still needs more bytes than are currently buffered.
var ErrStreamExhausted = errors.New("blockio: stream exhausted mid-record")

// BlockSource is the inward contract a producer must satisfy: it yields
// byte blocks of at most some nominal size, in order, until exhausted.
type BlockSource interface {
	// Next returns the next block in the sequence. ok is false once the
	// sequence is exhausted, in which case block is nil.
	Next() (block []byte, ok bool)
}

// errSource is an optional extension a BlockSource can satisfy to explain
// why it stopped early: a non-nil Err distinguishes a genuine end of
// stream from an upstream failure (a corrupt block, a read error) that
// just happens to also surface as ok == false from Next.
type errSource interface {
	Err() error
}

// exhausted reports why src stopped yielding blocks: its own Err, if it
// has one and it's non-nil, or ErrStreamExhausted otherwise.
func exhausted(src BlockSource) error {
	if es, ok := src.(errSource); ok {
		if err := es.Err(); err != nil {
			return err
		}
	}
	return ErrStreamExhausted
}

// Reader is a forward-only cursor over the blocks a BlockSource produces.
// It is not safe for concurrent use; nothing about it needs to be, since
// the decoder it serves is itself strictly single-pass.
type Reader struct {
	src    BlockSource
	buf    []byte
	off    int
	length int
}

// New constructs a Reader and eagerly loads the first block, since the
// driver always needs to Seek into it immediately (to skip the container's
// header prologue) before issuing any other read.
func New(src BlockSource) (*Reader, error) {
	r := &Reader{src: src}
	block, ok := src.Next()
	if !ok {
		return nil, exhausted(src)
	}
	r.buf = block
	r.length = len(block)
	return r, nil
}

// ensure guarantees that at least n bytes are available starting at the
// current offset, fetching (and stitching in) the next block if not. A
// request whose length exceeds the nominal block size plus any residue is
// undefined, per the format's own invariant that payload records never
// exceed one block.
func (r *Reader) ensure(n int) error {
	for r.off+n > r.length {
		residue := r.buf[r.off:r.length]
		next, ok := r.src.Next()
		if !ok {
			return exhausted(r.src)
		}

		stitched := make([]byte, len(residue)+len(next))
		copy(stitched, residue)
		copy(stitched[len(residue):], next)

		r.buf = stitched
		r.off = 0
		r.length = len(stitched)
	}
	return nil
}

// Seek advances the read offset to an absolute position within the
// logical stream, fetching and stitching in additional blocks if the
// currently buffered data doesn't reach that far yet. It only ever seeks
// forward; in practice it is used exactly once, to skip the container's
// fixed header prologue, immediately after New has loaded the first
// block.
func (r *Reader) Seek(absolute uint32) error {
	target := int(absolute)
	for target > r.length {
		residue := r.buf[r.off:r.length]
		next, ok := r.src.Next()
		if !ok {
			return exhausted(r.src)
		}

		dropped := r.off
		stitched := make([]byte, len(residue)+len(next))
		copy(stitched, residue)
		copy(stitched[len(residue):], next)

		r.buf = stitched
		r.off = 0
		r.length = len(stitched)
		target -= dropped
	}
	r.off = target
	return nil
}

// Skip advances the offset by n bytes, fetching the next block first if
// necessary.
func (r *Reader) Skip(n int) error {
	if err := r.ensure(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// ReadU8 returns the next byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.ensure(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// ReadU16 returns the next little-endian 16-bit integer.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.ensure(2); err != nil {
		return 0, err
	}
	v := byteops.U16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// ReadU32 returns the next little-endian 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.ensure(4); err != nil {
		return 0, err
	}
	v := byteops.U32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// ReadU64 returns the next little-endian integer, truncated to the
// format's meaningful low 40 bits (see byteops.U64).
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.ensure(8); err != nil {
		return 0, err
	}
	v := byteops.U64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Borrow returns a contiguous slice of length n starting at the current
// offset, fetching the next block first if needed, then advances past it.
// The returned slice is only valid until the next call that might fetch
// (any of Skip/ReadU*/Borrow); callers that need to retain bytes across
// such a call must copy them first.
func (r *Reader) Borrow(n int) ([]byte, error) {
	if err := r.ensure(n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}
