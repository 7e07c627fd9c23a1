package container

import (
	"io"
	"math"
)

// newBlockRange addresses the byte range a table-of-contents entry
// describes within the container's backing store. When that store is
// itself an *io.SectionReader, e.g. because one compound file's blocks
// were already carved out of a larger archive, newBlockRange collapses
// the wrapping down to the innermost reader instead of nesting a fresh
// bounds check on top of an existing one.
func newBlockRange(r io.ReaderAt, off, n int64) *blockRange {
	for {
		sr, ok := r.(*io.SectionReader)
		if !ok {
			break
		}
		outer, outerOff, outerN := sr.Outer()
		if off+n > outerN {
			break
		}
		r, off = outer, off+outerOff
	}
	return &blockRange{r, off, n}
}

// blockRange is a read-only view of one block's bytes within a
// container's backing store.
type blockRange struct {
	r      io.ReaderAt
	off, n int64
}

// Outer exposes the range's backing reader and bounds. newBlockRange
// itself collapses only *io.SectionReader wrappers; a *blockRange passed
// to it as the store is kept as is, not unwrapped.
func (b *blockRange) Outer() (io.ReaderAt, int64, int64) { return b.r, b.off, b.n }

func (b *blockRange) Size() int64 { return b.n }

func (b *blockRange) ReadAt(p []byte, off int64) (n int, err error) {
	if b.n < 0 || b.off < 0 || off < 0 || b.off+off < 0 || off >= b.n {
		return 0, io.EOF
	}

	limit := b.off + b.n
	if limit < b.off { // integer overflow
		limit = math.MaxInt64
	}

	off += b.off
	if max := limit - off; int64(len(p)) > max {
		p = p[:max]
		n, err = b.r.ReadAt(p, off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return b.r.ReadAt(p, off)
}
