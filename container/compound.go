package container

import (
	"fmt"
	"hash/maphash"
	"io"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/therootcompany/xz"

	"github.com/ricounet67/QSEM-viewer/internal/blockio"
)

// BlockDescriptor locates one block within a compound file's underlying
// byte stream. Checksum is the xxhash of the block's decompressed bytes,
// recorded in the file's table of contents at write time.
type BlockDescriptor struct {
	Offset     int64
	Length     int64
	Checksum   uint64
	Compressed bool
}

// Meta carries the geometry and dynamic-range estimates a Compound
// reports through the Container contract.
type Meta struct {
	Width, Height, Channels uint32
	Depth                   CountWidth
}

// ErrChecksumMismatch is returned by a block iterator when a fetched
// block's xxhash does not match its table-of-contents entry.
var ErrChecksumMismatch = fmt.Errorf("container: block checksum mismatch")

// Compound is a reference container.Container backed by a random-access
// byte stream and a flat table of block descriptors. Blocks may
// optionally be stored xz-compressed; every fetched block is verified
// against its recorded checksum before being handed to the decoder.
//
// Compound keeps a small cache of recently decoded blocks so that
// re-running GetIterAndProperties over the same handle (for instance a
// viewer re-rendering an earlier row band) does not always pay to
// re-read and re-decompress from the underlying stream.
type Compound struct {
	ra   io.ReaderAt
	toc  []BlockDescriptor
	meta Meta

	cacheMu sync.Mutex
	cache   *tinylfu.T[int, []byte]
	seed    maphash.Seed
}

// NewCompound wraps a random-access byte stream and its table of
// contents into a Container. cacheSlots bounds the number of decoded
// blocks kept warm; 0 selects a small default.
func NewCompound(ra io.ReaderAt, toc []BlockDescriptor, meta Meta, cacheSlots int) *Compound {
	if cacheSlots <= 0 {
		cacheSlots = 256
	}
	seed := maphash.MakeSeed()
	c := &Compound{ra: ra, toc: toc, meta: meta, seed: seed}
	c.cache = tinylfu.New[int, []byte](cacheSlots, cacheSlots*10, func(k int) uint64 {
		return maphash.Comparable(seed, k)
	})
	return c
}

// GetIterAndProperties reports the largest on-disk block length in the
// table of contents as the nominal block size. For xz-compressed blocks
// that is the compressed length, so a decompressed block the iterator
// yields can be longer than the reported size.
func (c *Compound) GetIterAndProperties() (blockio.BlockSource, uint32, uint32, error) {
	var maxLen int64
	for _, d := range c.toc {
		if d.Length > maxLen {
			maxLen = d.Length
		}
	}
	return &compoundIter{c: c}, uint32(maxLen), uint32(len(c.toc)), nil
}

func (c *Compound) EstimateMapChannels() uint32                  { return c.meta.Channels }
func (c *Compound) EstimateMapDepth(downsample uint32) CountWidth { return c.meta.Depth }
func (c *Compound) Width() uint32                                 { return c.meta.Width }
func (c *Compound) Height() uint32                                { return c.meta.Height }

func (c *Compound) fetchBlock(i int) ([]byte, error) {
	if b, ok := c.cacheGet(i); ok {
		return b, nil
	}

	d := c.toc[i]
	section := newBlockRange(c.ra, d.Offset, d.Length)

	var raw io.Reader = io.NewSectionReader(section, 0, section.Size())
	if d.Compressed {
		xzr, err := xz.NewReader(raw, xz.DefaultDictMax)
		if err != nil {
			return nil, fmt.Errorf("container: opening xz block %d: %w", i, err)
		}
		raw = xzr
	}

	block, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("container: reading block %d: %w", i, err)
	}

	if sum := xxhash.Sum64(block); sum != d.Checksum {
		slog.Error("container: block checksum mismatch", "block", i, "want", d.Checksum, "got", sum)
		return nil, fmt.Errorf("container: block %d: %w", i, ErrChecksumMismatch)
	}

	c.cacheAdd(i, block)
	return block, nil
}

func (c *Compound) cacheGet(i int) ([]byte, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.cache.Get(i)
}

func (c *Compound) cacheAdd(i int, b []byte) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache.Add(i, b)
}

// compoundIter walks a Compound's table of contents in order, satisfying
// blockio.BlockSource. Err reports the first fetch failure, distinguishing
// "ran out of blocks" (ok == false, Err() == nil) from "a block failed to
// validate" (ok == false, Err() != nil).
type compoundIter struct {
	c   *Compound
	i   int
	err error
}

func (it *compoundIter) Next() ([]byte, bool) {
	if it.err != nil || it.i >= len(it.c.toc) {
		return nil, false
	}
	block, err := it.c.fetchBlock(it.i)
	if err != nil {
		it.err = err
		return nil, false
	}
	it.i++
	return block, true
}

// Err returns the error that caused Next to stop early, or nil if the
// iterator was simply exhausted.
func (it *compoundIter) Err() error { return it.err }
