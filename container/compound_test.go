package container_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/ricounet67/QSEM-viewer/container"
)

type byteReaderAt struct{ data []byte }

func (b *byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func toc(blocks [][]byte) ([]byte, []container.BlockDescriptor) {
	var data []byte
	var descs []container.BlockDescriptor
	for _, b := range blocks {
		descs = append(descs, container.BlockDescriptor{
			Offset:   int64(len(data)),
			Length:   int64(len(b)),
			Checksum: xxhash.Sum64(b),
		})
		data = append(data, b...)
	}
	return data, descs
}

func TestCompoundIteratesBlocksInOrder(t *testing.T) {
	blocks := [][]byte{
		bytes.Repeat([]byte{1}, 8),
		bytes.Repeat([]byte{2}, 8),
		bytes.Repeat([]byte{3}, 8),
	}
	data, descs := toc(blocks)

	c := container.NewCompound(&byteReaderAt{data}, descs, container.Meta{
		Width: 4, Height: 4, Channels: 16, Depth: container.U32,
	}, 0)

	src, blockSize, totalBlocks, err := c.GetIterAndProperties()
	if err != nil {
		t.Fatal(err)
	}
	if blockSize != 8 || totalBlocks != 3 {
		t.Errorf("blockSize=%d totalBlocks=%d, want 8, 3", blockSize, totalBlocks)
	}

	var got [][]byte
	for {
		b, ok := src.Next()
		if !ok {
			break
		}
		cp := append([]byte(nil), b...)
		got = append(got, cp)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(got))
	}
	for i, b := range got {
		if !bytes.Equal(b, blocks[i]) {
			t.Errorf("block %d = %v, want %v", i, b, blocks[i])
		}
	}
}

func TestCompoundDetectsChecksumMismatch(t *testing.T) {
	blocks := [][]byte{bytes.Repeat([]byte{9}, 4)}
	data, descs := toc(blocks)
	descs[0].Checksum ^= 1 // corrupt the recorded checksum

	c := container.NewCompound(&byteReaderAt{data}, descs, container.Meta{
		Width: 1, Height: 1, Channels: 1, Depth: container.U8,
	}, 0)

	src, _, _, err := c.GetIterAndProperties()
	if err != nil {
		t.Fatal(err)
	}
	_, ok := src.Next()
	if ok {
		t.Fatal("expected the mismatched block to fail")
	}
	errIter, ok := src.(interface{ Err() error })
	if !ok {
		t.Fatal("expected the iterator to expose Err()")
	}
	if !errors.Is(errIter.Err(), container.ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", errIter.Err())
	}
}

func TestCompoundRepeatedFetchServedFromCache(t *testing.T) {
	blocks := [][]byte{bytes.Repeat([]byte{7}, 8)}
	data, descs := toc(blocks)

	store := &byteReaderAt{data}
	c := container.NewCompound(store, descs, container.Meta{
		Width: 1, Height: 1, Channels: 1, Depth: container.U8,
	}, 0)

	for pass := range 2 {
		if pass == 1 {
			// Corrupt the backing store: a re-read would now fail its
			// checksum, so only a cache hit can yield the original block.
			store.data[0] ^= 0xFF
		}
		src, _, _, err := c.GetIterAndProperties()
		if err != nil {
			t.Fatal(err)
		}
		b, ok := src.Next()
		if !ok {
			t.Fatal("expected a block")
		}
		if !bytes.Equal(b, blocks[0]) {
			t.Errorf("got %v, want %v", b, blocks[0])
		}
	}
}
