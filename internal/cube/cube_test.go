package cube

import "testing"

func TestAddAccumulatesNotOverwrites(t *testing.T) {
	w := New(U32, 4, 2, 2)
	w.Add(0, 0, 0, 5)
	w.Add(0, 0, 0, 7)
	got, ok := At32(w, 0, 0, 0)
	if !ok {
		t.Fatal("expected a u32 cube")
	}
	if got != 12 {
		t.Errorf("got %d, want 12", got)
	}
}

func TestU8WrapsModularly(t *testing.T) {
	w := New(U8, 1, 1, 1)
	w.Add(0, 0, 0, 250)
	w.Add(0, 0, 0, 10)
	got, ok := At8(w, 0, 0, 0)
	if !ok {
		t.Fatal("expected a u8 cube")
	}
	if got != 4 { // 260 mod 256
		t.Errorf("got %d, want 4", got)
	}
}

func TestShapeAccessors(t *testing.T) {
	w := New(U16, 3, 5, 7)
	if w.Depth() != 3 || w.Width() != 5 || w.Height() != 7 {
		t.Errorf("shape = (%d,%d,%d), want (3,5,7)", w.Depth(), w.Width(), w.Height())
	}
}

func TestSumAcrossAllWidths(t *testing.T) {
	for _, width := range []CountWidth{U8, U16, U32} {
		w := New(width, 2, 2, 2)
		w.Add(0, 0, 0, 3)
		w.Add(1, 1, 1, 4)
		if got := Sum(w); got != 7 {
			t.Errorf("width %v: sum = %d, want 7", width, got)
		}
	}
}

func TestWrongWidthAccessorReturnsFalse(t *testing.T) {
	w := New(U32, 1, 1, 1)
	if _, ok := At8(w, 0, 0, 0); ok {
		t.Error("At8 should report false for a u32 cube")
	}
	if _, ok := At16(w, 0, 0, 0); ok {
		t.Error("At16 should report false for a u32 cube")
	}
}
