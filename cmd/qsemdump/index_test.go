package main

import "testing"

func TestFingerprintStableForSameInputs(t *testing.T) {
	p := decodeParams{width: 512, height: 512, channels: 4096, downsample: 1}
	a := fingerprint(1024, 500, p)
	b := fingerprint(1024, 500, p)
	if a != b {
		t.Fatalf("fingerprint is not deterministic: %d != %d", a, b)
	}
}

func TestFingerprintDistinguishesGeometry(t *testing.T) {
	base := decodeParams{width: 512, height: 512, channels: 4096, downsample: 1}
	changed := base
	changed.width = 256

	a := fingerprint(1024, 500, base)
	b := fingerprint(1024, 500, changed)
	if a == b {
		t.Fatal("fingerprint did not change when decode geometry changed")
	}
}

func TestFingerprintDistinguishesChunkedMode(t *testing.T) {
	base := decodeParams{width: 512, height: 512, channels: 4096, downsample: 1}
	chunked := base
	chunked.chunked = true
	chunked.bandRows = 64

	a := fingerprint(1024, 500, base)
	b := fingerprint(1024, 500, chunked)
	if a == b {
		t.Fatal("fingerprint did not change when -chunked/-band-rows changed")
	}
}

func TestRecordAndLookupCompletionRoundTrip(t *testing.T) {
	idx, err := openDecodeIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	p := decodeParams{width: 512, height: 512, channels: 4096, downsample: 1}
	fp := fingerprint(2048, 12345, p)

	if _, found, err := idx.lookupCompletion("map.qsem", fp); err != nil {
		t.Fatal(err)
	} else if found {
		t.Fatal("lookupCompletion found a record before one was ever written")
	}

	if err := idx.recordCompletion("map.qsem", fp, 9001); err != nil {
		t.Fatal(err)
	}

	total, found, err := idx.lookupCompletion("map.qsem", fp)
	if err != nil {
		t.Fatal(err)
	}
	if !found || total != 9001 {
		t.Fatalf("lookupCompletion = (%d, %v), want (9001, true)", total, found)
	}
}

func TestLookupCompletionMissesOnChangedFingerprint(t *testing.T) {
	idx, err := openDecodeIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	p := decodeParams{width: 512, height: 512, channels: 4096, downsample: 1}
	oldFP := fingerprint(2048, 12345, p)
	newFP := fingerprint(4096, 67890, p) // file grew and was re-saved

	if err := idx.recordCompletion("map.qsem", oldFP, 9001); err != nil {
		t.Fatal(err)
	}

	if _, found, err := idx.lookupCompletion("map.qsem", newFP); err != nil {
		t.Fatal(err)
	} else if found {
		t.Fatal("lookupCompletion matched a stale fingerprint after the file changed")
	}
}
