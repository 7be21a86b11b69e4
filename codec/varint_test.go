package codec

import (
	"bytes"
	"math"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 100, 240, 241, 242, 300, 2287, 2288, 2289,
		67823, 67824, 1 << 24, 1<<24 + 1, 1 << 32, 1<<32 + 1,
		1 << 40, 1 << 48, 1 << 56, math.MaxUint64,
	}
	for _, v := range values {
		b := PackUint(v)
		got, n, err := UnpackUint(b)
		if err != nil {
			t.Fatalf("UnpackUint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip: packed %d, got %d back", v, got)
		}
		if n != len(b) {
			t.Fatalf("UnpackUint consumed %d bytes, want %d", n, len(b))
		}
	}
}

func TestPackPreservesOrder(t *testing.T) {
	values := []uint64{
		0, 1, 239, 240, 241, 1000, 2287, 2288, 67823, 67824,
		1 << 20, 1 << 24, 1 << 30, 1 << 32, 1 << 40, 1 << 48,
		1 << 56, math.MaxUint64,
	}
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			a, b := PackUint(values[i]), PackUint(values[j])
			if bytes.Compare(a, b) >= 0 {
				t.Fatalf("pack(%d) should sort before pack(%d), got %x >= %x", values[i], values[j], a, b)
			}
		}
	}
}

func TestUnpackTruncated(t *testing.T) {
	full := PackUint(1 << 40)
	for i := 0; i < len(full); i++ {
		if _, _, err := UnpackUint(full[:i]); err == nil {
			t.Fatalf("UnpackUint on truncated input (%d of %d bytes) should fail", i, len(full))
		}
	}
}

func TestNameKeyPrefixing(t *testing.T) {
	k1 := NameKey(PrefixTermType, "word")
	k2 := NameKey(PrefixTermType, "words")
	if !bytes.HasPrefix(k2, k1) {
		t.Fatalf("expected %q to prefix %q", k1, k2)
	}
	if k1[0] != PrefixTermType {
		t.Fatalf("missing prefix byte")
	}
}

func TestBlockKeysEndWithBlockID(t *testing.T) {
	k1 := PostingBlockKey(1, 2, 100)
	k2 := PostingBlockKey(1, 2, 200)
	if !bytes.HasPrefix(k2, PostingChainPrefix(1, 2)) || !bytes.HasPrefix(k1, PostingChainPrefix(1, 2)) {
		t.Fatalf("posting block keys should share the chain prefix")
	}
	if bytes.Compare(k1, k2) >= 0 {
		t.Fatalf("block with smaller max docno should sort first: %x >= %x", k1, k2)
	}
}
