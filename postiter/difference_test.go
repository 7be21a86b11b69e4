package postiter

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/ids"
)

func TestDifferenceExcludesSecond(t *testing.T) {
	first := newFakeIter("first", map[ids.Docno][]ids.Position{1: {1, 2}, 2: {1}, 3: {1}})
	second := newFakeIter("second", map[ids.Docno][]ids.Position{2: {1}})
	d := NewDifference(first, second)
	if got := d.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1", got)
	}
	if got := d.SkipDoc(2); got != 3 {
		t.Fatalf("SkipDoc(2) = %d, want 3 (doc 2 excluded entirely)", got)
	}
}

func TestDifferenceExcludesMatchingPositionsOnly(t *testing.T) {
	first := newFakeIter("first", map[ids.Docno][]ids.Position{1: {1, 2, 3}})
	second := newFakeIter("second", map[ids.Docno][]ids.Position{1: {2}})
	d := NewDifference(first, second)
	// SkipDoc itself already verifies and lands on the first surviving
	// position (1); querying SkipPos again with the same target would
	// violate the forward-only contract, so the next check asks for the
	// position after it.
	if got := d.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1", got)
	}
	if got := d.Posno(); got != 1 {
		t.Fatalf("Posno() after SkipDoc(1) = %d, want 1", got)
	}
	if got := d.SkipPos(2); got != 3 {
		t.Fatalf("SkipPos(2) = %d, want 3 (position 2 excluded)", got)
	}
}
