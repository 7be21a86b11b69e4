package postiter

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/ids"
)

func TestSequenceMatchesOrderedPositionsWithinRange(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {5}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {9}})
	s := NewSequence([]PostingIterator{a, b}, 10)
	if got := s.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1", got)
	}
	if got := s.Posno(); got != 5 {
		t.Fatalf("Posno() = %d, want 5", got)
	}
	if got := s.Length(); got != 4 {
		t.Fatalf("Length() = %d, want 4 (span 5..9)", got)
	}
}

func TestSequenceAcceptsExactRangeBoundary(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {1}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {4}})
	s := NewSequence([]PostingIterator{a, b}, 3)
	if got := s.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1 (span 1..4 is exactly 3, the range boundary)", got)
	}
	if got := s.Length(); got != 3 {
		t.Fatalf("Length() = %d, want 3", got)
	}
}

func TestSequenceRejectsOutOfOrderPositions(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {9}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {5}})
	s := NewSequence([]PostingIterator{a, b}, 10)
	if got := s.SkipDoc(1); got != 0 {
		t.Fatalf("SkipDoc(1) = %d, want 0 (b's position never follows a's)", got)
	}
}

func TestSequenceImmRequiresExactAdjacency(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {5}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {6}})
	s := NewSequenceImm([]PostingIterator{a, b})
	if got := s.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1", got)
	}
	if got := s.Posno(); got != 5 {
		t.Fatalf("Posno() = %d, want 5", got)
	}
}

func TestSequenceImmRejectsGap(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {5}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {7}})
	s := NewSequenceImm([]PostingIterator{a, b})
	if got := s.SkipDoc(1); got != 0 {
		t.Fatalf("SkipDoc(1) = %d, want 0 (position 7 is not adjacent to 5)", got)
	}
}

func TestStructSequenceBlockedByBarrier(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {5}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {9}})
	sep := newFakeIter("sep", map[ids.Docno][]ids.Position{1: {7}})
	s := NewStructSequence([]PostingIterator{a, b}, 10, sep)
	if got := s.SkipDoc(1); got != 0 {
		t.Fatalf("SkipDoc(1) = %d, want 0 (struct position 7 crosses the sequence)", got)
	}
}
