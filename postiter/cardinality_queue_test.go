package postiter

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/ids"
)

func TestCardinalityQueueFindsMatchingSubset(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {1}, 3: {1}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{1: {1}})
	c := newFakeIter("c", map[ids.Docno][]ids.Position{3: {1}})
	q, err := NewCardinalityQueue([]PostingIterator{a, b, c}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.SkipDoc(1); got != 1 {
		t.Fatalf("SkipDoc(1) = %d, want 1 (a and b share doc 1)", got)
	}
	candidates := q.CandidateList()
	if len(candidates) != 2 {
		t.Fatalf("CandidateList() has %d entries, want 2", len(candidates))
	}
}

func TestCardinalityQueueRejectsTooHighCardinality(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {1}})
	if _, err := NewCardinalityQueue([]PostingIterator{a}, 2); err == nil {
		t.Fatal("expected error for cardinality exceeding sub-iterator count")
	}
}

func TestCardinalityQueueReturnsZeroWhenTooFewSubsMatch(t *testing.T) {
	a := newFakeIter("a", map[ids.Docno][]ids.Position{1: {1}})
	b := newFakeIter("b", map[ids.Docno][]ids.Position{5: {1}})
	c := newFakeIter("c", map[ids.Docno][]ids.Position{9: {1}})
	q, err := NewCardinalityQueue([]PostingIterator{a, b, c}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.SkipDoc(1); got != 0 {
		t.Fatalf("SkipDoc(1) = %d, want 0 (no document shared by all three)", got)
	}
}
