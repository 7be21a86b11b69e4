// Package postiter implements the posting-iterator join algebra of
// spec.md §4.7-§4.9: Term, Intersect, Union, Difference, Succ, Pred,
// Within, Sequence, SequenceImm, StructSequence, Between, Contains, the
// cardinality priority queue and the position window enumerator.
//
// Grounded file-for-file on the strus C++ sources under
// _examples/original_source/src/queryproc/iterator: iterator_standard.cpp
// for the shared contract, postingIteratorIntersect.cpp,
// postingIteratorUnion.cpp, postingIteratorSucc.cpp/Pred.cpp,
// postingIteratorStructWithin.cpp, postingIteratorStructSequence.cpp,
// postingIteratorSequenceImm.cpp, postingIteratorBetween.cpp,
// postingIteratorContains.cpp, docnoMatchPrioQueue.cpp and
// docnoAllMatchItr.cpp.
package postiter

import "github.com/patrickfrey/strus-sub004/ids"

// PostingIterator is the contract every posting iterator in this
// package implements, per spec.md §4.7.
type PostingIterator interface {
	// SkipDoc returns the least docno >= docno where this posting set
	// is non-empty (positions exist), or 0 if none remains.
	SkipDoc(docno ids.Docno) ids.Docno

	// SkipDocCandidate is like SkipDoc but may return a candidate whose
	// per-position check has not yet been performed.
	SkipDocCandidate(docno ids.Docno) ids.Docno

	// SkipPos returns, within the current document, the least position
	// >= pos, or 0 if none remains.
	SkipPos(pos ids.Position) ids.Position

	// Frequency returns the count of positions in the current document.
	Frequency() uint32

	// DocumentFrequency returns the number of documents containing any
	// match of this iterator, across the whole store.
	DocumentFrequency() uint64

	// FeatureID returns a string uniquely encoding this iterator's
	// structure, used as a cache key for identical sub-expressions.
	FeatureID() string

	// Docno, Posno and Length return snapshots of current state: the
	// document SkipDoc last landed on, the position SkipPos last
	// landed on, and (where meaningful) the length in positions of the
	// current match.
	Docno() ids.Docno
	Posno() ids.Position
	Length() uint32
}

// addSub returns 0 if adding delta to base would cross the ids.Position
// zero boundary in either direction, collapsing out-of-range results to
// the "no position" sentinel per spec.md §4.7's Succ/Pred rule.
func addSub(base ids.Position, delta int) ids.Position {
	if base == 0 {
		return 0
	}
	v := int(base) + delta
	if v <= 0 {
		return 0
	}
	return ids.Position(v)
}
