package postiter

import (
	"sort"

	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// CardinalityQueueMaxSubs bounds how many sub-iterators one
// CardinalityQueue can hold, per spec.md §4.8 ("up to 256
// sub-iterators").
const CardinalityQueueMaxSubs = 256

// entry pairs a sub-iterator with its last-seen candidate document.
type entry struct {
	sub PostingIterator
	doc ids.Docno
}

// CardinalityQueue is the shared machinery behind every cardinality-
// bounded join (Within with C < N, Contains with C < N): a fixed-
// capacity ascending-document-number priority structure over up to
// CardinalityQueueMaxSubs sub-iterators, per spec.md §4.8.
//
// This implementation keeps entries in a plain slice re-sorted on each
// advance rather than strus's pointer-linked heap; at the bound of 256
// sub-iterators a sort is cheap enough that the simpler representation
// was chosen over porting the original's custom data structure -- a
// deliberate simplification, not an oversight.
type CardinalityQueue struct {
	cardinality int
	entries     []entry
}

// NewCardinalityQueue returns a queue requiring at least cardinality of
// subs to share a document for a match.
func NewCardinalityQueue(subs []PostingIterator, cardinality int) (*CardinalityQueue, error) {
	if len(subs) > CardinalityQueueMaxSubs {
		return nil, storeerr.Newf(storeerr.OutOfRange, "postiter: cardinality queue of %d sub-iterators exceeds the %d limit", len(subs), CardinalityQueueMaxSubs)
	}
	if cardinality <= 0 || cardinality > len(subs) {
		return nil, storeerr.Newf(storeerr.InvalidArgument, "postiter: cardinality %d invalid for %d sub-iterators", cardinality, len(subs))
	}
	q := &CardinalityQueue{cardinality: cardinality}
	q.entries = make([]entry, len(subs))
	for i, s := range subs {
		q.entries[i] = entry{sub: s}
	}
	return q, nil
}

// Init fills the queue with sub_iter.SkipDocCandidate(docno) for each
// sub-iterator, dropping entries at the sentinel 0, then sorts
// ascending.
func (q *CardinalityQueue) Init(docno ids.Docno) {
	live := q.entries[:0]
	for _, e := range q.entries {
		d := e.sub.SkipDocCandidate(docno)
		if d == 0 {
			continue
		}
		live = append(live, entry{sub: e.sub, doc: d})
	}
	q.entries = live
	sort.Slice(q.entries, func(i, j int) bool { return q.entries[i].doc < q.entries[j].doc })
}

// SkipDocCandidate advances the minimum element(s) until the first
// cardinality entries share a document >= docno, returning that
// document, or 0 if the queue shrinks below cardinality first.
func (q *CardinalityQueue) SkipDocCandidate(docno ids.Docno) ids.Docno {
	for {
		if len(q.entries) < q.cardinality {
			return 0
		}
		sort.Slice(q.entries, func(i, j int) bool { return q.entries[i].doc < q.entries[j].doc })
		target := q.entries[q.cardinality-1].doc
		if target < docno {
			target = docno
		}
		changed := false
		live := q.entries[:0]
		for _, e := range q.entries {
			d := e.doc
			if d < target {
				d = e.sub.SkipDocCandidate(target)
				changed = true
			}
			if d == 0 {
				continue
			}
			live = append(live, entry{sub: e.sub, doc: d})
		}
		q.entries = live
		if !changed {
			return target
		}
		sort.Slice(q.entries, func(i, j int) bool { return q.entries[i].doc < q.entries[j].doc })
		if len(q.entries) >= q.cardinality && q.entries[q.cardinality-1].doc == target {
			return target
		}
	}
}

// SkipDoc is SkipDocCandidate followed by verification: calling SkipDoc
// on each of the top cardinality sub-iterators with the candidate; if
// any returns strictly greater, restart from that value.
func (q *CardinalityQueue) SkipDoc(docno ids.Docno) ids.Docno {
	for {
		candidate := q.SkipDocCandidate(docno)
		if candidate == 0 {
			return 0
		}
		restart := ids.Docno(0)
		for i := 0; i < q.cardinality; i++ {
			d := q.entries[i].sub.SkipDoc(candidate)
			q.entries[i].doc = d
			if d == 0 {
				restart = candidate + 1
				break
			}
			if d > candidate {
				restart = d
			}
		}
		if restart == 0 {
			return candidate
		}
		docno = restart
	}
}

// CandidateList returns the sub-iterators currently pinned at the top
// (the first `cardinality` entries after the most recent
// SkipDoc/SkipDocCandidate call).
func (q *CardinalityQueue) CandidateList() []PostingIterator {
	n := q.cardinality
	if n > len(q.entries) {
		n = len(q.entries)
	}
	out := make([]PostingIterator, n)
	for i := 0; i < n; i++ {
		out[i] = q.entries[i].sub
	}
	return out
}
