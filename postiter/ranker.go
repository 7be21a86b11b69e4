package postiter

import (
	"container/heap"

	"github.com/patrickfrey/strus-sub004/ids"
)

// RankedResult is one scored document produced by a Ranker.
type RankedResult struct {
	Docno  ids.Docno
	Weight float64
}

// Ranker accumulates scored documents and retains only the best maxHits,
// per spec.md's "iterator utilities: ... ranker (bounded top-N)". The
// strus sources have no single file dedicated to this -- weighting and
// result-set truncation are split across the query evaluation driver --
// so this is grounded on the ordering idioms of
// postingIteratorHelpers.cpp's orderByDocumentFrequency (sort
// candidates by a comparable score, keep only what's needed) adapted
// into a fixed-capacity min-heap, the same container/heap idiom the
// teacher pack uses for bounded candidate sets.
type Ranker struct {
	maxHits int
	h       rankHeap
}

// NewRanker returns a Ranker retaining at most maxHits results, the
// lowest-weight one evicted first when it overflows.
func NewRanker(maxHits int) *Ranker {
	return &Ranker{maxHits: maxHits}
}

// Add offers a scored document to the ranker. If the ranker is already
// at capacity and weight does not exceed the current minimum, it is
// discarded.
func (r *Ranker) Add(docno ids.Docno, weight float64) {
	if r.maxHits <= 0 {
		return
	}
	if len(r.h) < r.maxHits {
		heap.Push(&r.h, RankedResult{Docno: docno, Weight: weight})
		return
	}
	if weight <= r.h[0].Weight {
		return
	}
	heap.Pop(&r.h)
	heap.Push(&r.h, RankedResult{Docno: docno, Weight: weight})
}

// Len reports the number of results currently retained.
func (r *Ranker) Len() int { return len(r.h) }

// Results returns the ranker's retained documents sorted by descending
// weight (best match first). The ranker itself is left unchanged.
func (r *Ranker) Results() []RankedResult {
	out := make([]RankedResult, len(r.h))
	tmp := append(rankHeap(nil), r.h...)
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&tmp).(RankedResult)
	}
	return out
}

// rankHeap is a min-heap by Weight, so the lowest-scoring retained
// result is always the cheapest one to evict.
type rankHeap []RankedResult

func (h rankHeap) Len() int            { return len(h) }
func (h rankHeap) Less(i, j int) bool  { return h[i].Weight < h[j].Weight }
func (h rankHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rankHeap) Push(x interface{}) { *h = append(*h, x.(RankedResult)) }
func (h *rankHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
