package postiter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Within matches documents containing a window of length <= the given
// range that holds positions from at least cardinality of the N
// sub-iterators; the reported position is the start of the smallest
// such window. When struct is non-nil, a window may not cross one of
// struct's positions in the document. Grounded on
// postingIteratorStructWithin.cpp; with cardinality < len(subs) it
// narrows documents first via the CardinalityQueue (§4.8) the same way
// the original does.
type Within struct {
	subs        []PostingIterator
	rang        uint32
	cardinality int
	structIter  PostingIterator

	queue *CardinalityQueue

	docno   ids.Docno
	posno   ids.Position
	span    uint32
	winMask uint64
}

// NewWithin returns a Within over subs, matching windows no larger than
// rang positions containing at least cardinality distinct subs, with an
// optional struct barrier.
func NewWithin(subs []PostingIterator, rang uint32, cardinality int, structIter PostingIterator) (*Within, error) {
	w := &Within{subs: append([]PostingIterator(nil), subs...), rang: rang, cardinality: cardinality, structIter: structIter}
	if cardinality < len(subs) {
		q, err := NewCardinalityQueue(subs, cardinality)
		if err != nil {
			return nil, err
		}
		w.queue = q
	}
	return w, nil
}

func (w *Within) FeatureID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "W[%d,%d](", w.rang, w.cardinality)
	for i, s := range w.subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.FeatureID())
	}
	if w.structIter != nil {
		fmt.Fprintf(&b, ";struct=%s", w.structIter.FeatureID())
	}
	b.WriteByte(')')
	return b.String()
}

func (w *Within) DocumentFrequency() uint64 {
	min := uint64(0)
	for _, s := range w.subs {
		df := s.DocumentFrequency()
		if min == 0 || df < min {
			min = df
		}
	}
	return min
}

func (w *Within) SkipDocCandidate(docno ids.Docno) ids.Docno {
	if w.queue != nil {
		w.queue.Init(docno)
		return w.queue.SkipDocCandidate(docno)
	}
	min := ids.Docno(0)
	for _, s := range w.subs {
		d := s.SkipDocCandidate(docno)
		if d == 0 {
			return 0
		}
		if min == 0 || d > min {
			min = d
		}
	}
	return min
}

// SkipDoc finds the next document holding a qualifying window.
func (w *Within) SkipDoc(docno ids.Docno) ids.Docno {
	for {
		candidate := w.SkipDocCandidate(docno)
		if candidate == 0 {
			w.clear()
			return 0
		}
		for _, s := range w.subs {
			s.SkipDoc(candidate)
		}
		if w.structIter != nil {
			w.structIter.SkipDoc(candidate)
		}
		if pos, span, mask, ok := w.findWindow(w.subs, candidate); ok {
			w.docno, w.posno, w.span, w.winMask = candidate, pos, span, mask
			return candidate
		}
		docno = candidate + 1
	}
}

type posMark struct {
	idx int
	pos ids.Position
}

// findWindow gathers every active sub-iterator's positions in the
// current document and looks for the smallest window of length <=
// rang spanning at least cardinality distinct sub-iterators, not
// crossing a struct position.
func (w *Within) findWindow(active []PostingIterator, docno ids.Docno) (ids.Position, uint32, uint64, bool) {
	var marks []posMark
	for i, s := range active {
		if s.Docno() != docno {
			continue
		}
		pos := ids.Position(0)
		for {
			pos = s.SkipPos(pos + 1)
			if pos == 0 {
				break
			}
			marks = append(marks, posMark{idx: i, pos: pos})
		}
	}
	if len(marks) == 0 {
		return 0, 0, 0, false
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].pos < marks[j].pos })

	var structPositions []ids.Position
	if w.structIter != nil && w.structIter.Docno() == docno {
		sp := ids.Position(0)
		for {
			sp = w.structIter.SkipPos(sp + 1)
			if sp == 0 {
				break
			}
			structPositions = append(structPositions, sp)
		}
	}

	best := uint32(0)
	var bestStart ids.Position
	var bestMask uint64
	found := false

	left := 0
	seen := make(map[int]int) // sub idx -> count in window
	for right := 0; right < len(marks); right++ {
		seen[marks[right].idx]++
		for uint32(marks[right].pos-marks[left].pos) > w.rang && left < right {
			seen[marks[left].idx]--
			if seen[marks[left].idx] == 0 {
				delete(seen, marks[left].idx)
			}
			left++
		}
		if len(seen) >= w.cardinality {
			span := uint32(marks[right].pos - marks[left].pos)
			if crosses(structPositions, marks[left].pos, marks[right].pos) {
				continue
			}
			if !found || span < best {
				best = span
				bestStart = marks[left].pos
				var mask uint64
				for idx := range seen {
					mask |= 1 << uint(idx)
				}
				bestMask = mask
				found = true
			}
		}
	}
	return bestStart, best, bestMask, found
}

func crosses(structPositions []ids.Position, lo, hi ids.Position) bool {
	for _, sp := range structPositions {
		if sp > lo && sp < hi {
			return true
		}
	}
	return false
}

func (w *Within) clear() {
	w.docno, w.posno, w.span, w.winMask = 0, 0, 0, 0
}

func (w *Within) SkipPos(pos ids.Position) ids.Position {
	if pos <= w.posno {
		return w.posno
	}
	return 0
}

func (w *Within) Frequency() uint32 {
	if w.posno == 0 {
		return 0
	}
	return 1
}

func (w *Within) Docno() ids.Docno    { return w.docno }
func (w *Within) Posno() ids.Position { return w.posno }
func (w *Within) Length() uint32      { return w.span }
