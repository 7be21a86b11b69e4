package postiter

import (
	"fmt"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Between matches positions of elem that lie strictly inside a
// [start, end) interval delimited by consecutive start/end markers,
// with no other start occurring between them, per spec.md §4.7.
// Grounded on postingIteratorBetween.cpp.
type Between struct {
	elem, start, end PostingIterator

	docno ids.Docno
	posno ids.Position
}

// NewBetween returns elem's positions restricted to the interval
// delimited by start and end.
func NewBetween(elem, start, end PostingIterator) *Between {
	return &Between{elem: elem, start: start, end: end}
}

func (b *Between) FeatureID() string {
	return fmt.Sprintf("B(%s;%s;%s)", b.elem.FeatureID(), b.start.FeatureID(), b.end.FeatureID())
}

func (b *Between) DocumentFrequency() uint64 { return b.elem.DocumentFrequency() }

func (b *Between) SkipDocCandidate(docno ids.Docno) ids.Docno {
	d := b.elem.SkipDocCandidate(docno)
	s := b.start.SkipDocCandidate(docno)
	e := b.end.SkipDocCandidate(docno)
	if d == 0 || s == 0 || e == 0 {
		return 0
	}
	max := d
	if s > max {
		max = s
	}
	if e > max {
		max = e
	}
	return max
}

func (b *Between) SkipDoc(docno ids.Docno) ids.Docno {
	for {
		candidate := b.SkipDocCandidate(docno)
		if candidate == 0 {
			b.docno, b.posno = 0, 0
			return 0
		}
		if candidate > docno {
			docno = candidate
			continue
		}
		b.elem.SkipDoc(candidate)
		b.start.SkipDoc(candidate)
		b.end.SkipDoc(candidate)
		if b.elem.Docno() != candidate || b.start.Docno() != candidate || b.end.Docno() != candidate {
			docno = candidate + 1
			continue
		}
		if p, ok := b.findMatch(); ok {
			b.docno, b.posno = candidate, p
			return candidate
		}
		docno = candidate + 1
	}
}

// findMatch returns the first position of elem that lies strictly
// inside a [start, end) bracket with no other start occurring between
// start and that elem position. Every position series is collected
// upfront so the search can look ahead (a closer start superseding a
// bracket) without relying on a stateful forward-only scan.
func (b *Between) findMatch() (ids.Position, bool) {
	starts := collectPositions(b.start)
	ends := collectPositions(b.end)
	elems := collectPositions(b.elem)

	ei, ti := 0, 0
	for si, sp := range starts {
		var ep ids.Position
		for ti < len(ends) && ends[ti] <= sp {
			ti++
		}
		if ti >= len(ends) {
			break
		}
		ep = ends[ti]

		bracketEnd := ep
		if si+1 < len(starts) && starts[si+1] < bracketEnd {
			bracketEnd = starts[si+1]
		}

		for ei < len(elems) && elems[ei] <= sp {
			ei++
		}
		if ei < len(elems) && elems[ei] < bracketEnd {
			return elems[ei], true
		}
	}
	return 0, false
}

// collectPositions drains every position of it in the current document
// into an ascending slice.
func collectPositions(it PostingIterator) []ids.Position {
	var out []ids.Position
	pos := ids.Position(0)
	for {
		pos = it.SkipPos(pos + 1)
		if pos == 0 {
			return out
		}
		out = append(out, pos)
	}
}

func (b *Between) SkipPos(pos ids.Position) ids.Position {
	if pos <= b.posno {
		return b.posno
	}
	return 0
}

func (b *Between) Frequency() uint32 {
	if b.posno == 0 {
		return 0
	}
	return 1
}

func (b *Between) Docno() ids.Docno    { return b.docno }
func (b *Between) Posno() ids.Position { return b.posno }
func (b *Between) Length() uint32      { return 1 }
