package postiter

import (
	"sort"
	"strings"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Intersect matches documents (and, within them, positions) present in
// every sub-iterator. Sub-iterators are sorted once at construction by
// ascending document frequency (rarest first), per spec.md §4.7:
// "skip_doc(d) repeatedly advances the rarest to >= d, then probes the
// rest at that candidate; if any rejects with a larger value, restart
// from that value." Grounded on postingIteratorIntersect.cpp.
type Intersect struct {
	subs []PostingIterator

	docno     ids.Docno
	posno     ids.Position
	matchLens []uint32 // per sub, the Length() of its position match at posno
}

// NewIntersect returns an Intersect over a copy of subs sorted by
// ascending DocumentFrequency; the caller's slice is left unchanged.
func NewIntersect(subs []PostingIterator) *Intersect {
	ordered := append([]PostingIterator(nil), subs...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].DocumentFrequency() < ordered[j].DocumentFrequency()
	})
	return &Intersect{subs: ordered}
}

func (m *Intersect) FeatureID() string {
	var b strings.Builder
	b.WriteString("I(")
	for i, s := range m.subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.FeatureID())
	}
	b.WriteByte(')')
	return b.String()
}

func (m *Intersect) DocumentFrequency() uint64 {
	// An upper bound: the rarest sub-iterator's df. Exact df would
	// require a full scan, which defeats the purpose of this value as
	// a cheap join-ordering hint (spec.md §4.7's rarest-first rule
	// already relies only on the relative ordering, not the exact
	// count).
	if len(m.subs) == 0 {
		return 0
	}
	return m.subs[0].DocumentFrequency()
}

// SkipDocCandidate returns a candidate without verifying every
// sub-iterator's position-level match at that document.
func (m *Intersect) SkipDocCandidate(docno ids.Docno) ids.Docno {
	if len(m.subs) == 0 {
		return 0
	}
	for {
		candidate := m.subs[0].SkipDocCandidate(docno)
		if candidate == 0 {
			return 0
		}
		restart := ids.Docno(0)
		for _, s := range m.subs[1:] {
			got := s.SkipDocCandidate(candidate)
			if got == 0 {
				return 0
			}
			if got > candidate {
				restart = got
				break
			}
		}
		if restart == 0 {
			return candidate
		}
		docno = restart
	}
}

// SkipDoc finds the next document where all sub-iterators share at
// least one common position, per spec.md §4.7's intersect position
// join: "walk positions simultaneously; emit positions that appear in
// all sub-iterators at the same position."
func (m *Intersect) SkipDoc(docno ids.Docno) ids.Docno {
	if len(m.subs) == 0 {
		m.docno, m.posno = 0, 0
		return 0
	}
	for {
		candidate := m.SkipDocCandidate(docno)
		if candidate == 0 {
			m.docno, m.posno = 0, 0
			return 0
		}
		for _, s := range m.subs {
			s.SkipDoc(candidate)
		}
		if pos, lens, ok := m.findCommonPosition(1); ok {
			m.docno = candidate
			m.posno = pos
			m.matchLens = lens
			return candidate
		}
		docno = candidate + 1
	}
}

// findCommonPosition walks every sub-iterator's positions in the
// current document simultaneously and returns the least position >=
// start at which all agree, per the intersect join rule. Each
// sub-iterator's SkipPos cursor only ever moves forward, so every sub is
// polled at most once per round rather than re-queried for the same
// target.
func (m *Intersect) findCommonPosition(start ids.Position) (ids.Position, []uint32, bool) {
	current := make([]ids.Position, len(m.subs))
	target := start
	for {
		maxPos := target
		for i, s := range m.subs {
			if current[i] >= target {
				continue
			}
			p := s.SkipPos(target)
			if p == 0 {
				return 0, nil, false
			}
			current[i] = p
			if p > maxPos {
				maxPos = p
			}
		}
		allMatch := true
		for i := range m.subs {
			if current[i] != maxPos {
				allMatch = false
				break
			}
		}
		if allMatch {
			lens := make([]uint32, len(m.subs))
			for i, s := range m.subs {
				lens[i] = s.Length()
			}
			return maxPos, lens, true
		}
		target = maxPos
	}
}

func (m *Intersect) SkipPos(pos ids.Position) ids.Position {
	if pos <= m.posno {
		return m.posno
	}
	if m.docno == 0 {
		return 0
	}
	p, lens, ok := m.findCommonPosition(pos)
	if !ok {
		return 0
	}
	m.posno, m.matchLens = p, lens
	return p
}

func (m *Intersect) Frequency() uint32 {
	if m.posno == 0 {
		return 0
	}
	return 1
}

func (m *Intersect) Docno() ids.Docno    { return m.docno }
func (m *Intersect) Posno() ids.Position { return m.posno }
func (m *Intersect) Length() uint32 {
	max := uint32(0)
	for _, l := range m.matchLens {
		if l > max {
			max = l
		}
	}
	return max
}
