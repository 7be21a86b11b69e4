package postiter

import (
	"strings"

	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// UnionMaxSubs is the bit-set size bounding how many sub-iterators a
// single Union may hold, per spec.md §4.7 ("up to 64 sub-iterators").
const UnionMaxSubs = 64

// Union matches any document where at least one sub-iterator matches.
// A bitmask records which sub-iterators matched the current document so
// SkipPos only consults those. Grounded on postingIteratorUnion.cpp.
type Union struct {
	subs []PostingIterator
	mask uint64

	docno ids.Docno
}

// NewUnion returns a Union over subs.
func NewUnion(subs []PostingIterator) (*Union, error) {
	if len(subs) > UnionMaxSubs {
		return nil, storeerr.Newf(storeerr.OutOfRange, "postiter: union of %d sub-iterators exceeds the %d bit-set limit", len(subs), UnionMaxSubs)
	}
	return &Union{subs: append([]PostingIterator(nil), subs...)}, nil
}

func (m *Union) FeatureID() string {
	var b strings.Builder
	b.WriteString("U(")
	for i, s := range m.subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.FeatureID())
	}
	b.WriteByte(')')
	return b.String()
}

func (m *Union) DocumentFrequency() uint64 {
	var sum uint64
	for _, s := range m.subs {
		sum += s.DocumentFrequency()
	}
	return sum
}

// SkipDoc returns the minimum of each sub-iterator's SkipDoc(docno),
// setting the match bitmask to every sub-iterator that landed exactly
// on that minimum.
func (m *Union) SkipDoc(docno ids.Docno) ids.Docno {
	min := ids.Docno(0)
	for _, s := range m.subs {
		d := s.SkipDoc(docno)
		if d == 0 {
			continue
		}
		if min == 0 || d < min {
			min = d
		}
	}
	m.docno = min
	m.mask = 0
	if min == 0 {
		return 0
	}
	for i, s := range m.subs {
		if s.Docno() == min {
			m.mask |= 1 << uint(i)
		}
	}
	return min
}

func (m *Union) SkipDocCandidate(docno ids.Docno) ids.Docno {
	min := ids.Docno(0)
	for _, s := range m.subs {
		d := s.SkipDocCandidate(docno)
		if d == 0 {
			continue
		}
		if min == 0 || d < min {
			min = d
		}
	}
	return min
}

// SkipPos returns the minimum SkipPos(pos) over the sub-iterators whose
// match bitmask bit is set for the current document.
func (m *Union) SkipPos(pos ids.Position) ids.Position {
	min := ids.Position(0)
	for i, s := range m.subs {
		if m.mask&(1<<uint(i)) == 0 {
			continue
		}
		p := s.SkipPos(pos)
		if p == 0 {
			continue
		}
		if min == 0 || p < min {
			min = p
		}
	}
	return min
}

func (m *Union) Frequency() uint32 {
	var n uint32
	for i, s := range m.subs {
		if m.mask&(1<<uint(i)) != 0 {
			n += s.Frequency()
		}
	}
	return n
}

func (m *Union) Docno() ids.Docno { return m.docno }

func (m *Union) Posno() ids.Position {
	min := ids.Position(0)
	for i, s := range m.subs {
		if m.mask&(1<<uint(i)) == 0 {
			continue
		}
		p := s.Posno()
		if p == 0 {
			continue
		}
		if min == 0 || p < min {
			min = p
		}
	}
	return min
}

func (m *Union) Length() uint32 {
	max := uint32(0)
	for i, s := range m.subs {
		if m.mask&(1<<uint(i)) == 0 {
			continue
		}
		if l := s.Length(); l > max {
			max = l
		}
	}
	return max
}
