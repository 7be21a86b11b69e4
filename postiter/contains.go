package postiter

import (
	"strings"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Contains is a document-level-only join: posting (d, 1) iff every
// sub-iterator has some position in d (or, with cardinality < N, at
// least cardinality of them do). Positions are always 1, per spec.md
// §4.7. Grounded on docnoAllMatchItr.cpp, the document-only counterpart
// of the position-aware joins.
type Contains struct {
	subs        []PostingIterator
	cardinality int
	queue       *CardinalityQueue

	docno ids.Docno
}

// NewContains returns a Contains requiring at least cardinality of
// subs to match the same document.
func NewContains(subs []PostingIterator, cardinality int) (*Contains, error) {
	c := &Contains{subs: append([]PostingIterator(nil), subs...), cardinality: cardinality}
	if cardinality < len(subs) {
		q, err := NewCardinalityQueue(subs, cardinality)
		if err != nil {
			return nil, err
		}
		c.queue = q
	}
	return c, nil
}

func (c *Contains) FeatureID() string {
	var b strings.Builder
	b.WriteString("C(")
	for i, s := range c.subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.FeatureID())
	}
	b.WriteByte(')')
	return b.String()
}

func (c *Contains) DocumentFrequency() uint64 {
	min := uint64(0)
	for _, s := range c.subs {
		df := s.DocumentFrequency()
		if min == 0 || df < min {
			min = df
		}
	}
	return min
}

func (c *Contains) SkipDocCandidate(docno ids.Docno) ids.Docno {
	if c.queue != nil {
		c.queue.Init(docno)
		return c.queue.SkipDocCandidate(docno)
	}
	min := ids.Docno(0)
	for _, s := range c.subs {
		d := s.SkipDocCandidate(docno)
		if d == 0 {
			return 0
		}
		if d > min {
			min = d
		}
	}
	return min
}

func (c *Contains) SkipDoc(docno ids.Docno) ids.Docno {
	if c.queue != nil {
		d := c.queue.SkipDoc(docno)
		c.docno = d
		return d
	}
	for {
		candidate := c.SkipDocCandidate(docno)
		if candidate == 0 {
			c.docno = 0
			return 0
		}
		allMatch := true
		for _, s := range c.subs {
			if s.SkipDoc(candidate) != candidate {
				allMatch = false
			}
		}
		if allMatch {
			c.docno = candidate
			return candidate
		}
		docno = candidate + 1
	}
}

func (c *Contains) SkipPos(pos ids.Position) ids.Position {
	if c.docno != 0 && pos <= 1 {
		return 1
	}
	return 0
}

func (c *Contains) Frequency() uint32 {
	if c.docno == 0 {
		return 0
	}
	return 1
}

func (c *Contains) Docno() ids.Docno    { return c.docno }
func (c *Contains) Posno() ids.Position { return 1 }
func (c *Contains) Length() uint32      { return 1 }
