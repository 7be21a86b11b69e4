package postiter

import (
	"fmt"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Succ wraps a single sub-iterator, reporting each of its positions
// shifted one forward: posno = base.posno + 1, with overflow-to-zero
// collapsing to 0 and the document number untouched. Grounded on
// postingIteratorSucc.cpp.
type Succ struct{ base PostingIterator }

// NewSucc returns base shifted one position forward.
func NewSucc(base PostingIterator) *Succ { return &Succ{base: base} }

func (s *Succ) FeatureID() string          { return fmt.Sprintf("S(%s)", s.base.FeatureID()) }
func (s *Succ) DocumentFrequency() uint64  { return s.base.DocumentFrequency() }
func (s *Succ) SkipDoc(d ids.Docno) ids.Docno { return s.base.SkipDoc(d) }
func (s *Succ) SkipDocCandidate(d ids.Docno) ids.Docno {
	return s.base.SkipDocCandidate(d)
}

// SkipPos finds the least base position p with p+1 >= pos, and reports
// p+1.
func (s *Succ) SkipPos(pos ids.Position) ids.Position {
	want := pos
	if want > 0 {
		want--
	}
	p := s.base.SkipPos(want)
	return addSub(p, 1)
}

func (s *Succ) Frequency() uint32 { return s.base.Frequency() }
func (s *Succ) Docno() ids.Docno  { return s.base.Docno() }
func (s *Succ) Posno() ids.Position {
	return addSub(s.base.Posno(), 1)
}
func (s *Succ) Length() uint32 { return s.base.Length() }

// Pred is Succ's mirror: posno = base.posno - 1. Grounded on
// postingIteratorPred.cpp.
type Pred struct{ base PostingIterator }

// NewPred returns base shifted one position backward.
func NewPred(base PostingIterator) *Pred { return &Pred{base: base} }

func (p *Pred) FeatureID() string          { return fmt.Sprintf("P(%s)", p.base.FeatureID()) }
func (p *Pred) DocumentFrequency() uint64  { return p.base.DocumentFrequency() }
func (p *Pred) SkipDoc(d ids.Docno) ids.Docno { return p.base.SkipDoc(d) }
func (p *Pred) SkipDocCandidate(d ids.Docno) ids.Docno {
	return p.base.SkipDocCandidate(d)
}

// SkipPos finds the least base position q with q-1 >= pos, i.e. the
// least base position >= pos+1, and reports q-1.
func (p *Pred) SkipPos(pos ids.Position) ids.Position {
	q := p.base.SkipPos(pos + 1)
	return addSub(q, -1)
}

func (p *Pred) Frequency() uint32 { return p.base.Frequency() }
func (p *Pred) Docno() ids.Docno  { return p.base.Docno() }
func (p *Pred) Posno() ids.Position {
	return addSub(p.base.Posno(), -1)
}
func (p *Pred) Length() uint32 { return p.base.Length() }
