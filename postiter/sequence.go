package postiter

import (
	"fmt"
	"strings"

	"github.com/patrickfrey/strus-sub004/ids"
)

// sequenceMode distinguishes the three ordered-join variants of
// spec.md §4.7 that all share the same "positions occur in the given
// order, each strictly after the previous" core.
type sequenceMode int

const (
	modeSequence sequenceMode = iota
	modeSequenceImm
	modeStructSequence
)

// Sequence matches sub-iterators' positions occurring in the given
// order, each strictly after the previous, within a window no larger
// than rang positions (measured start to end). Grounded on
// postingIteratorStructSequence.cpp's ordered join (without its struct
// restriction, added separately by StructSequence).
type Sequence struct{ seq }

// SequenceImm requires strict adjacency: position of sub-iterator i+1
// equals the position of sub-iterator i plus sub-iterator i's match
// length. Grounded on postingIteratorSequenceImm.cpp.
type SequenceImm struct{ seq }

// StructSequence is Sequence with a struct barrier: the matched range
// must not contain a struct position. Grounded on
// postingIteratorStructSequence.cpp.
type StructSequence struct{ seq }

// NewSequence returns a plain ordered-join iterator.
func NewSequence(subs []PostingIterator, rang uint32) *Sequence {
	return &Sequence{seq{subs: subs, rang: rang, mode: modeSequence}}
}

// NewSequenceImm returns a strict-adjacency ordered-join iterator; rang
// is ignored (adjacency is itself the window constraint).
func NewSequenceImm(subs []PostingIterator) *SequenceImm {
	return &SequenceImm{seq{subs: subs, mode: modeSequenceImm}}
}

// NewStructSequence returns an ordered-join iterator that additionally
// rejects any match whose range crosses a structIter position.
func NewStructSequence(subs []PostingIterator, rang uint32, structIter PostingIterator) *StructSequence {
	return &StructSequence{seq{subs: subs, rang: rang, mode: modeStructSequence, structIter: structIter}}
}

// seq is the shared implementation behind Sequence, SequenceImm and
// StructSequence.
type seq struct {
	subs       []PostingIterator
	rang       uint32
	mode       sequenceMode
	structIter PostingIterator

	docno ids.Docno
	posno ids.Position
	span  uint32
}

func (s *seq) label() string {
	switch s.mode {
	case modeSequenceImm:
		return "Qi"
	case modeStructSequence:
		return "Qs"
	default:
		return "Q"
	}
}

func (s *seq) FeatureID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d](", s.label(), s.rang)
	for i, sub := range s.subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sub.FeatureID())
	}
	if s.structIter != nil {
		fmt.Fprintf(&b, ";struct=%s", s.structIter.FeatureID())
	}
	b.WriteByte(')')
	return b.String()
}

func (s *seq) DocumentFrequency() uint64 {
	min := uint64(0)
	for _, sub := range s.subs {
		df := sub.DocumentFrequency()
		if min == 0 || df < min {
			min = df
		}
	}
	return min
}

func (s *seq) SkipDocCandidate(docno ids.Docno) ids.Docno {
	min := ids.Docno(0)
	for _, sub := range s.subs {
		d := sub.SkipDocCandidate(docno)
		if d == 0 {
			return 0
		}
		if d > min {
			min = d
		}
	}
	return min
}

func (s *seq) SkipDoc(docno ids.Docno) ids.Docno {
	for {
		candidate := s.SkipDocCandidate(docno)
		if candidate == 0 {
			s.docno, s.posno, s.span = 0, 0, 0
			return 0
		}
		for _, sub := range s.subs {
			sub.SkipDoc(candidate)
		}
		if s.structIter != nil {
			s.structIter.SkipDoc(candidate)
		}
		if start, span, ok := s.findMatch(candidate); ok {
			s.docno, s.posno, s.span = candidate, start, span
			return candidate
		}
		docno = candidate + 1
	}
}

// findMatch walks the first sub-iterator's positions as candidate
// starting points and tries to extend an ordered match through the
// rest, honoring the mode's adjacency/window/struct constraint.
func (s *seq) findMatch(docno ids.Docno) (ids.Position, uint32, bool) {
	if len(s.subs) == 0 {
		return 0, 0, false
	}
	start := ids.Position(0)
	for {
		start = s.subs[0].SkipPos(start + 1)
		if start == 0 {
			return 0, 0, false
		}
		if end, ok := s.extend(start); ok {
			span := uint32(end - start)
			if s.mode != modeSequenceImm && s.rang > 0 && span > s.rang {
				continue
			}
			if s.structIter != nil && s.structIter.Docno() == docno && s.crossesStruct(start, end) {
				continue
			}
			return start, span, true
		}
	}
}

// extend tries to place sub-iterators 1..N-1 strictly after one
// another starting from start, returning the last matched position.
func (s *seq) extend(start ids.Position) (ids.Position, bool) {
	prev := start
	prevLen := s.subs[0].Length()
	for i := 1; i < len(s.subs); i++ {
		var want ids.Position
		if s.mode == modeSequenceImm {
			want = prev + ids.Position(prevLen)
		} else {
			want = prev + 1
		}
		p := s.subs[i].SkipPos(want)
		if p == 0 {
			return 0, false
		}
		if s.mode == modeSequenceImm && p != want {
			return 0, false
		}
		prev = p
		prevLen = s.subs[i].Length()
	}
	return prev, true
}

func (s *seq) crossesStruct(lo, hi ids.Position) bool {
	sp := ids.Position(0)
	for {
		sp = s.structIter.SkipPos(sp + 1)
		if sp == 0 || sp >= hi {
			return false
		}
		if sp > lo {
			return true
		}
	}
}

func (s *seq) SkipPos(pos ids.Position) ids.Position {
	if pos <= s.posno {
		return s.posno
	}
	return 0
}

func (s *seq) Frequency() uint32 {
	if s.posno == 0 {
		return 0
	}
	return 1
}

func (s *seq) Docno() ids.Docno    { return s.docno }
func (s *seq) Posno() ids.Position { return s.posno }
func (s *seq) Length() uint32      { return s.span }
