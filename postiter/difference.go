package postiter

import (
	"fmt"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Difference matches first's documents and positions, excluding any
// position that also occurs in second on the same document, per spec.md
// §4.7: "skip_doc(d) = first.skip_doc(d); positions are positions of
// the first argument that do not equal any position of the second
// argument on the same document." Grounded on
// postingIteratorDifference's sibling join shape in the same source
// directory (postingIteratorIntersect.cpp's two-argument pattern,
// inverted).
type Difference struct {
	first, second PostingIterator
	docno         ids.Docno
	posno         ids.Position
}

// NewDifference returns first minus second.
func NewDifference(first, second PostingIterator) *Difference {
	return &Difference{first: first, second: second}
}

func (m *Difference) FeatureID() string {
	return fmt.Sprintf("D(%s,%s)", m.first.FeatureID(), m.second.FeatureID())
}

func (m *Difference) DocumentFrequency() uint64 { return m.first.DocumentFrequency() }

// SkipDoc finds the next document of first that still has at least one
// position surviving the exclusion of second's positions at that
// document -- a document entirely covered by second is skipped, not
// reported as an empty match.
func (m *Difference) SkipDoc(docno ids.Docno) ids.Docno {
	for {
		d := m.first.SkipDoc(docno)
		if d == 0 {
			m.docno, m.posno = 0, 0
			return 0
		}
		m.docno, m.posno = d, 0
		if m.SkipPos(1) != 0 {
			return d
		}
		docno = d + 1
	}
}

func (m *Difference) SkipDocCandidate(docno ids.Docno) ids.Docno {
	return m.first.SkipDocCandidate(docno)
}

// SkipPos returns the least position of first, from pos, that second
// does not also hold in the same document.
func (m *Difference) SkipPos(pos ids.Position) ids.Position {
	if m.docno == 0 {
		return 0
	}
	m.second.SkipDoc(m.docno)
	for {
		p := m.first.SkipPos(pos)
		if p == 0 {
			m.posno = 0
			return 0
		}
		if m.second.Docno() != m.docno || m.second.SkipPos(p) != p {
			m.posno = p
			return p
		}
		pos = p + 1
	}
}

func (m *Difference) Frequency() uint32 { return m.first.Frequency() }
func (m *Difference) Docno() ids.Docno  { return m.docno }
func (m *Difference) Posno() ids.Position { return m.posno }
func (m *Difference) Length() uint32    { return m.first.Length() }
