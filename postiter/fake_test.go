package postiter

import (
	"github.com/patrickfrey/strus-sub004/ids"
)

// fakeIter is a hand-built PostingIterator over an in-memory
// doc->positions map, used to exercise the join combinators directly
// without going through block/kvstore fixtures.
type fakeIter struct {
	id   string
	docs map[ids.Docno][]ids.Position

	ordered []ids.Docno
	idx     int
	docno   ids.Docno
	posIdx  int
	posno   ids.Position
}

func newFakeIter(id string, docs map[ids.Docno][]ids.Position) *fakeIter {
	ordered := make([]ids.Docno, 0, len(docs))
	for d := range docs {
		ordered = append(ordered, d)
	}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j] < ordered[i] {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	return &fakeIter{id: id, docs: docs, ordered: ordered}
}

func (f *fakeIter) FeatureID() string        { return f.id }
func (f *fakeIter) DocumentFrequency() uint64 { return uint64(len(f.docs)) }

func (f *fakeIter) SkipDoc(docno ids.Docno) ids.Docno {
	for f.idx < len(f.ordered) && f.ordered[f.idx] < docno {
		f.idx++
	}
	if f.idx >= len(f.ordered) {
		f.docno, f.posno, f.posIdx = 0, 0, -1
		return 0
	}
	f.docno = f.ordered[f.idx]
	f.posIdx = -1
	f.posno = 0
	return f.docno
}

func (f *fakeIter) SkipDocCandidate(docno ids.Docno) ids.Docno { return f.SkipDoc(docno) }

// SkipPos mirrors block.PositionScanner.SkipPos: it always resumes the
// search at posIdx+1, so it never returns the same element twice even
// if called again with a target it has already satisfied.
func (f *fakeIter) SkipPos(pos ids.Position) ids.Position {
	if f.docno == 0 {
		return 0
	}
	positions := f.docs[f.docno]
	for i := f.posIdx + 1; i < len(positions); i++ {
		if positions[i] >= pos {
			f.posIdx = i
			f.posno = positions[i]
			return f.posno
		}
	}
	f.posIdx = len(positions)
	f.posno = 0
	return 0
}

func (f *fakeIter) Frequency() uint32 {
	if f.docno == 0 {
		return 0
	}
	return uint32(len(f.docs[f.docno]))
}

func (f *fakeIter) Docno() ids.Docno    { return f.docno }
func (f *fakeIter) Posno() ids.Position { return f.posno }
func (f *fakeIter) Length() uint32      { return 1 }

var _ PostingIterator = (*fakeIter)(nil)
