package postiter

import (
	"sort"

	"github.com/patrickfrey/strus-sub004/ids"
)

// PositionWindow enumerates every window of size <= maxWidth containing
// at least cardinality distinct sub-iterators' positions within one
// already-selected document, per spec.md §4.9. Used by the
// summarization proximity scorer rather than by query matching proper,
// which is why it is driven explicitly (First/Next) instead of through
// the shared PostingIterator contract. Grounded on
// postingIteratorStructWithin.cpp's window-search logic, factored out
// as its own type.
type PositionWindow struct {
	marks       []posMark
	maxWidth    uint32
	cardinality int

	left, right int
	haveWindow  bool

	winStart ids.Position
	winSpan  uint32
	winMask  uint64
}

// NewPositionWindow collects subs' positions in their current document
// (the caller must have already positioned each sub-iterator there) and
// prepares to enumerate windows.
func NewPositionWindow(subs []PostingIterator, maxWidth uint32, cardinality int) *PositionWindow {
	var marks []posMark
	for i, s := range subs {
		pos := ids.Position(0)
		for {
			pos = s.SkipPos(pos + 1)
			if pos == 0 {
				break
			}
			marks = append(marks, posMark{idx: i, pos: pos})
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].pos < marks[j].pos })
	return &PositionWindow{marks: marks, maxWidth: maxWidth, cardinality: cardinality}
}

// First positions the enumerator at the first qualifying window, if
// any.
func (w *PositionWindow) First() bool {
	w.left, w.right = 0, -1
	w.haveWindow = false
	return w.Next()
}

// Next advances to the next qualifying window, returning false once
// every window has been enumerated.
func (w *PositionWindow) Next() bool {
	seen := make(map[int]int)
	for i := w.left; i <= w.right && i < len(w.marks); i++ {
		seen[w.marks[i].idx]++
	}
	for {
		w.right++
		if w.right >= len(w.marks) {
			return false
		}
		seen[w.marks[w.right].idx]++
		for w.left < w.right && uint32(w.marks[w.right].pos-w.marks[w.left].pos) > w.maxWidth {
			seen[w.marks[w.left].idx]--
			if seen[w.marks[w.left].idx] == 0 {
				delete(seen, w.marks[w.left].idx)
			}
			w.left++
		}
		if len(seen) >= w.cardinality {
			w.winStart = w.marks[w.left].pos
			w.winSpan = uint32(w.marks[w.right].pos - w.marks[w.left].pos)
			var mask uint64
			for idx := range seen {
				mask |= 1 << uint(idx)
			}
			w.winMask = mask
			w.haveWindow = true
			w.left++ // next call starts a fresh window from the following mark
			return true
		}
	}
}

// Window returns the bitmask of sub-iterators participating in the
// current window.
func (w *PositionWindow) Window() uint64 { return w.winMask }

// Pos returns the current window's start position.
func (w *PositionWindow) Pos() ids.Position { return w.winStart }

// Span returns the current window's size.
func (w *PositionWindow) Span() uint32 { return w.winSpan }
