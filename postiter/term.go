package postiter

import (
	"fmt"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// Term reads one term's posting-block chain. Grounded on
// iterator_standard.cpp: the whole chain is loaded once at construction
// (read-snapshot semantics, spec.md §5) and kept as a cached current
// block; SkipDoc walks the chain forward one block at a time using each
// block's own SkipDoc. It does not consult IsThisBlockAddress or
// IsFollowBlockAddress and does not binary-search the chain.
type Term struct {
	typeno ids.Typeno
	termno ids.Termno

	chain []*block.PostingBlock
	df    uint64

	idx     int // index into chain of the current block, or len(chain) if exhausted
	cur     block.Cursor
	curOK   bool
	curDoc  ids.Docno
	curPos  ids.Position
	scanner *block.PositionScanner
}

// NewTerm opens a Term iterator over (typeno, termno)'s posting-block
// chain as currently persisted in kv, with df as its already-known
// document frequency (read from the df cache by the caller, per
// spec.md §4.11).
func NewTerm(kv kvstore.KeyValue, typeno ids.Typeno, termno ids.Termno, df uint64) (*Term, error) {
	prefix := codec.PostingChainPrefix(uint32(typeno), uint32(termno))
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var chain []*block.PostingBlock
	for it.Next() {
		b, err := block.Unmarshal(it.Value())
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "postiter: corrupt posting block")
		}
		chain = append(chain, b)
	}
	return &Term{typeno: typeno, termno: termno, chain: chain, df: df}, nil
}

func (t *Term) FeatureID() string {
	return fmt.Sprintf("T(%d,%d)", t.typeno, t.termno)
}

func (t *Term) DocumentFrequency() uint64 { return t.df }

// SkipDoc finds the least docno' >= docno across the chain. Since a
// block's id is its own largest document number and the chain is
// ordered ascending by id, the first block whose id >= docno is
// guaranteed to contain the answer (block.SkipDoc below never fails
// once that holds).
func (t *Term) SkipDoc(docno ids.Docno) ids.Docno {
	for t.idx < len(t.chain) {
		blk := t.chain[t.idx]
		if docno > blk.ID() {
			t.idx++
			continue
		}
		if c, found, ok := blk.SkipDoc(docno); ok {
			t.setCursor(c, found)
			return found
		}
		t.idx++
	}
	t.curOK = false
	t.curDoc = 0
	t.curPos = 0
	t.scanner = nil
	return 0
}

// SkipDocCandidate is identical to SkipDoc for a term iterator: there is
// no cheaper precheck below the block's own binary search.
func (t *Term) SkipDocCandidate(docno ids.Docno) ids.Docno { return t.SkipDoc(docno) }

func (t *Term) setCursor(c block.Cursor, docno ids.Docno) {
	t.cur = c
	t.curOK = true
	t.curDoc = docno
	t.curPos = 0
	t.scanner = nil
}

func (t *Term) SkipPos(pos ids.Position) ids.Position {
	if !t.curOK {
		return 0
	}
	if t.scanner == nil {
		t.scanner = t.chain[t.idx].PositionScannerAt(t.cur)
	}
	p := t.scanner.SkipPos(uint16(pos))
	t.curPos = ids.Position(p)
	return t.curPos
}

func (t *Term) Frequency() uint32 {
	if !t.curOK {
		return 0
	}
	return uint32(t.chain[t.idx].FrequencyAt(t.cur))
}

func (t *Term) Docno() ids.Docno     { return t.curDoc }
func (t *Term) Posno() ids.Position  { return t.curPos }
func (t *Term) Length() uint32 {
	if !t.curOK {
		return 0
	}
	return 1
}
