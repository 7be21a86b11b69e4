// Package readhandle implements the storage client's read-only handle
// types named by spec.md §4.11's create_forward_iterator,
// create_metadata_reader, create_attribute_reader and
// create_inverted_acl_iterator operations. Each type follows the same
// shape the pack uses throughout: skipDoc(docno) repositions a cursor,
// then narrower accessors read off the now-current document, mirroring
// original_source/src/lvdbstorage/{metaDataReader,attributeReader,
// indexSetIterator}.hpp's skipDoc/elementHandle/getValue split.
package readhandle

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// ForwardIterator reads one term-type's forward index, one document at
// a time. Grounded on forwardIndexBlockMap.cpp's per-(typeno,docno)
// block chain, narrowed to a read-only cursor: unlike postiter.Term
// (which loads its whole chain once at construction, since one term's
// chain is the whole unit of work for a query), a forward iterator
// ranges over every document of a type, so it loads a fresh chain on
// every SkipDoc call, including a repeated call for the same document.
type ForwardIterator struct {
	kv     kvstore.KeyValue
	typeno ids.Typeno

	docno ids.Docno
	chain []*block.ForwardBlock
	idx   int
}

// NewForwardIterator returns a forward-index reader over typeno, not yet
// positioned at any document.
func NewForwardIterator(kv kvstore.KeyValue, typeno ids.Typeno) *ForwardIterator {
	return &ForwardIterator{kv: kv, typeno: typeno}
}

// SkipDoc repositions the iterator at docno, loading its forward-block
// chain as currently persisted (a fresh read, not the snapshot of any
// earlier SkipDoc call).
func (f *ForwardIterator) SkipDoc(docno ids.Docno) error {
	prefix := codec.ForwardBlockPrefix(uint32(f.typeno), uint32(docno))
	// The block id (max position) sits after the prefix byte and the
	// two packed varints already fixed by prefix -- their packed width
	// depends on typeno/docno's own magnitude, not a constant.
	offset := 1 + len(codec.PackUint32(uint32(f.typeno))) + len(codec.PackUint32(uint32(docno)))
	it := kvstore.RangeScan(f.kv, prefix)
	defer it.Close()
	var chain []*block.ForwardBlock
	for it.Next() {
		maxPos, err := codec.BlockKeyID(it.Key(), offset)
		if err != nil {
			return storeerr.Wrap(storeerr.IntegrityError, err, "readhandle: corrupt forward block key")
		}
		blk, err := block.UnmarshalForward(uint16(maxPos), it.Value())
		if err != nil {
			return storeerr.Wrap(storeerr.IntegrityError, err, "readhandle: corrupt forward block")
		}
		chain = append(chain, blk)
	}
	f.docno = docno
	f.chain = chain
	f.idx = 0
	return nil
}

// Skip returns the least (position, term) entry with position >= pos in
// the current document, or (zero, false) past the end of its forward
// index. Successive calls must use non-decreasing pos, matching
// ForwardBlock.Skip's within-block binary search.
func (f *ForwardIterator) Skip(pos ids.Position) (block.ForwardEntry, bool) {
	for f.idx < len(f.chain) {
		blk := f.chain[f.idx]
		if uint16(pos) > blk.ID() {
			f.idx++
			continue
		}
		if e, ok := blk.Skip(uint16(pos)); ok {
			return e, true
		}
		f.idx++
	}
	return block.ForwardEntry{}, false
}

// Docno returns the document the iterator is currently positioned at.
func (f *ForwardIterator) Docno() ids.Docno { return f.docno }
