package readhandle

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// DocSetIterator enumerates one run-length-encoded document set in
// ascending order. Grounded on indexSetIterator.hpp's
// skip(elemno)/elemno() pair; used both for create_inverted_acl_iterator
// (a user's readable-document set, the 'U' family) and, if the doc->user
// direction is ever needed for a single document, the 'D' family.
// Like postiter.Term, the whole chain is loaded once at construction --
// a read snapshot of the set as of that moment, per spec.md §5.
type DocSetIterator struct {
	chain  []*block.DocSetBlock
	idx    int
	elemno uint32
}

func newDocSetIterator(kv kvstore.KeyValue, prefix []byte) (*DocSetIterator, error) {
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var chain []*block.DocSetBlock
	for it.Next() {
		blk, err := block.UnmarshalDocSet(it.Value())
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "readhandle: corrupt docset block")
		}
		chain = append(chain, blk)
	}
	return &DocSetIterator{chain: chain}, nil
}

// NewInvertedAclIterator opens the set of documents userno may read,
// per spec.md §4.11's create_inverted_acl_iterator(user).
func NewInvertedAclIterator(kv kvstore.KeyValue, userno ids.Userno) (*DocSetIterator, error) {
	return newDocSetIterator(kv, codec.UserAclChainPrefix(uint32(userno)))
}

// NewAclIterator opens the set of users authorized to read docno (the
// 'D'-family direction), supplementing create_inverted_acl_iterator with
// the other direction original_source's indexSetIterator.cpp serves
// identically.
func NewAclIterator(kv kvstore.KeyValue, docno ids.Docno) (*DocSetIterator, error) {
	return newDocSetIterator(kv, codec.AclChainPrefix(uint32(docno)))
}

// NewTermDocSet opens a term's document set (the 'b' family), used by
// query planning to estimate selectivity without paying for posting
// positions, per spec.md §4.3.
func NewTermDocSet(kv kvstore.KeyValue, typeno ids.Typeno, termno ids.Termno) (*DocSetIterator, error) {
	return newDocSetIterator(kv, codec.DocsetChainPrefix(uint32(typeno), uint32(termno)))
}

// Skip returns the least element >= elemno in the set, or 0 if none
// remains. Mirrors IndexSetIterator::skip's forward-only chain walk.
func (s *DocSetIterator) Skip(elemno uint32) uint32 {
	for s.idx < len(s.chain) {
		blk := s.chain[s.idx]
		if e, ok := blk.Skip(elemno); ok {
			s.elemno = e
			return e
		}
		s.idx++
	}
	s.elemno = 0
	return 0
}

// Elemno returns the element the iterator is currently positioned at,
// or 0 if Skip has never succeeded.
func (s *DocSetIterator) Elemno() uint32 { return s.elemno }
