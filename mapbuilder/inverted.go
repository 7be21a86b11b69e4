package mapbuilder

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/dfcache"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
)

// termKey identifies one (typeno, termno) group of an InvertedIndex.
type termKey struct {
	Typeno ids.Typeno
	Termno ids.Termno
}

// InvertedIndex buffers pending per-document posting and docset updates
// across every touched term, keyed by (typeno, termno), and rebuilds
// each touched term's PostingBlock and DocSetBlock chains on
// GetWriteBatch. Grounded on
// original_source/src/lvdbstorage/posinfoBlockMap.{hpp,cpp} and
// docListBlockMap.cpp, the two BlockMap instantiations covering a term's
// position postings and its plain docset.
type InvertedIndex struct {
	postings map[termKey]map[ids.Docno][]uint16 // nil positions == delete
}

// NewInvertedIndex returns an empty builder.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{postings: make(map[termKey]map[ids.Docno][]uint16)}
}

// DefineTerm stages docno's occurrence of (typeno, termno) at the given
// ascending positions -- spec.md §4.6's "create_document" step for one
// posting.
func (m *InvertedIndex) DefineTerm(typeno ids.Typeno, termno ids.Termno, docno ids.Docno, positions []uint16) {
	k := termKey{typeno, termno}
	if m.postings[k] == nil {
		m.postings[k] = make(map[ids.Docno][]uint16)
	}
	m.postings[k][docno] = positions
}

// UndefineTerm stages the removal of docno's postings for (typeno,
// termno) -- the per-term half of spec.md §4.6's "delete_document".
func (m *InvertedIndex) UndefineTerm(typeno ids.Typeno, termno ids.Termno, docno ids.Docno) {
	k := termKey{typeno, termno}
	if m.postings[k] == nil {
		m.postings[k] = make(map[ids.Docno][]uint16)
	}
	m.postings[k][docno] = nil
}

// Empty reports whether the builder has no staged changes.
func (m *InvertedIndex) Empty() bool { return len(m.postings) == 0 }

// GetWriteBatch rebuilds the PostingBlock and DocSetBlock chains of
// every touched (typeno, termno) term against kv's current contents,
// stages the resulting put/delete mutations into b, and records the
// resulting document-frequency deltas into dfb.
func (m *InvertedIndex) GetWriteBatch(kv kvstore.KeyValue, b kvstore.Batch, dfb *dfcache.Batch) error {
	for k, updates := range m.postings {
		typeno, termno := uint32(k.Typeno), uint32(k.Termno)

		postingPrefix := codec.PostingChainPrefix(typeno, termno)
		oldPostingKeys, err := collectKeys(kv, postingPrefix)
		if err != nil {
			return err
		}
		existingPosting, err := loadPostingChain(kv, postingPrefix)
		if err != nil {
			return err
		}
		dfBefore := sumNumDocs(existingPosting)
		newPosting := RebuildPostingChain(existingPosting, updates)
		dfAfter := sumNumDocs(newPosting)
		replacePostingChain(b, oldPostingKeys, newPosting, func(id uint32) []byte {
			return codec.PostingBlockKey(typeno, termno, id)
		})

		docsetPrefix := codec.DocsetChainPrefix(typeno, termno)
		oldDocsetKeys, err := collectKeys(kv, docsetPrefix)
		if err != nil {
			return err
		}
		existingDocset, err := loadDocsetChain(kv, docsetPrefix)
		if err != nil {
			return err
		}
		var add, remove []block.Range
		for docno, positions := range updates {
			if positions == nil {
				remove = append(remove, block.Range{From: uint32(docno), To: uint32(docno)})
			} else {
				add = append(add, block.Range{From: uint32(docno), To: uint32(docno)})
			}
		}
		newDocset := RebuildDocsetChain(existingDocset, add, remove)
		replaceDocsetChain(b, oldDocsetKeys, newDocset, func(id uint32) []byte {
			return codec.DocsetBlockKey(typeno, termno, id)
		})

		if delta := int64(dfAfter) - int64(dfBefore); delta != 0 {
			dfb.Add(k.Typeno, k.Termno, delta)
		}
	}
	return nil
}

func sumNumDocs(chain []*block.PostingBlock) int {
	n := 0
	for _, blk := range chain {
		n += blk.NumDocs()
	}
	return n
}
