package mapbuilder

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
)

// UserAcl buffers pending grant/revoke pairs across both access-control
// directions (a user's set of readable documents, and a document's set
// of authorized readers) and rebuilds each touched DocSetBlock chain on
// GetWriteBatch. Grounded on
// original_source/src/lvdbstorage/userAclBlockMap.{hpp,cpp}.
type UserAcl struct {
	userAdd, userRemove map[ids.Userno][]ids.Docno
	docAdd, docRemove   map[ids.Docno][]ids.Userno
}

// NewUserAcl returns an empty builder.
func NewUserAcl() *UserAcl {
	return &UserAcl{
		userAdd:    make(map[ids.Userno][]ids.Docno),
		userRemove: make(map[ids.Userno][]ids.Docno),
		docAdd:     make(map[ids.Docno][]ids.Userno),
		docRemove:  make(map[ids.Docno][]ids.Userno),
	}
}

// Grant stages that userno gains read access to docno, in both
// directions -- spec.md §4.6's ACL update step.
func (m *UserAcl) Grant(userno ids.Userno, docno ids.Docno) {
	m.userAdd[userno] = append(m.userAdd[userno], docno)
	m.docAdd[docno] = append(m.docAdd[docno], userno)
}

// Revoke stages that userno loses read access to docno, in both
// directions.
func (m *UserAcl) Revoke(userno ids.Userno, docno ids.Docno) {
	m.userRemove[userno] = append(m.userRemove[userno], docno)
	m.docRemove[docno] = append(m.docRemove[docno], userno)
}

// Empty reports whether the builder has no staged changes.
func (m *UserAcl) Empty() bool {
	return len(m.userAdd) == 0 && len(m.userRemove) == 0 && len(m.docAdd) == 0 && len(m.docRemove) == 0
}

// GetWriteBatch rebuilds every touched user->docs and doc->users
// DocSetBlock chain against kv's current contents and stages the
// resulting put/delete mutations into b.
func (m *UserAcl) GetWriteBatch(kv kvstore.KeyValue, b kvstore.Batch) error {
	users := make(map[ids.Userno]bool)
	for u := range m.userAdd {
		users[u] = true
	}
	for u := range m.userRemove {
		users[u] = true
	}
	for userno := range users {
		prefix := codec.UserAclChainPrefix(uint32(userno))
		oldKeys, err := collectKeys(kv, prefix)
		if err != nil {
			return err
		}
		existing, err := loadDocsetChain(kv, prefix)
		if err != nil {
			return err
		}
		add := toSingletonRanges32(m.userAdd[userno])
		remove := toSingletonRanges32(m.userRemove[userno])
		newChain := RebuildDocsetChain(existing, add, remove)
		replaceDocsetChain(b, oldKeys, newChain, func(id uint32) []byte {
			return codec.UserAclBlockKey(uint32(userno), id)
		})
	}

	docs := make(map[ids.Docno]bool)
	for d := range m.docAdd {
		docs[d] = true
	}
	for d := range m.docRemove {
		docs[d] = true
	}
	for docno := range docs {
		prefix := codec.AclChainPrefix(uint32(docno))
		oldKeys, err := collectKeys(kv, prefix)
		if err != nil {
			return err
		}
		existing, err := loadDocsetChain(kv, prefix)
		if err != nil {
			return err
		}
		add := toSingletonRanges32(m.docAdd[docno])
		remove := toSingletonRanges32(m.docRemove[docno])
		newChain := RebuildDocsetChain(existing, add, remove)
		replaceDocsetChain(b, oldKeys, newChain, func(id uint32) []byte {
			return codec.AclBlockKey(uint32(docno), id)
		})
	}
	return nil
}

// toSingletonRanges32 converts a slice of 32-bit-backed identifiers into
// one single-element Range each, for feeding RebuildDocsetChain.
func toSingletonRanges32[T ~uint32](elems []T) []block.Range {
	out := make([]block.Range, 0, len(elems))
	for _, e := range elems {
		out = append(out, block.Range{From: uint32(e), To: uint32(e)})
	}
	return out
}
