package mapbuilder

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
)

// forwardKey identifies one (typeno, docno) group of a ForwardIndex --
// one document's sequence of terms for one feature type (e.g. "orig",
// "stem").
type forwardKey struct {
	Typeno ids.Typeno
	Docno  ids.Docno
}

// ForwardIndex buffers pending (position, term) additions and removals
// across every touched (typeno, docno) group, and rebuilds each group's
// ForwardBlock chain on GetWriteBatch. Grounded on
// original_source/src/lvdbstorage/forwardIndexBlockMap.{hpp,cpp}.
type ForwardIndex struct {
	add      map[forwardKey]map[uint16]string
	remove   map[forwardKey]map[uint16]bool
	clearAll map[forwardKey]bool
}

// NewForwardIndex returns an empty builder.
func NewForwardIndex() *ForwardIndex {
	return &ForwardIndex{
		add:      make(map[forwardKey]map[uint16]string),
		remove:   make(map[forwardKey]map[uint16]bool),
		clearAll: make(map[forwardKey]bool),
	}
}

// DefineTerm stages one (position, term) entry of typeno's forward index
// for docno.
func (m *ForwardIndex) DefineTerm(typeno ids.Typeno, docno ids.Docno, pos uint16, term string) {
	k := forwardKey{typeno, docno}
	if m.add[k] == nil {
		m.add[k] = make(map[uint16]string)
	}
	m.add[k][pos] = term
}

// Clear stages the removal of the listed positions of typeno's forward
// index for docno.
func (m *ForwardIndex) Clear(typeno ids.Typeno, docno ids.Docno, positions []uint16) {
	k := forwardKey{typeno, docno}
	if m.remove[k] == nil {
		m.remove[k] = make(map[uint16]bool)
	}
	for _, p := range positions {
		m.remove[k][p] = true
	}
}

// ClearAll stages the removal of every existing forward-index entry of
// typeno for docno, regardless of position -- the
// delete_document/update_document (replace) path of spec.md §4.6, used
// when a document's whole forward-index chain for a type is being
// discarded rather than individually patched.
func (m *ForwardIndex) ClearAll(typeno ids.Typeno, docno ids.Docno) {
	m.clearAll[forwardKey{typeno, docno}] = true
}

// Empty reports whether the builder has no staged changes.
func (m *ForwardIndex) Empty() bool {
	return len(m.add) == 0 && len(m.remove) == 0 && len(m.clearAll) == 0
}

// GetWriteBatch rebuilds the ForwardBlock chain of every touched
// (typeno, docno) group against kv's current contents and stages the
// resulting put/delete mutations into b.
func (m *ForwardIndex) GetWriteBatch(kv kvstore.KeyValue, b kvstore.Batch) error {
	groups := make(map[forwardKey]bool)
	for k := range m.add {
		groups[k] = true
	}
	for k := range m.remove {
		groups[k] = true
	}
	for k := range m.clearAll {
		groups[k] = true
	}
	for k := range groups {
		typeno, docno := uint32(k.Typeno), uint32(k.Docno)
		prefix := codec.ForwardBlockPrefix(typeno, docno)
		oldKeys, err := collectKeys(kv, prefix)
		if err != nil {
			return err
		}
		var existing []*block.ForwardBlock
		if !m.clearAll[k] {
			existing, err = loadForwardChain(kv, prefix)
			if err != nil {
				return err
			}
		}
		newChain := RebuildForwardChain(existing, m.add[k], m.remove[k])
		replaceForwardChain(b, oldKeys, newChain, func(id uint16) []byte {
			return codec.ForwardBlockKey(typeno, docno, id)
		})
	}
	return nil
}
