package mapbuilder

import (
	"errors"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/meta"
)

// metaUpdate is one column write staged for one document.
type metaUpdate struct {
	handle int
	value  float64
}

// Metadata buffers pending per-document column writes and applies them
// to the fixed-size MetaBlock addressed by each document's block id on
// GetWriteBatch. Unlike InvertedIndex/ForwardIndex, a document's block
// id is a deterministic function of its docno (MetaBlockID), so no
// chain merge/split is needed here -- each touched block is read (or
// created, all-zero, if new), patched in place, and rewritten. Grounded
// on original_source/src/lvdbstorage/metaDataBlockMap.{hpp,cpp}.
type Metadata struct {
	desc    *meta.Description
	updates map[ids.Docno][]metaUpdate
}

// NewMetadata returns an empty builder against the given column
// description.
func NewMetadata(desc *meta.Description) *Metadata {
	return &Metadata{desc: desc, updates: make(map[ids.Docno][]metaUpdate)}
}

// SetValue stages docno's write of column name's value -- spec.md
// §4.6's "create_document"/"update_document" metadata step.
func (m *Metadata) SetValue(docno ids.Docno, name string, value float64) error {
	handle, err := m.desc.Handle(name)
	if err != nil {
		return err
	}
	m.updates[docno] = append(m.updates[docno], metaUpdate{handle: handle, value: value})
	return nil
}

// Empty reports whether the builder has no staged changes.
func (m *Metadata) Empty() bool { return len(m.updates) == 0 }

// GetWriteBatch applies every staged column write to its document's
// MetaBlock, loading the existing block from kv (or starting an
// all-zero one) and staging the rewritten block's bytes into b.
func (m *Metadata) GetWriteBatch(kv kvstore.KeyValue, b kvstore.Batch) error {
	byBlock := make(map[uint32][]ids.Docno)
	for docno := range m.updates {
		id := block.MetaBlockID(docno)
		byBlock[id] = append(byBlock[id], docno)
	}
	for id, docnos := range byBlock {
		key := codec.MetaBlockKey(id)
		blk, err := loadOrCreateMetaBlock(kv, key, id, m.desc)
		if err != nil {
			return err
		}
		builder := blk.ToBuilder()
		for _, docno := range docnos {
			recIdx := block.MetaRecordIndex(docno)
			for _, u := range m.updates[docno] {
				if err := builder.SetValue(recIdx, u.handle, u.value); err != nil {
					return err
				}
			}
		}
		b.Set(key, builder.CreateBlock().Marshal())
	}
	return nil
}

// loadOrCreateMetaBlock reads the existing MetaBlock at key, or returns
// a fresh all-zero one under desc if absent.
func loadOrCreateMetaBlock(kv kvstore.KeyValue, key []byte, id uint32, desc *meta.Description) (*block.MetaBlock, error) {
	v, err := kv.Get(key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return block.NewMetaBuilder(id, desc).CreateBlock(), nil
		}
		return nil, err
	}
	return block.UnmarshalMeta(id, desc, v)
}
