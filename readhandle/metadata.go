package readhandle

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/meta"
	"github.com/patrickfrey/strus-sub004/restriction"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// MetadataReader reads one document's metadata record at a time.
// Grounded on metaDataReader.hpp: the current MetaBlock is reloaded only
// when SkipDoc crosses into a different block (64 documents share one
// block, per block.MetaRecordsPerBlock), not on every call.
type MetadataReader struct {
	kv    kvstore.KeyValue
	desc  *meta.Description
	cache *MetaCache // nil: always read through kv, no shared cache

	docno   ids.Docno
	blockID uint32
	block   *block.MetaBlock
}

// NewMetadataReader returns a metadata reader over desc, not yet
// positioned at any document, reading blocks directly from kv on every
// block-boundary crossing.
func NewMetadataReader(kv kvstore.KeyValue, desc *meta.Description) *MetadataReader {
	return &MetadataReader{kv: kv, desc: desc}
}

// NewCachedMetadataReader is identical to NewMetadataReader, but shares
// blocks through cache instead of loading its own private copy -- the
// shape the storage client uses for every reader it hands out, so
// concurrent readers of the same block amortize the load.
func NewCachedMetadataReader(kv kvstore.KeyValue, desc *meta.Description, cache *MetaCache) *MetadataReader {
	return &MetadataReader{kv: kv, desc: desc, cache: cache}
}

// ElementHandle resolves a column name to the handle GetValue expects.
func (r *MetadataReader) ElementHandle(name string) (int, error) {
	return r.desc.Handle(name)
}

// HasElement reports whether name is a declared column.
func (r *MetadataReader) HasElement(name string) bool { return r.desc.HasElement(name) }

// SkipDoc repositions the reader at docno, loading its MetaBlock from
// the store only if docno falls in a different block than the one
// currently cached.
func (r *MetadataReader) SkipDoc(docno ids.Docno) error {
	id := block.MetaBlockID(docno)
	if r.block == nil || r.blockID != id {
		blk, err := r.loadBlock(id)
		if err != nil {
			return err
		}
		r.block = blk
		r.blockID = id
	}
	r.docno = docno
	return nil
}

func (r *MetadataReader) loadBlock(id uint32) (*block.MetaBlock, error) {
	if r.cache != nil {
		blk, err := r.cache.Get(r.kv, r.desc, id)
		if err == kvstore.ErrNotFound {
			return nil, storeerr.Newf(storeerr.UnknownIdentifier, "readhandle: no metadata block %d", id)
		}
		return blk, err
	}
	data, err := r.kv.Get(codec.MetaBlockKey(id))
	if err != nil {
		if err == kvstore.ErrNotFound {
			return nil, storeerr.Newf(storeerr.UnknownIdentifier, "readhandle: no metadata block %d", id)
		}
		return nil, err
	}
	return block.UnmarshalMeta(id, r.desc, data)
}

// GetValue reads handle's value for the currently positioned document.
// This is the one-argument shape restriction.Record expects, a record
// index already resolved by SkipDoc rather than passed in on every
// call, mirroring MetaDataReader::getValue's "skipDoc then read" split.
func (r *MetadataReader) GetValue(handle int) (float64, error) {
	return r.block.GetValue(block.MetaRecordIndex(r.docno), handle)
}

var _ restriction.Record = (*MetadataReader)(nil)
