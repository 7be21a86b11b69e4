package readhandle

import (
	"sync"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/meta"
)

// MetaCache is the storage client's shared MetaBlock cache, per spec.md
// §4.11 ("metadata-block cache") and §5's "read-shared, write-exclusive"
// caching policy, the same single-writer/multiple-reader shape
// dfcache.Cache uses for document frequencies.
type MetaCache struct {
	mu     sync.RWMutex
	blocks map[uint32]*block.MetaBlock
}

// NewMetaCache returns an empty metadata-block cache.
func NewMetaCache() *MetaCache {
	return &MetaCache{blocks: make(map[uint32]*block.MetaBlock)}
}

// Get returns blockID's MetaBlock, loading and caching it from kv under
// desc if not already cached.
func (c *MetaCache) Get(kv kvstore.KeyValue, desc *meta.Description, blockID uint32) (*block.MetaBlock, error) {
	c.mu.RLock()
	blk, ok := c.blocks[blockID]
	c.mu.RUnlock()
	if ok {
		return blk, nil
	}
	data, err := kv.Get(codec.MetaBlockKey(blockID))
	if err != nil {
		return nil, err
	}
	blk, err = block.UnmarshalMeta(blockID, desc, data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.blocks[blockID] = blk
	c.mu.Unlock()
	return blk, nil
}

// Invalidate drops blockID's cached entry so the next reader reloads it.
// The storage client's commit path uses InvalidateAll instead.
func (c *MetaCache) Invalidate(blockID uint32) {
	c.mu.Lock()
	delete(c.blocks, blockID)
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry, used by the storage client
// after a transaction commits: a commit's metadata writes can touch any
// number of blocks, and the map builder doesn't report which one(s), so
// the simplest correct policy is to drop the whole cache rather than
// track per-block dirtiness.
func (c *MetaCache) InvalidateAll() {
	c.mu.Lock()
	c.blocks = make(map[uint32]*block.MetaBlock)
	c.mu.Unlock()
}
