package readhandle

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
)

func TestMetaCacheGetCachesAcrossCalls(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	ageHandle, err := desc.Handle("age")
	if err != nil {
		t.Fatal(err)
	}

	b := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b.SetValue(block.MetaRecordIndex(1), ageHandle, 30); err != nil {
		t.Fatal(err)
	}
	blk := b.CreateBlock()

	batch := kv.BeginBatch()
	batch.Set(codec.MetaBlockKey(blk.ID()), blk.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}

	cache := NewMetaCache()
	got1, err := cache.Get(kv, desc, blk.ID())
	if err != nil {
		t.Fatal(err)
	}

	// Overwrite the persisted block with different bytes; a cache hit
	// must keep returning the originally loaded block rather than
	// reread the store.
	b2 := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b2.SetValue(block.MetaRecordIndex(1), ageHandle, 77); err != nil {
		t.Fatal(err)
	}
	blk2 := b2.CreateBlock()
	batch2 := kv.BeginBatch()
	batch2.Set(codec.MetaBlockKey(blk2.ID()), blk2.Marshal())
	if err := kv.CommitBatch(batch2); err != nil {
		t.Fatal(err)
	}

	got2, err := cache.Get(kv, desc, blk.ID())
	if err != nil {
		t.Fatal(err)
	}
	if got2 != got1 {
		t.Fatal("expected the same cached *MetaBlock pointer on a repeat Get")
	}
	v, err := got2.GetValue(block.MetaRecordIndex(1), ageHandle)
	if err != nil {
		t.Fatal(err)
	}
	if v != 30 {
		t.Fatalf("cached value = %v, want 30 (the pre-overwrite value)", v)
	}
}

func TestMetaCacheInvalidateForcesReload(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	ageHandle, err := desc.Handle("age")
	if err != nil {
		t.Fatal(err)
	}

	b := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b.SetValue(block.MetaRecordIndex(1), ageHandle, 30); err != nil {
		t.Fatal(err)
	}
	blk := b.CreateBlock()
	batch := kv.BeginBatch()
	batch.Set(codec.MetaBlockKey(blk.ID()), blk.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}

	cache := NewMetaCache()
	if _, err := cache.Get(kv, desc, blk.ID()); err != nil {
		t.Fatal(err)
	}

	b2 := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b2.SetValue(block.MetaRecordIndex(1), ageHandle, 77); err != nil {
		t.Fatal(err)
	}
	blk2 := b2.CreateBlock()
	batch2 := kv.BeginBatch()
	batch2.Set(codec.MetaBlockKey(blk2.ID()), blk2.Marshal())
	if err := kv.CommitBatch(batch2); err != nil {
		t.Fatal(err)
	}

	cache.Invalidate(blk.ID())
	got, err := cache.Get(kv, desc, blk.ID())
	if err != nil {
		t.Fatal(err)
	}
	v, err := got.GetValue(block.MetaRecordIndex(1), ageHandle)
	if err != nil {
		t.Fatal(err)
	}
	if v != 77 {
		t.Fatalf("post-invalidate value = %v, want 77 (the reloaded value)", v)
	}
}

func TestMetadataReaderUsesSharedCache(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	ageHandle, err := desc.Handle("age")
	if err != nil {
		t.Fatal(err)
	}

	b := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b.SetValue(block.MetaRecordIndex(1), ageHandle, 30); err != nil {
		t.Fatal(err)
	}
	blk := b.CreateBlock()
	batch := kv.BeginBatch()
	batch.Set(codec.MetaBlockKey(blk.ID()), blk.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}

	cache := NewMetaCache()
	r1 := NewCachedMetadataReader(kv, desc, cache)
	if err := r1.SkipDoc(1); err != nil {
		t.Fatal(err)
	}

	r2 := NewCachedMetadataReader(kv, desc, cache)
	if err := r2.SkipDoc(1); err != nil {
		t.Fatal(err)
	}
	if r1.block != r2.block {
		t.Fatal("expected both readers to share the same cached *MetaBlock")
	}
}
