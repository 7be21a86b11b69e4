package readhandle

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/meta"
)

func newTestDescription(t *testing.T) *meta.Description {
	t.Helper()
	d := meta.NewDescription()
	if err := d.Add(meta.Int32, "age"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMetadataReaderReloadsOnlyAcrossBlockBoundary(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	ageHandle, err := desc.Handle("age")
	if err != nil {
		t.Fatal(err)
	}

	// docs 1 and 2 share block id 1 (doc>>6 + 1); doc 65 starts block id 2.
	b1 := block.NewMetaBuilder(block.MetaBlockID(1), desc)
	if err := b1.SetValue(block.MetaRecordIndex(1), ageHandle, 30); err != nil {
		t.Fatal(err)
	}
	if err := b1.SetValue(block.MetaRecordIndex(2), ageHandle, 40); err != nil {
		t.Fatal(err)
	}
	blk1 := b1.CreateBlock()

	b2 := block.NewMetaBuilder(block.MetaBlockID(65), desc)
	if err := b2.SetValue(block.MetaRecordIndex(65), ageHandle, 99); err != nil {
		t.Fatal(err)
	}
	blk2 := b2.CreateBlock()

	batch := kv.BeginBatch()
	batch.Set(codec.MetaBlockKey(blk1.ID()), blk1.Marshal())
	batch.Set(codec.MetaBlockKey(blk2.ID()), blk2.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}

	r := NewMetadataReader(kv, desc)
	if err := r.SkipDoc(1); err != nil {
		t.Fatal(err)
	}
	v, err := r.GetValue(ageHandle)
	if err != nil {
		t.Fatal(err)
	}
	if v != 30 {
		t.Fatalf("doc 1 age = %v, want 30", v)
	}

	if err := r.SkipDoc(2); err != nil {
		t.Fatal(err)
	}
	v2, err := r.GetValue(ageHandle)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 40 {
		t.Fatalf("doc 2 age = %v, want 40", v2)
	}

	if err := r.SkipDoc(65); err != nil {
		t.Fatal(err)
	}
	v3, err := r.GetValue(ageHandle)
	if err != nil {
		t.Fatal(err)
	}
	if v3 != 99 {
		t.Fatalf("doc 65 age = %v, want 99", v3)
	}
}

func TestMetadataReaderUnknownDocBlockErrors(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	r := NewMetadataReader(kv, desc)
	if err := r.SkipDoc(1000); err == nil {
		t.Fatal("expected an error for a docno with no persisted metadata block")
	}
}
