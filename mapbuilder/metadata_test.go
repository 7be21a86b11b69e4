package mapbuilder

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/meta"
)

func newTestDescription(t *testing.T) *meta.Description {
	t.Helper()
	d := meta.NewDescription()
	if err := d.Add(meta.UInt8, "flag"); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(meta.Float32, "score"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMetadataSetValuePersists(t *testing.T) {
	kv := newTestKV(t)
	desc := newTestDescription(t)
	md := NewMetadata(desc)
	if err := md.SetValue(ids.Docno(5), "flag", 1); err != nil {
		t.Fatal(err)
	}
	if err := md.SetValue(ids.Docno(5), "score", 3.5); err != nil {
		t.Fatal(err)
	}
	if err := md.SetValue(ids.Docno(70), "flag", 7); err != nil { // different block (70>>6 != 5>>6)
		t.Fatal(err)
	}

	b := kv.BeginBatch()
	if err := md.GetWriteBatch(kv, b); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}

	v, err := kv.Get(codec.MetaBlockKey(block.MetaBlockID(5)))
	if err != nil {
		t.Fatal(err)
	}
	blk, err := block.UnmarshalMeta(block.MetaBlockID(5), desc, v)
	if err != nil {
		t.Fatal(err)
	}
	flagHandle, _ := desc.Handle("flag")
	scoreHandle, _ := desc.Handle("score")
	got, err := blk.GetValue(block.MetaRecordIndex(5), flagHandle)
	if err != nil || got != 1 {
		t.Fatalf("flag = %v, %v, want 1", got, err)
	}
	got, err = blk.GetValue(block.MetaRecordIndex(5), scoreHandle)
	if err != nil || got != 3.5 {
		t.Fatalf("score = %v, %v, want 3.5", got, err)
	}

	v2, err := kv.Get(codec.MetaBlockKey(block.MetaBlockID(70)))
	if err != nil {
		t.Fatal(err)
	}
	blk2, err := block.UnmarshalMeta(block.MetaBlockID(70), desc, v2)
	if err != nil {
		t.Fatal(err)
	}
	got2, err := blk2.GetValue(block.MetaRecordIndex(70), flagHandle)
	if err != nil || got2 != 7 {
		t.Fatalf("flag(70) = %v, %v, want 7", got2, err)
	}
}
