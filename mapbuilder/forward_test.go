package mapbuilder

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
)

func TestForwardIndexWritesAndClears(t *testing.T) {
	kv := newTestKV(t)
	fw := NewForwardIndex()
	fw.DefineTerm(1, 100, 1, "hello")
	fw.DefineTerm(1, 100, 2, "world")

	b := kv.BeginBatch()
	if err := fw.GetWriteBatch(kv, b); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}

	chain, err := loadForwardChain(kv, codec.ForwardBlockPrefix(1, 100))
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, blk := range chain {
		total += len(blk.Entries())
	}
	if total != 2 {
		t.Fatalf("forward chain has %d entries, want 2", total)
	}

	fw2 := NewForwardIndex()
	fw2.Clear(1, ids.Docno(100), []uint16{1})
	b2 := kv.BeginBatch()
	if err := fw2.GetWriteBatch(kv, b2); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b2); err != nil {
		t.Fatal(err)
	}
	chain2, err := loadForwardChain(kv, codec.ForwardBlockPrefix(1, 100))
	if err != nil {
		t.Fatal(err)
	}
	total2 := 0
	for _, blk := range chain2 {
		total2 += len(blk.Entries())
	}
	if total2 != 1 {
		t.Fatalf("forward chain after clear has %d entries, want 1", total2)
	}
}

func TestForwardIndexClearAllDiscardsWholeChain(t *testing.T) {
	kv := newTestKV(t)
	fw := NewForwardIndex()
	fw.DefineTerm(1, 200, 1, "hello")
	fw.DefineTerm(1, 200, 2, "world")
	b := kv.BeginBatch()
	if err := fw.GetWriteBatch(kv, b); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}

	fw2 := NewForwardIndex()
	fw2.ClearAll(1, ids.Docno(200))
	b2 := kv.BeginBatch()
	if err := fw2.GetWriteBatch(kv, b2); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b2); err != nil {
		t.Fatal(err)
	}

	chain, err := loadForwardChain(kv, codec.ForwardBlockPrefix(1, 200))
	if err != nil {
		t.Fatal(err)
	}
	if len(chain) != 0 {
		t.Fatalf("forward chain after ClearAll has %d blocks, want 0", len(chain))
	}
}

func TestForwardIndexClearAllThenDefineReplacesChain(t *testing.T) {
	kv := newTestKV(t)
	fw := NewForwardIndex()
	fw.DefineTerm(1, 300, 1, "hello")
	fw.DefineTerm(1, 300, 2, "world")
	b := kv.BeginBatch()
	if err := fw.GetWriteBatch(kv, b); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}

	fw2 := NewForwardIndex()
	fw2.ClearAll(1, ids.Docno(300))
	fw2.DefineTerm(1, 300, 5, "new")
	b2 := kv.BeginBatch()
	if err := fw2.GetWriteBatch(kv, b2); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b2); err != nil {
		t.Fatal(err)
	}

	chain, err := loadForwardChain(kv, codec.ForwardBlockPrefix(1, 300))
	if err != nil {
		t.Fatal(err)
	}
	var entries int
	for _, blk := range chain {
		for _, e := range blk.Entries() {
			if e.Position != 5 || e.Term != "new" {
				t.Fatalf("unexpected surviving entry %+v after ClearAll+DefineTerm", e)
			}
			entries++
		}
	}
	if entries != 1 {
		t.Fatalf("forward chain after ClearAll+DefineTerm has %d entries, want 1", entries)
	}
}
