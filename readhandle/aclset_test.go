package readhandle

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/kvstore"
)

func writeUserAclBlock(t *testing.T, kv kvstore.KeyValue, userno uint32, elems ...uint32) {
	t.Helper()
	b := block.NewSetBuilder()
	for _, e := range elems {
		if err := b.DefineElement(e); err != nil {
			t.Fatal(err)
		}
	}
	blk := b.CreateBlock()
	batch := kv.BeginBatch()
	batch.Set(codec.UserAclBlockKey(userno, blk.ID()), blk.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}
}

func TestInvertedAclIteratorSkipsOverGaps(t *testing.T) {
	kv := newTestKV(t)
	writeUserAclBlock(t, kv, 3, 1, 2, 10)

	it, err := NewInvertedAclIterator(kv, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := it.Skip(5); got != 10 {
		t.Fatalf("Skip(5) = %d, want 10", got)
	}
	if got := it.Elemno(); got != 10 {
		t.Fatalf("Elemno() = %d, want 10", got)
	}
	if got := it.Skip(11); got != 0 {
		t.Fatalf("Skip(11) = %d, want 0 (past the end of the set)", got)
	}
}

func TestInvertedAclIteratorEmptyUser(t *testing.T) {
	kv := newTestKV(t)
	it, err := NewInvertedAclIterator(kv, 99)
	if err != nil {
		t.Fatal(err)
	}
	if got := it.Skip(1); got != 0 {
		t.Fatalf("Skip(1) = %d, want 0 for a user with no ACL entries", got)
	}
}
