package mapbuilder

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/dfcache"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	_ "github.com/patrickfrey/strus-sub004/kvstore/mem"
)

func newTestKV(t *testing.T) kvstore.KeyValue {
	t.Helper()
	kv, err := kvstore.Open("path=test;engine=mem")
	if err != nil {
		t.Fatal(err)
	}
	return kv
}

func TestInvertedIndexWritesPostingsAndDocsetAndDF(t *testing.T) {
	kv := newTestKV(t)
	idx := NewInvertedIndex()
	idx.DefineTerm(1, 1, 10, []uint16{1, 2})
	idx.DefineTerm(1, 1, 20, []uint16{3})

	b := kv.BeginBatch()
	dfb := dfcache.NewBatch()
	if err := idx.GetWriteBatch(kv, b, dfb); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}
	cache := dfcache.New()
	cache.Apply(dfb)
	if got := cache.Get(1, 1); got != 2 {
		t.Fatalf("df after first commit = %d, want 2", got)
	}

	chain, err := loadPostingChain(kv, codec.PostingChainPrefix(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if n := sumNumDocs(chain); n != 2 {
		t.Fatalf("posting chain has %d docs, want 2", n)
	}
	docset, err := loadDocsetChain(kv, codec.DocsetChainPrefix(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(docset) != 1 || docset[0].Cardinality() != 2 {
		t.Fatalf("docset chain = %+v, want 2 elements", docset)
	}

	// Second transaction: delete doc 10.
	idx2 := NewInvertedIndex()
	idx2.UndefineTerm(1, 1, ids.Docno(10))
	b2 := kv.BeginBatch()
	dfb2 := dfcache.NewBatch()
	if err := idx2.GetWriteBatch(kv, b2, dfb2); err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b2); err != nil {
		t.Fatal(err)
	}
	cache.Apply(dfb2)
	if got := cache.Get(1, 1); got != 1 {
		t.Fatalf("df after delete = %d, want 1", got)
	}
}
