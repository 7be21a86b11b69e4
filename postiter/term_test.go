package postiter

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
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

// writePostingChain builds a single-block posting chain for (typeno,
// termno) holding docs in ascending order with the given positions, and
// commits it directly under its storage key.
func writePostingChain(t *testing.T, kv kvstore.KeyValue, typeno ids.Typeno, termno ids.Termno, docs map[ids.Docno][]uint16) {
	t.Helper()
	ordered := make([]ids.Docno, 0, len(docs))
	for d := range docs {
		ordered = append(ordered, d)
	}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j] < ordered[i] {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	b := block.NewBuilder()
	for _, d := range ordered {
		if err := b.Append(d, docs[d]); err != nil {
			t.Fatal(err)
		}
	}
	blk := b.CreateBlock()
	batch := kv.BeginBatch()
	key := codec.PostingBlockKey(uint32(typeno), uint32(termno), uint32(blk.ID()))
	batch.Set(key, blk.Marshal())
	if err := kv.CommitBatch(batch); err != nil {
		t.Fatal(err)
	}
}

func TestTermSkipDocAndPositions(t *testing.T) {
	kv := newTestKV(t)
	writePostingChain(t, kv, 1, 1, map[ids.Docno][]uint16{
		5:  {1, 4, 9},
		10: {2},
		20: {1, 2, 3},
	})
	term, err := NewTerm(kv, 1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := term.SkipDoc(1); got != 5 {
		t.Fatalf("SkipDoc(1) = %d, want 5", got)
	}
	if got := term.SkipPos(1); got != 1 {
		t.Fatalf("SkipPos(1) = %d, want 1", got)
	}
	if got := term.SkipPos(2); got != 4 {
		t.Fatalf("SkipPos(2) = %d, want 4", got)
	}
	if got := term.SkipDoc(11); got != 20 {
		t.Fatalf("SkipDoc(11) = %d, want 20", got)
	}
	if got := term.SkipDoc(21); got != 0 {
		t.Fatalf("SkipDoc(21) = %d, want 0", got)
	}
}

func TestTermFeatureIDAndDocumentFrequency(t *testing.T) {
	kv := newTestKV(t)
	writePostingChain(t, kv, 2, 7, map[ids.Docno][]uint16{1: {1}})
	term, err := NewTerm(kv, 2, 7, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got := term.FeatureID(); got != "T(2,7)" {
		t.Fatalf("FeatureID() = %q", got)
	}
	if got := term.DocumentFrequency(); got != 42 {
		t.Fatalf("DocumentFrequency() = %d, want 42", got)
	}
}
