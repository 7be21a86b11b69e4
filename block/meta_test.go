package block

import (
	"math"
	"testing"

	"github.com/patrickfrey/strus-sub004/meta"
)

func newTestDescription(t *testing.T) *meta.Description {
	t.Helper()
	d := meta.NewDescription()
	for _, c := range []struct {
		typ  meta.Type
		name string
	}{
		{meta.UInt8, "flag"},
		{meta.Int32, "rank"},
		{meta.Float32, "score"},
	} {
		if err := d.Add(c.typ, c.name); err != nil {
			t.Fatalf("Add(%v, %q): %v", c.typ, c.name, err)
		}
	}
	return d
}

func TestMetaDescriptionBytesizeAligned(t *testing.T) {
	d := newTestDescription(t)
	// raw: 1 (UInt8) + 4 (Int32) + 4 (Float32) = 9, aligned up to 12.
	if got := d.Bytesize(); got != 12 {
		t.Fatalf("Bytesize() = %d, want 12", got)
	}
}

func TestMetaBlockSetGetValue(t *testing.T) {
	d := newTestDescription(t)
	flagH, _ := d.Handle("flag")
	rankH, _ := d.Handle("rank")
	scoreH, _ := d.Handle("score")

	b := NewMetaBuilder(MetaBlockID(100), d)
	if err := b.SetValue(MetaRecordIndex(100), flagH, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.SetValue(MetaRecordIndex(100), rankH, -42); err != nil {
		t.Fatal(err)
	}
	if err := b.SetValue(MetaRecordIndex(100), scoreH, 3.5); err != nil {
		t.Fatal(err)
	}
	block := b.CreateBlock()

	data := block.Marshal()
	back, err := UnmarshalMeta(block.ID(), d, data)
	if err != nil {
		t.Fatalf("UnmarshalMeta: %v", err)
	}
	rec := MetaRecordIndex(100)
	if v, err := back.GetValue(rec, flagH); err != nil || v != 1 {
		t.Fatalf("flag = %v, %v, want 1", v, err)
	}
	if v, err := back.GetValue(rec, rankH); err != nil || v != -42 {
		t.Fatalf("rank = %v, %v, want -42", v, err)
	}
	if v, err := back.GetValue(rec, scoreH); err != nil || v != 3.5 {
		t.Fatalf("score = %v, %v, want 3.5", v, err)
	}
}

func TestMetaBlockIDAndRecordIndex(t *testing.T) {
	if MetaBlockID(0) != 1 || MetaRecordIndex(0) != 0 {
		t.Fatalf("doc 0: block %d rec %d, want 1,0", MetaBlockID(0), MetaRecordIndex(0))
	}
	if MetaBlockID(63) != 1 || MetaRecordIndex(63) != 63 {
		t.Fatalf("doc 63: block %d rec %d, want 1,63", MetaBlockID(63), MetaRecordIndex(63))
	}
	if MetaBlockID(64) != 2 || MetaRecordIndex(64) != 0 {
		t.Fatalf("doc 64: block %d rec %d, want 2,0", MetaBlockID(64), MetaRecordIndex(64))
	}
}

func TestMetaRewritePreservesAndZeroes(t *testing.T) {
	old := newTestDescription(t)
	rankH, _ := old.Handle("rank")
	b := NewMetaBuilder(1, old)
	_ = b.SetValue(0, rankH, 7)
	block := b.CreateBlock()

	next := meta.NewDescription()
	_ = next.Add(meta.Int32, "rank")
	_ = next.Add(meta.UInt16, "newcol")

	rewritten := block.Rewrite(next)
	nextRankH, _ := next.Handle("rank")
	nextNewH, _ := next.Handle("newcol")

	if v, err := rewritten.GetValue(0, nextRankH); err != nil || v != 7 {
		t.Fatalf("rank after rewrite = %v, %v, want 7", v, err)
	}
	if v, err := rewritten.GetValue(0, nextNewH); err != nil || v != 0 {
		t.Fatalf("newcol after rewrite = %v, %v, want 0", v, err)
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 3.5, 0.5, 100.25, -100.25}
	for _, v := range values {
		h := encodeFloat16(v)
		got := decodeFloat16(h)
		if math.Abs(float64(got-v)) > 0.01 {
			t.Fatalf("float16 round trip: %v -> %v", v, got)
		}
	}
}

func TestMetaDuplicateColumnRejected(t *testing.T) {
	d := meta.NewDescription()
	if err := d.Add(meta.Int8, "x"); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(meta.Int8, "x"); err == nil {
		t.Fatal("expected error redefining column x")
	}
}
