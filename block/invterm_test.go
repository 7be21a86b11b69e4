package block

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/ids"
)

func TestInvTermRoundTrip(t *testing.T) {
	b := NewInvTermBuilder(ids.Docno(42))
	b.Append(1, 100, 3, 5)
	b.Append(1, 101, 1, 12)
	b.Append(2, 200, 7, 1)
	block := b.CreateBlock()

	data := block.Marshal()
	back, err := UnmarshalInvTerm(ids.Docno(42), data)
	if err != nil {
		t.Fatalf("UnmarshalInvTerm: %v", err)
	}
	want := []InvTermElement{
		{Typeno: 1, Termno: 100, FF: 3, FirstPos: 5},
		{Typeno: 1, Termno: 101, FF: 1, FirstPos: 12},
		{Typeno: 2, Termno: 200, FF: 7, FirstPos: 1},
	}
	got := back.Elements()
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if back.Doc() != ids.Docno(42) {
		t.Fatalf("Doc() = %d, want 42", back.Doc())
	}
}

func TestInvTermEmpty(t *testing.T) {
	b := NewInvTermBuilder(ids.Docno(1))
	if !b.Empty() {
		t.Fatal("new builder should be empty")
	}
	block := b.CreateBlock()
	if !block.Empty() {
		t.Fatal("block built from empty builder should be empty")
	}
	if len(block.Marshal()) != 0 {
		t.Fatal("empty block should marshal to zero bytes")
	}
}
