package txn

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/dfcache"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	_ "github.com/patrickfrey/strus-sub004/kvstore/mem"
	"github.com/patrickfrey/strus-sub004/meta"
	"github.com/patrickfrey/strus-sub004/symtab"
)

func newTestKV(t *testing.T) kvstore.KeyValue {
	t.Helper()
	kv, err := kvstore.Open("path=test;engine=mem")
	if err != nil {
		t.Fatal(err)
	}
	return kv
}

func newTestEnv(t *testing.T) (kvstore.KeyValue, *meta.Description, Symtabs, *dfcache.Cache) {
	t.Helper()
	kv := newTestKV(t)
	desc := meta.NewDescription()
	if err := desc.Add(meta.Float32, "score"); err != nil {
		t.Fatal(err)
	}
	typeTbl, err := symtab.Open(kv, codec.PrefixTermType, codec.VarNextTypeno)
	if err != nil {
		t.Fatal(err)
	}
	docTbl, err := symtab.Open(kv, codec.PrefixDocID, codec.VarNextDocno)
	if err != nil {
		t.Fatal(err)
	}
	userTbl, err := symtab.Open(kv, codec.PrefixUserName, codec.VarNextUserno)
	if err != nil {
		t.Fatal(err)
	}
	attrTbl, err := symtab.Open(kv, codec.PrefixAttributeName, codec.VarNextAttrno)
	if err != nil {
		t.Fatal(err)
	}
	termTbl, err := symtab.Open(kv, codec.PrefixTermValue, codec.VarNextTermno)
	if err != nil {
		t.Fatal(err)
	}
	sym := Symtabs{Type: typeTbl, Doc: docTbl, User: userTbl, Attribute: attrTbl, Term: termTbl}
	return kv, desc, sym, dfcache.New()
}

func TestCreateDocumentAndCommit(t *testing.T) {
	kv, desc, sym, df := newTestEnv(t)
	tx := New(kv, desc, sym, df)

	doc, err := tx.CreateDocument("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.AddTerm("word", "hello", 1); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddTerm("word", "world", 2); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddForwardTerm("orig", 1, "Hello"); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetMetadata("score", 3.5); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetAttribute("title", "Hello World"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Grant("alice"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Done(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	v, err := kv.Get(codec.DocAttributeKey(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "Hello World" {
		t.Fatalf("attribute = %q, want %q", v, "Hello World")
	}

	nofDocs, err := readCounter(kv, codec.VarNofDocs)
	if err != nil {
		t.Fatal(err)
	}
	if nofDocs != 1 {
		t.Fatalf("NofDocs = %d, want 1", nofDocs)
	}
}

func TestUpdateDocumentCannotTouchIndex(t *testing.T) {
	kv, desc, sym, df := newTestEnv(t)
	tx := New(kv, desc, sym, df)
	doc, err := tx.CreateDocument("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.SetAttribute("title", "first"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Done(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	tx2 := New(kv, desc, sym, df)
	upd, err := tx2.UpdateDocument("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if err := upd.SetAttribute("title", "second"); err != nil {
		t.Fatal(err)
	}
	if err := upd.Grant("bob"); err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatal(err)
	}

	v, err := kv.Get(codec.DocAttributeKey(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "second" {
		t.Fatalf("attribute after update = %q, want %q", v, "second")
	}
}

func TestDeleteDocumentRemovesContent(t *testing.T) {
	kv, desc, sym, df := newTestEnv(t)
	tx := New(kv, desc, sym, df)
	doc, err := tx.CreateDocument("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.AddTerm("word", "hello", 1); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetAttribute("title", "first"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Done(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	tx2 := New(kv, desc, sym, df)
	if err := tx2.DeleteDocument("doc1"); err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := kv.Get(codec.DocAttributeKey(1, 1)); err != kvstore.ErrNotFound {
		t.Fatalf("attribute after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := kv.Get(codec.InvTermBlockKey(1)); err != kvstore.ErrNotFound {
		t.Fatalf("InvTermBlock after delete: err = %v, want ErrNotFound", err)
	}

	nofDocs, err := readCounter(kv, codec.VarNofDocs)
	if err != nil {
		t.Fatal(err)
	}
	if nofDocs != 0 {
		t.Fatalf("NofDocs after delete = %d, want 0", nofDocs)
	}
}

func TestOverwriteClearsForwardIndexForConfiguredTypes(t *testing.T) {
	kv, desc, sym, df := newTestEnv(t)
	b := kv.BeginBatch()
	origType, err := sym.Type.AllocateImmediate(b, "orig")
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.CommitBatch(b); err != nil {
		t.Fatal(err)
	}
	sym.ForwardTypes = []ids.Typeno{ids.Typeno(origType)}

	tx := New(kv, desc, sym, df)
	doc, err := tx.CreateDocument("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.AddForwardTerm("orig", 1, "Hello"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Done(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	prefix := codec.ForwardBlockPrefix(origType, 1)
	it := kvstore.RangeScan(kv, prefix)
	count := 0
	for it.Next() {
		count++
	}
	it.Close()
	if count == 0 {
		t.Fatal("expected at least one forward block after first write")
	}

	tx2 := New(kv, desc, sym, df)
	doc2, err := tx2.CreateDocument("doc1") // overwrite
	if err != nil {
		t.Fatal(err)
	}
	if err := doc2.Done(); err != nil {
		t.Fatal(err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatal(err)
	}

	it2 := kvstore.RangeScan(kv, prefix)
	count2 := 0
	for it2.Next() {
		count2++
	}
	it2.Close()
	if count2 != 0 {
		t.Fatalf("forward index entries after overwrite-without-rewrite = %d, want 0", count2)
	}
}
