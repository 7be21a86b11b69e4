package storage

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/kvstore"
	_ "github.com/patrickfrey/strus-sub004/kvstore/mem"
	"github.com/patrickfrey/strus-sub004/meta"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("path=test;engine=mem;forwardtypes=orig")
	if err != nil {
		t.Fatal(err)
	}
	desc := meta.NewDescription()
	if err := desc.Add(meta.Float32, "score"); err != nil {
		t.Fatal(err)
	}
	if err := s.DefineMetaData(desc); err != nil {
		t.Fatal(err)
	}
	return s
}

func insertDoc(t *testing.T, s *Storage, docid string) {
	t.Helper()
	tx := s.CreateTransaction()
	doc, err := tx.CreateDocument(docid)
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
}

func TestCreateTransactionCommitAndRead(t *testing.T) {
	s := openTestStorage(t)
	insertDoc(t, s, "doc1")

	docno, err := s.DocumentNumber("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if docno == 0 {
		t.Fatal("expected a non-zero docno for doc1")
	}

	n, err := s.NofDocuments()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("NofDocuments() = %d, want 1", n)
	}
	if s.MaxDocumentNumber() != docno {
		t.Fatalf("MaxDocumentNumber() = %d, want %d", s.MaxDocumentNumber(), docno)
	}

	it, err := s.CreateTermPostingIterator("word", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if it.DocumentFrequency() != 1 {
		t.Fatalf("df(word:hello) = %d, want 1", it.DocumentFrequency())
	}
	if got := it.SkipDoc(1); got != docno {
		t.Fatalf("SkipDoc(1) = %d, want %d", got, docno)
	}

	meta := s.CreateMetadataReader()
	if err := meta.SkipDoc(docno); err != nil {
		t.Fatal(err)
	}
	h, err := meta.ElementHandle("score")
	if err != nil {
		t.Fatal(err)
	}
	v, err := meta.GetValue(h)
	if err != nil {
		t.Fatal(err)
	}
	if v != 3.5 {
		t.Fatalf("score = %v, want 3.5", v)
	}

	attr := s.CreateAttributeReader()
	attr.SkipDoc(docno)
	attrHandle, err := attr.ElementHandle("title")
	if err != nil {
		t.Fatal(err)
	}
	title, err := attr.GetValue(attrHandle)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Hello World" {
		t.Fatalf("title = %q, want %q", title, "Hello World")
	}

	acl, err := s.CreateInvertedAclIterator("alice")
	if err != nil {
		t.Fatal(err)
	}
	if got := acl.Skip(1); got != uint32(docno) {
		t.Fatalf("acl.Skip(1) = %d, want %d", got, docno)
	}

	fwd, err := s.CreateForwardIterator("orig")
	if err != nil {
		t.Fatal(err)
	}
	if err := fwd.SkipDoc(docno); err != nil {
		t.Fatal(err)
	}
}

func TestCreateTermPostingIteratorUnknownIsEmpty(t *testing.T) {
	s := openTestStorage(t)
	it, err := s.CreateTermPostingIterator("word", "nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if it.DocumentFrequency() != 0 {
		t.Fatalf("df = %d, want 0", it.DocumentFrequency())
	}
}

func TestCreateInvertedAclIteratorUnknownUserIsEmpty(t *testing.T) {
	s := openTestStorage(t)
	acl, err := s.CreateInvertedAclIterator("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got := acl.Skip(1); got != 0 {
		t.Fatalf("acl.Skip(1) = %d, want 0", got)
	}
}

func TestCloseRefusesWithLiveTransaction(t *testing.T) {
	s := openTestStorage(t)
	tx := s.CreateTransaction()
	if err := s.Close(); err == nil {
		t.Fatal("expected Close to refuse while a transaction is live")
	}
	tx.Rollback()
	if err := s.Close(); err != nil {
		t.Fatalf("Close after rollback: %v", err)
	}
}

func TestDfCacheSurvivesReopen(t *testing.T) {
	kv, err := kvstore.Open("path=test;engine=mem")
	if err != nil {
		t.Fatal(err)
	}
	s, err := open(kv, "path=test;engine=mem;forwardtypes=orig")
	if err != nil {
		t.Fatal(err)
	}
	desc := meta.NewDescription()
	if err := desc.Add(meta.Float32, "score"); err != nil {
		t.Fatal(err)
	}
	if err := s.DefineMetaData(desc); err != nil {
		t.Fatal(err)
	}
	insertDoc(t, s, "doc1")

	// Reopen against the same underlying kv (simulating a process
	// restart without losing the backing store), and confirm the
	// document frequency recovers from the persisted 'f'-family
	// entries rather than starting at zero.
	s2, err := open(kv, "path=test;engine=mem")
	if err != nil {
		t.Fatal(err)
	}
	it, err := s2.CreateTermPostingIterator("word", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if it.DocumentFrequency() != 1 {
		t.Fatalf("df after reopen = %d, want 1", it.DocumentFrequency())
	}
}

func TestDefineMetaDataRejectsRedefinition(t *testing.T) {
	s := openTestStorage(t)
	desc := meta.NewDescription()
	if err := desc.Add(meta.Int8, "other"); err != nil {
		t.Fatal(err)
	}
	if err := s.DefineMetaData(desc); err == nil {
		t.Fatal("expected DefineMetaData to reject a second definition")
	}
}
