package storage

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/ids"
)

func validExpectation() DocumentExpectation {
	return DocumentExpectation{
		Docid: "doc1",
		Terms: []ExpectedTerm{
			{Type: "word", Value: "hello", Positions: []ids.Position{1}},
			{Type: "word", Value: "world", Positions: []ids.Position{2}},
		},
		Forward: []ExpectedForward{
			{Type: "orig", Position: 1, Term: "Hello"},
		},
		Metadata:   map[string]float64{"score": 3.5},
		Attributes: map[string]string{"title": "Hello World"},
		Users:      []string{"alice"},
	}
}

func TestCheckDocumentMatches(t *testing.T) {
	s := openTestStorage(t)
	insertDoc(t, s, "doc1")

	if errs := s.CheckDocument(validExpectation()); len(errs) != 0 {
		t.Fatalf("CheckDocument on matching content = %v, want no errors", errs)
	}
}

func TestCheckDocumentCatchesMismatches(t *testing.T) {
	s := openTestStorage(t)
	insertDoc(t, s, "doc1")

	e := validExpectation()
	e.Metadata["score"] = 9.9
	e.Attributes["title"] = "wrong title"
	e.Users = append(e.Users, "bob")
	e.Terms[0].Positions = []ids.Position{5}
	e.Forward[0].Term = "Goodbye"

	errs := s.CheckDocument(e)
	if len(errs) < 5 {
		t.Fatalf("CheckDocument on mismatched content = %v, want at least 5 errors", errs)
	}
}

func TestCheckDocumentUnknownDocid(t *testing.T) {
	s := openTestStorage(t)
	insertDoc(t, s, "doc1")

	e := validExpectation()
	e.Docid = "nosuchdoc"
	errs := s.CheckDocument(e)
	if len(errs) != 1 {
		t.Fatalf("CheckDocument on unknown docid = %v, want exactly 1 error", errs)
	}
}
