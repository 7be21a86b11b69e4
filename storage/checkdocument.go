package storage

import (
	"fmt"

	"github.com/patrickfrey/strus-sub004/ids"
)

// ExpectedTerm is one search-index term a document was indexed with: a
// (type, value) pair and the ascending positions it occurs at.
type ExpectedTerm struct {
	Type      string
	Value     string
	Positions []ids.Position
}

// ExpectedForward is one forward-index entry: the verbatim term string
// recorded at one position of one type's forward index.
type ExpectedForward struct {
	Type     string
	Position ids.Position
	Term     string
}

// DocumentExpectation is everything CheckDocument verifies against the
// store for one document, mirroring the sequence of addSearchIndexTerm/
// addForwardIndexTerm/setMetaData/setAttribute/setUserAccessRight calls
// a DocumentBuilder would have received when the document was inserted.
type DocumentExpectation struct {
	Docid      string
	Terms      []ExpectedTerm
	Forward    []ExpectedForward
	Metadata   map[string]float64
	Attributes map[string]string
	Users      []string
}

// CheckDocument verifies that Docid's committed content in s matches e,
// returning one error per mismatch found (nil if everything matches).
// Grounded on original_source's StorageDocumentChecker::doCheck: a
// property check run after a commit, comparing what was meant to be
// written against what a fresh set of readers actually sees, not a
// reimplementation of the write path. Exercised by this package's
// checkdocument tests.
func (s *Storage) CheckDocument(e DocumentExpectation) []error {
	var errs []error
	docno, err := s.DocumentNumber(e.Docid)
	if err != nil {
		return append(errs, err)
	}
	if docno == 0 {
		return append(errs, fmt.Errorf("checkdocument %s: unknown document", e.Docid))
	}

	errs = append(errs, s.checkTerms(docno, e)...)
	errs = append(errs, s.checkForward(docno, e)...)
	errs = append(errs, s.checkMetadata(docno, e)...)
	errs = append(errs, s.checkAttributes(docno, e)...)
	errs = append(errs, s.checkACL(docno, e)...)
	return errs
}

func (s *Storage) checkTerms(docno ids.Docno, e DocumentExpectation) []error {
	var errs []error
	for _, term := range e.Terms {
		pit, err := s.CreateTermPostingIterator(term.Type, term.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if pit.SkipDoc(docno) != docno {
			errs = append(errs, fmt.Errorf("term %s %q not found in inverted index", term.Type, term.Value))
			continue
		}
		docset, err := s.CreateTermDocSet(term.Type, term.Value)
		if err != nil {
			errs = append(errs, err)
		} else if docset.Skip(uint32(docno)) != uint32(docno) {
			errs = append(errs, fmt.Errorf("term %s %q not found in boolean document index", term.Type, term.Value))
		}

		var pos ids.Position
		for _, want := range term.Positions {
			got := pit.SkipPos(pos)
			if got != want {
				errs = append(errs, fmt.Errorf("term %s %q inverted index position does not match: %d != %d", term.Type, term.Value, want, got))
				break
			}
			pos = want + 1
		}
	}
	return errs
}

func (s *Storage) checkForward(docno ids.Docno, e DocumentExpectation) []error {
	var errs []error
	for _, f := range e.Forward {
		fit, err := s.CreateForwardIterator(f.Type)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := fit.SkipDoc(docno); err != nil {
			errs = append(errs, err)
			continue
		}
		entry, ok := fit.Skip(f.Position)
		if !ok || entry.Position != f.Position {
			errs = append(errs, fmt.Errorf("forward index position for type %s does not match: %d != %d", f.Type, f.Position, entry.Position))
			continue
		}
		if entry.Term != f.Term {
			errs = append(errs, fmt.Errorf("forward index element for type %s at position %d does not match: %q != %q", f.Type, f.Position, entry.Term, f.Term))
		}
	}
	return errs
}

func (s *Storage) checkMetadata(docno ids.Docno, e DocumentExpectation) []error {
	if len(e.Metadata) == 0 {
		return nil
	}
	var errs []error
	reader := s.CreateMetadataReader()
	for name, want := range e.Metadata {
		handle, err := reader.ElementHandle(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reader.SkipDoc(docno); err != nil {
			errs = append(errs, err)
			continue
		}
		got, err := reader.GetValue(handle)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if got != want {
			errs = append(errs, fmt.Errorf("document meta data %q does not match: %v != %v", name, want, got))
		}
	}
	return errs
}

func (s *Storage) checkAttributes(docno ids.Docno, e DocumentExpectation) []error {
	if len(e.Attributes) == 0 {
		return nil
	}
	var errs []error
	reader := s.CreateAttributeReader()
	for name, want := range e.Attributes {
		handle, err := reader.ElementHandle(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reader.SkipDoc(docno)
		got, err := reader.GetValue(handle)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if got != want {
			errs = append(errs, fmt.Errorf("document attribute %q does not match: %q != %q", name, want, got))
		}
	}
	return errs
}

func (s *Storage) checkACL(docno ids.Docno, e DocumentExpectation) []error {
	if len(e.Users) == 0 {
		return nil
	}
	var errs []error
	aclIter, err := s.CreateAclIterator(docno)
	if err != nil {
		return append(errs, err)
	}
	for _, user := range e.Users {
		userno, err := s.UserNumber(user)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if userno == 0 {
			errs = append(errs, fmt.Errorf("document user rights do not match (undefined username %q)", user))
			continue
		}
		invIter, err := s.CreateInvertedAclIterator(user)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if invIter.Skip(uint32(docno)) != uint32(docno) {
			errs = append(errs, fmt.Errorf("document user rights do not match (document not found in inverted ACL for %q)", user))
		}
		if aclIter.Skip(uint32(userno)) != uint32(userno) {
			errs = append(errs, fmt.Errorf("document user rights do not match (user %q not found in ACL)", user))
		}
	}
	return errs
}
