package txn

import (
	"sort"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/ids"
)

// DocumentBuilder accumulates one document's content -- search-index
// terms, forward-index terms, metadata, attributes and ACL grants --
// before it is folded into the owning Transaction's map builders by
// Done, per spec.md §4.6's create_document.
type DocumentBuilder struct {
	tx    *Transaction
	docno ids.Docno

	terms     map[termKey][]uint16 // (typeno, termno) -> ascending positions
	termOrder []termKey

	forward []forwardTerm

	userGrants []ids.Userno

	closed bool
}

type termKey struct {
	Typeno ids.Typeno
	Termno ids.Termno
}

type forwardTerm struct {
	Typeno ids.Typeno
	Pos    uint16
	Term   string
}

// newDocumentBuilder starts a builder for docno against tx.
func newDocumentBuilder(tx *Transaction, docno ids.Docno) *DocumentBuilder {
	return &DocumentBuilder{tx: tx, docno: docno, terms: make(map[termKey][]uint16)}
}

// Docno returns the document number this builder accumulates content
// for, for a caller that needs it before Done (e.g. to log progress).
func (d *DocumentBuilder) Docno() ids.Docno { return d.docno }

// AddTerm records one occurrence of typeName's value termValue at pos in
// the search index, resolving both names through the transaction's
// symbol tables -- the type immediately, the term value deferred so it
// can be renamed by document frequency before commit (spec.md §4.5).
func (d *DocumentBuilder) AddTerm(typeName, termValue string, pos uint16) error {
	typeno, err := d.allocateType(typeName)
	if err != nil {
		return err
	}
	termno, err := d.tx.termAlloc.Allocate(termValue)
	if err != nil {
		return err
	}
	k := termKey{Typeno: ids.Typeno(typeno), Termno: ids.Termno(termno)}
	if _, ok := d.terms[k]; !ok {
		d.termOrder = append(d.termOrder, k)
	}
	d.terms[k] = append(d.terms[k], pos)
	return nil
}

// AddForwardTerm records typeName's raw term string at pos in the
// forward index -- spec.md §4.6's "forward-index terms (type, value,
// position)".
func (d *DocumentBuilder) AddForwardTerm(typeName string, pos uint16, term string) error {
	typeno, err := d.allocateType(typeName)
	if err != nil {
		return err
	}
	d.forward = append(d.forward, forwardTerm{Typeno: ids.Typeno(typeno), Pos: pos, Term: term})
	return nil
}

// SetMetadata stages a numeric metadata column write for this document.
func (d *DocumentBuilder) SetMetadata(name string, value float64) error {
	return d.tx.metadata.SetValue(d.docno, name, value)
}

// SetAttribute stages a utf8 attribute write for this document.
func (d *DocumentBuilder) SetAttribute(name, value string) error {
	attrno, err := d.allocateAttribute(name)
	if err != nil {
		return err
	}
	k := attrKey{Docno: d.docno, Attrno: ids.Attrno(attrno)}
	d.tx.attrPut[k] = value
	delete(d.tx.attrDel, k)
	return nil
}

// Grant stages that userName gains read access to this document.
func (d *DocumentBuilder) Grant(userName string) error {
	userno, err := d.allocateUser(userName)
	if err != nil {
		return err
	}
	d.userGrants = append(d.userGrants, ids.Userno(userno))
	return nil
}

func (d *DocumentBuilder) allocateType(name string) (uint32, error) {
	b := d.tx.kv.BeginBatch()
	id, err := d.tx.sym.Type.AllocateImmediate(b, name)
	if err != nil {
		return 0, err
	}
	if err := d.tx.kv.CommitBatch(b); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *DocumentBuilder) allocateAttribute(name string) (uint32, error) {
	b := d.tx.kv.BeginBatch()
	id, err := d.tx.sym.Attribute.AllocateImmediate(b, name)
	if err != nil {
		return 0, err
	}
	if err := d.tx.kv.CommitBatch(b); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *DocumentBuilder) allocateUser(name string) (uint32, error) {
	b := d.tx.kv.BeginBatch()
	id, err := d.tx.sym.User.AllocateImmediate(b, name)
	if err != nil {
		return 0, err
	}
	if err := d.tx.kv.CommitBatch(b); err != nil {
		return 0, err
	}
	return id, nil
}

// Done folds the builder's accumulated content into the owning
// transaction's map builders, per spec.md §4.6: "for each term the
// transaction updates the df delta ... and appends to the
// posting/docset builders. Forward terms are appended to the forward
// builder ... ACL goes through the user-acl builder." The document's
// InvTermBlock entries (ff, first_pos per touched (type,term) pair) are
// staged so Commit can marshal and write the block.
func (d *DocumentBuilder) Done() error {
	if d.closed {
		return nil
	}
	d.closed = true

	elements := make([]block.InvTermElement, 0, len(d.termOrder))
	for _, k := range d.termOrder {
		positions := d.terms[k]
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		d.tx.inverted.DefineTerm(k.Typeno, k.Termno, d.docno, positions)
		elements = append(elements, block.InvTermElement{
			Typeno:   k.Typeno,
			Termno:   k.Termno,
			FF:       uint32(len(positions)),
			FirstPos: ids.Position(positions[0]),
		})
	}
	if len(elements) > 0 {
		d.tx.invterm[d.docno] = elements
	}

	for _, ft := range d.forward {
		d.tx.forward.DefineTerm(ft.Typeno, d.docno, ft.Pos, ft.Term)
	}

	for _, userno := range d.userGrants {
		d.tx.useracl.Grant(userno, d.docno)
	}

	return nil
}
