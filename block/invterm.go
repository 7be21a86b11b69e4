package block

import (
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// InvTermElement is one entry of a document's inverse term list: the
// (type, term) pair the document contains, its feature frequency and
// first occurrence position. Grounded on invTermBlock.hpp's
// InvTermBlock::Element, widened with ff/first_pos per spec.md §3/§6.
type InvTermElement struct {
	Typeno   ids.Typeno
	Termno   ids.Termno
	FF       uint32 // feature frequency: number of occurrences in the document
	FirstPos ids.Position
}

// InvTermBlock is the per-document list of every (type, term) pair the
// document contains -- the data needed to locate and update posting
// lists on document deletion, and to drive summarization, per spec.md
// §3's "InvTermBlock (per-document inverse term list)".
type InvTermBlock struct {
	doc      ids.Docno
	elements []InvTermElement
}

// Doc returns the document number this block belongs to (the key, not
// stored in the payload).
func (b *InvTermBlock) Doc() ids.Docno { return b.doc }

// Elements returns the block's entries. The returned slice must not be
// mutated.
func (b *InvTermBlock) Elements() []InvTermElement { return b.elements }

// Empty reports whether the document has no recorded terms.
func (b *InvTermBlock) Empty() bool { return len(b.elements) == 0 }

// InvTermBuilder accumulates a document's (type, term) occurrences.
type InvTermBuilder struct {
	doc      ids.Docno
	elements []InvTermElement
}

// NewInvTermBuilder starts a builder for doc.
func NewInvTermBuilder(doc ids.Docno) *InvTermBuilder {
	return &InvTermBuilder{doc: doc}
}

// Append adds one (type, term) occurrence record.
func (b *InvTermBuilder) Append(typeno ids.Typeno, termno ids.Termno, ff uint32, firstPos ids.Position) {
	b.elements = append(b.elements, InvTermElement{Typeno: typeno, Termno: termno, FF: ff, FirstPos: firstPos})
}

// Empty reports whether the builder has no staged elements.
func (b *InvTermBuilder) Empty() bool { return len(b.elements) == 0 }

// CreateBlock freezes the builder into an immutable InvTermBlock.
func (b *InvTermBuilder) CreateBlock() *InvTermBlock {
	return &InvTermBlock{doc: b.doc, elements: append([]InvTermElement(nil), b.elements...)}
}

// Marshal encodes the block per spec.md §6: a sequence of (packed
// typeno, packed termno, packed ff, packed first_pos) tuples.
func (b *InvTermBlock) Marshal() []byte {
	var out []byte
	for _, e := range b.elements {
		out = append(out, codec.PackUint(uint64(e.Typeno))...)
		out = append(out, codec.PackUint(uint64(e.Termno))...)
		out = append(out, codec.PackUint(uint64(e.FF))...)
		out = append(out, codec.PackUint(uint64(e.FirstPos))...)
	}
	return out
}

// UnmarshalInvTerm decodes an InvTermBlock from its on-disk payload.
func UnmarshalInvTerm(doc ids.Docno, data []byte) (*InvTermBlock, error) {
	var elements []InvTermElement
	off := 0
	readOne := func() (uint64, error) {
		v, n, err := codec.UnpackUint(data[off:])
		if err != nil {
			return 0, err
		}
		off += n
		return v, nil
	}
	for off < len(data) {
		typeno, err := readOne()
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "invterm block: typeno")
		}
		termno, err := readOne()
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "invterm block: termno")
		}
		ff, err := readOne()
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "invterm block: ff")
		}
		firstPos, err := readOne()
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "invterm block: first_pos")
		}
		elements = append(elements, InvTermElement{
			Typeno:   ids.Typeno(typeno),
			Termno:   ids.Termno(termno),
			FF:       uint32(ff),
			FirstPos: ids.Position(firstPos),
		})
	}
	return &InvTermBlock{doc: doc, elements: elements}, nil
}
