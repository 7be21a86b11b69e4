package readhandle

import (
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/symtab"
)

// AttributeReader reads one document's string attributes at a time.
// Grounded on attributeReader.hpp's elementHandle/skipDoc/getValue
// split: elementHandle resolves a name once (through the shared
// attribute-name symbol table), skipDoc repositions the reader, and
// getValue reads the already-positioned document's column.
type AttributeReader struct {
	kv    kvstore.KeyValue
	names *symtab.Table
	docno ids.Docno
}

// NewAttributeReader returns an attribute reader backed by the
// attribute-name symbol table names.
func NewAttributeReader(kv kvstore.KeyValue, names *symtab.Table) *AttributeReader {
	return &AttributeReader{kv: kv, names: names}
}

// ElementHandle resolves an attribute name to its attrno, or 0 if the
// name was never defined.
func (r *AttributeReader) ElementHandle(name string) (ids.Attrno, error) {
	id, ok, err := r.names.Lookup(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return ids.Attrno(id), nil
}

// SkipDoc repositions the reader at docno.
func (r *AttributeReader) SkipDoc(docno ids.Docno) { r.docno = docno }

// GetValue reads handle's string value for the currently positioned
// document, or "" if the document has no such attribute set.
func (r *AttributeReader) GetValue(handle ids.Attrno) (string, error) {
	v, err := r.kv.Get(codec.DocAttributeKey(uint32(r.docno), uint32(handle)))
	if err == kvstore.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}
