package txn

import "github.com/patrickfrey/strus-sub004/ids"

// UpdateBuilder mutates an existing document's metadata, attributes and
// ACL entries without touching its inverted or forward index -- spec.md
// §4.6's update_document: "a thin variant that allows only metadata,
// attribute, and ACL mutation; cannot alter inverted/forward index."
type UpdateBuilder struct {
	tx    *Transaction
	docno ids.Docno
}

// Docno returns the document number being updated.
func (u *UpdateBuilder) Docno() ids.Docno { return u.docno }

// SetMetadata stages a numeric metadata column write for this document.
func (u *UpdateBuilder) SetMetadata(name string, value float64) error {
	return u.tx.metadata.SetValue(u.docno, name, value)
}

// SetAttribute stages a utf8 attribute write for this document.
func (u *UpdateBuilder) SetAttribute(name, value string) error {
	b := u.tx.kv.BeginBatch()
	attrno, err := u.tx.sym.Attribute.AllocateImmediate(b, name)
	if err != nil {
		return err
	}
	if err := u.tx.kv.CommitBatch(b); err != nil {
		return err
	}
	k := attrKey{Docno: u.docno, Attrno: ids.Attrno(attrno)}
	u.tx.attrPut[k] = value
	delete(u.tx.attrDel, k)
	return nil
}

// RemoveAttribute stages the removal of an attribute from this document.
func (u *UpdateBuilder) RemoveAttribute(name string) error {
	attrno, ok, err := u.tx.sym.Attribute.Lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	k := attrKey{Docno: u.docno, Attrno: ids.Attrno(attrno)}
	u.tx.attrDel[k] = true
	delete(u.tx.attrPut, k)
	return nil
}

// Grant stages that userName gains read access to this document.
func (u *UpdateBuilder) Grant(userName string) error {
	b := u.tx.kv.BeginBatch()
	userno, err := u.tx.sym.User.AllocateImmediate(b, userName)
	if err != nil {
		return err
	}
	if err := u.tx.kv.CommitBatch(b); err != nil {
		return err
	}
	u.tx.useracl.Grant(ids.Userno(userno), u.docno)
	return nil
}

// Revoke stages that userName loses read access to this document.
func (u *UpdateBuilder) Revoke(userName string) error {
	userno, ok, err := u.tx.sym.User.Lookup(userName)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	u.tx.useracl.Revoke(ids.Userno(userno), u.docno)
	return nil
}

// Done is a no-op finalizer kept for symmetry with DocumentBuilder.Done;
// UpdateBuilder's mutations are staged immediately as each method is
// called, since there is no per-document InvTermBlock to assemble.
func (u *UpdateBuilder) Done() error { return nil }
