// Package meta implements the metadata column description and its
// alter-table operations (add/rename/drop/change/reset), grounded on
// original_source/src/lvdbstorage/metaDataDescription.hpp,
// metaDataElement.hpp and storageAlterMetaDataTable.{hpp,cpp}.
//
// Record storage itself (the fixed-width MetaBlock batches this
// description lays records out in) lives in package block, which
// imports this package for the column layout.
package meta

import (
	"sort"

	"github.com/patrickfrey/strus-sub004/storeerr"
)

// Type enumerates the fixed-width column types a Description can
// declare, grounded on metaDataElement.hpp's MetaDataElement::Type enum.
type Type int

const (
	Int8 Type = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float16
	Float32
)

var typeSize = [...]int{1, 1, 2, 2, 4, 4, 2, 4}
var typeName = [...]string{"Int8", "UInt8", "Int16", "UInt16", "Int32", "UInt32", "Float16", "Float32"}

// Size returns the column's fixed byte width.
func (t Type) Size() int { return typeSize[t] }

// String returns the column type's canonical name.
func (t Type) String() string { return typeName[t] }

// TypeFromName resolves a column type by its canonical name.
func TypeFromName(name string) (Type, error) {
	for i, n := range typeName {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, storeerr.Newf(storeerr.InvalidArgument, "unknown metadata column type %q", name)
}

// Column is one named, typed, offset-assigned field of a Description.
type Column struct {
	Name string
	Type Type
	Ofs  int

	reset bool // set by Reset: TranslationMap treats the column as not surviving
}

// Description is the ordered, named set of fixed-width columns that make
// up one record of a MetaBlock, grounded on metaDataDescription.hpp.
// Columns are appended in declaration order; each record's encoded size
// is the sum of column sizes, aligned up to 4 bytes.
type Description struct {
	columns []Column
	byName  map[string]int // name -> index into columns
	bytesz  int             // raw (unaligned) size
}

// NewDescription returns an empty column description.
func NewDescription() *Description {
	return &Description{byName: make(map[string]int)}
}

// Clone returns a deep copy, so alter-table operations can be staged
// against a scratch copy before being committed. No column of the copy
// is marked as reset, so TranslationMap from d to the copy only sees
// the operations applied to the copy itself.
func (d *Description) Clone() *Description {
	nd := &Description{
		columns: append([]Column(nil), d.columns...),
		byName:  make(map[string]int, len(d.byName)),
		bytesz:  d.bytesz,
	}
	for i := range nd.columns {
		nd.columns[i].reset = false
	}
	for k, v := range d.byName {
		nd.byName[k] = v
	}
	return nd
}

// Defined reports whether name is already declared.
func (d *Description) Defined(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// recompute reassigns every column's offset from its declaration order,
// used after Drop/Rename/Change mutate the column list.
func (d *Description) recompute() {
	off := 0
	d.byName = make(map[string]int, len(d.columns))
	for i := range d.columns {
		d.columns[i].Ofs = off
		off += d.columns[i].Type.Size()
		d.byName[d.columns[i].Name] = i
	}
	d.bytesz = off
}

// Add appends a new column, assigning it the next free offset. Returns an
// error if the name is already declared.
func (d *Description) Add(t Type, name string) error {
	if d.Defined(name) {
		return storeerr.Newf(storeerr.InvalidArgument, "metadata column %q already defined", name)
	}
	col := Column{Name: name, Type: t, Ofs: d.bytesz}
	d.byName[name] = len(d.columns)
	d.columns = append(d.columns, col)
	d.bytesz += t.Size()
	return nil
}

// Drop removes a declared column. The remaining columns keep their
// relative order; offsets are recomputed.
func (d *Description) Drop(name string) error {
	h, err := d.Handle(name)
	if err != nil {
		return err
	}
	d.columns = append(d.columns[:h], d.columns[h+1:]...)
	d.recompute()
	return nil
}

// Rename changes a declared column's name without touching its type,
// offset or stored values.
func (d *Description) Rename(oldName, newName string) error {
	h, err := d.Handle(oldName)
	if err != nil {
		return err
	}
	if oldName != newName && d.Defined(newName) {
		return storeerr.Newf(storeerr.InvalidArgument, "metadata column %q already defined", newName)
	}
	d.columns[h].Name = newName
	delete(d.byName, oldName)
	d.byName[newName] = h
	return nil
}

// Change replaces a declared column's type in place. Since a type change
// invalidates the column's stored bytes, the caller (block.MetaBlock.Rewrite)
// must treat it the same as Drop+Add when migrating existing records:
// whenever the new type differs from the old one, Change's TranslationMap
// entry for this column is nil (the column does not "survive" a type
// change).
func (d *Description) Change(name string, newType Type) error {
	h, err := d.Handle(name)
	if err != nil {
		return err
	}
	d.columns[h].Type = newType
	d.recompute()
	return nil
}

// Reset is the degenerate alter-table operation "keep the column
// declared, but treat its stored values as gone" -- implemented as
// Drop followed by Add, with the re-added column marked as reset so that
// its TranslationMap entry comes out nil (see Change's doc comment).
func (d *Description) Reset(name string) error {
	h, err := d.Handle(name)
	if err != nil {
		return err
	}
	t := d.columns[h].Type
	if err := d.Drop(name); err != nil {
		return err
	}
	if err := d.Add(t, name); err != nil {
		return err
	}
	d.columns[len(d.columns)-1].reset = true
	return nil
}

// NofElements returns the number of declared columns.
func (d *Description) NofElements() int { return len(d.columns) }

// Bytesize returns the record size, aligned up to 4 bytes.
func (d *Description) Bytesize() int { return (d.bytesz + 3) &^ 3 }

// Get returns the column at the given handle (declaration index).
func (d *Description) Get(handle int) (Column, error) {
	if handle < 0 || handle >= len(d.columns) {
		return Column{}, storeerr.New(storeerr.OutOfRange, "metadata column handle out of range")
	}
	return d.columns[handle], nil
}

// Handle resolves a column name to its declaration index.
func (d *Description) Handle(name string) (int, error) {
	h, ok := d.byName[name]
	if !ok {
		return 0, storeerr.Newf(storeerr.UnknownIdentifier, "metadata column %q not defined", name)
	}
	return h, nil
}

// HasElement reports whether name is declared.
func (d *Description) HasElement(name string) bool { return d.Defined(name) }

// Columns returns the declared columns in declaration order. The
// returned slice must not be mutated.
func (d *Description) Columns() []Column { return d.columns }

// ColumnTranslation pairs a source column with its counterpart in
// another description, or nil To when the column was dropped, renamed
// away without a matching Rename mapping, changed in type, or reset.
type ColumnTranslation struct {
	From *Column
	To   *Column
}

// TranslationMap computes, for every column of d, its corresponding
// column in o (matched by name, with an unchanged type and not reset in
// o), or a nil To when the column no longer survives in o. Grounded on
// MetaDataDescription::getTranslationMap.
func (d *Description) TranslationMap(o *Description) []ColumnTranslation {
	out := make([]ColumnTranslation, 0, len(d.columns))
	for i := range d.columns {
		from := &d.columns[i]
		var to *Column
		if h, ok := o.byName[from.Name]; ok && o.columns[h].Type == from.Type && !o.columns[h].reset {
			to = &o.columns[h]
		}
		out = append(out, ColumnTranslation{From: from, To: to})
	}
	return out
}

// SortedColumnNames returns the description's column names in
// lexical order (convenience for dump tooling, which wants a
// deterministic rendering order rather than declaration order).
func (d *Description) SortedColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// Marshal encodes the description as declaration-ordered
// "type:name" pairs separated by ';', the Go counterpart of
// MetaDataDescription::tostring() -- a single persisted record under
// the MetaDescr ('M') key family, not one entry per column.
func (d *Description) Marshal() []byte {
	var out []byte
	for i, c := range d.columns {
		if i > 0 {
			out = append(out, ';')
		}
		out = append(out, c.Type.String()...)
		out = append(out, ':')
		out = append(out, c.Name...)
	}
	return out
}

// UnmarshalDescription decodes a Description from Marshal's output, the
// Go counterpart of MetaDataDescription(const std::string&).
func UnmarshalDescription(data []byte) (*Description, error) {
	d := NewDescription()
	if len(data) == 0 {
		return d, nil
	}
	for _, pair := range splitByte(data, ';') {
		sep := indexByte(pair, ':')
		if sep < 0 {
			return nil, storeerr.Newf(storeerr.IntegrityError, "metadata description: malformed column entry %q", pair)
		}
		t, err := TypeFromName(string(pair[:sep]))
		if err != nil {
			return nil, err
		}
		if err := d.Add(t, string(pair[sep+1:])); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func splitByte(data []byte, sep byte) [][]byte {
	var out [][]byte
	start := 0
	for i, c := range data {
		if c == sep {
			out = append(out, data[start:i])
			start = i + 1
		}
	}
	out = append(out, data[start:])
	return out
}

func indexByte(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}
