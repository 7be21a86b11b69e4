package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	_ "github.com/patrickfrey/strus-sub004/kvstore/leveldb"
	_ "github.com/patrickfrey/strus-sub004/kvstore/mem"
	"github.com/patrickfrey/strus-sub004/meta"
)

// keyFamily names one of the named [what] selectors this tool accepts,
// per strusDumpStorage.cpp's getDatabaseKeyPrefix/keyPrefixName table.
type keyFamily struct {
	name   string
	prefix byte
	doc    string
}

var keyFamilies = []keyFamily{
	{"termtype", codec.PrefixTermType, "term type definitions"},
	{"termvalue", codec.PrefixTermValue, "term value definitions"},
	{"docid", codec.PrefixDocID, "document identifier definitions"},
	{"username", codec.PrefixUserName, "user name definitions"},
	{"attrname", codec.PrefixAttributeName, "attribute name definitions"},
	{"variable", codec.PrefixVariable, "global variable definitions"},
	{"forward", codec.PrefixForward, "forward index blocks"},
	{"posinfo", codec.PrefixPostingBlock, "posting (position info) blocks"},
	{"doclist", codec.PrefixDocsetBlock, "term document set blocks"},
	{"useracl", codec.PrefixUserAclBlock, "user ACL index blocks"},
	{"docacl", codec.PrefixAclBlock, "document ACL index blocks"},
	{"invterm", codec.PrefixInvTerm, "inverse term index blocks"},
	{"metadata", codec.PrefixMeta, "meta data blocks"},
	{"docattr", codec.PrefixDocAttribute, "document attributes"},
	{"df", codec.PrefixDocFrequency, "term document frequency definitions"},
	{"metatable", codec.PrefixMetaDescr, "meta data element description"},
}

func familyByName(name string) (keyFamily, bool) {
	for _, f := range keyFamilies {
		if strings.EqualFold(f.name, name) {
			return f, true
		}
	}
	return keyFamily{}, false
}

func familyName(prefix byte) string {
	for _, f := range keyFamilies {
		if f.prefix == prefix {
			return f.name
		}
	}
	return fmt.Sprintf("0x%02x", prefix)
}

func run(out io.Writer, storeConfigString string, prefix byte) error {
	kv, err := kvstore.Open(storeConfigString)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer kv.Close()

	desc, err := loadDescription(kv)
	if err != nil {
		return fmt.Errorf("failed to load metadata description: %w", err)
	}

	return dumpDB(out, kv, desc, prefix)
}

// loadDescription re-derives the metadata column layout straight from
// the store, independent of package storage, the same way
// strusDumpStorage.cpp's dumpDB constructs its own local
// MetaDataDescription rather than going through the storage class.
func loadDescription(kv kvstore.KeyValue) (*meta.Description, error) {
	data, err := kv.Get(codec.MetaDescrKey())
	if err != nil {
		if err == kvstore.ErrNotFound {
			return meta.NewDescription(), nil
		}
		return nil, err
	}
	return meta.UnmarshalDescription(data)
}

// dumpDB walks every record of kv (or just prefix's family, if nonzero),
// printing one formatted line per record to out and a running per-family
// progress report to stderr -- strusDumpStorage.cpp's dumpDB.
func dumpDB(out io.Writer, kv kvstore.KeyValue, desc *meta.Description, prefix byte) error {
	var it kvstore.Iterator
	if prefix == 0 {
		it = kv.Find(nil, nil)
	} else {
		it = kvstore.RangeScan(kv, []byte{prefix})
	}
	defer it.Close()

	var nofErrors, cnt uint
	var curType byte
	for it.Next() {
		key := it.Key()
		if len(key) == 0 {
			logError("found empty key in storage")
			continue
		}
		if curType != key[0] {
			if curType != 0 {
				logProgress(cnt)
				cnt = 0
			}
			logStartFamily(familyName(key[0]))
			curType = key[0]
		}
		if err := formatEntry(out, desc, key, it.Value()); err != nil {
			logError(fmt.Sprintf("%v (in key family %q)", err, familyName(key[0])))
			nofErrors++
			continue
		}
		cnt++
	}
	if curType != 0 {
		logProgress(cnt)
	}
	if nofErrors > 0 {
		return fmt.Errorf("strusdump: %d entries failed to decode", nofErrors)
	}
	return nil
}

func formatEntry(out io.Writer, desc *meta.Description, key, value []byte) error {
	switch key[0] {
	case codec.PrefixTermType:
		return dumpName(out, 't', key, value)
	case codec.PrefixTermValue:
		return dumpName(out, 'i', key, value)
	case codec.PrefixDocID:
		return dumpName(out, 'd', key, value)
	case codec.PrefixUserName:
		return dumpName(out, 'u', key, value)
	case codec.PrefixAttributeName:
		return dumpName(out, 'A', key, value)
	case codec.PrefixVariable:
		return dumpName(out, 'v', key, value)
	case codec.PrefixForward:
		return dumpForward(out, key, value)
	case codec.PrefixPostingBlock:
		return dumpPosting(out, key, value)
	case codec.PrefixDocsetBlock:
		return dumpDocset(out, 'b', key, value)
	case codec.PrefixUserAclBlock:
		return dumpAclBlock(out, 'U', key, value)
	case codec.PrefixAclBlock:
		return dumpAclBlock(out, 'D', key, value)
	case codec.PrefixInvTerm:
		return dumpInvTerm(out, key, value)
	case codec.PrefixMeta:
		return dumpMeta(out, desc, key, value)
	case codec.PrefixDocAttribute:
		return dumpDocAttribute(out, key, value)
	case codec.PrefixDocFrequency:
		return dumpDocFrequency(out, key, value)
	case codec.PrefixMetaDescr:
		return dumpMetaDescr(out, desc)
	default:
		return fmt.Errorf("illegal database key prefix %q", key[0])
	}
}

// dumpName renders the five "name -> id" symbol-table families plus the
// Variable family, all of which share the same "prefix + raw name bytes
// -> packed id" key layout.
func dumpName(out io.Writer, tag byte, key, value []byte) error {
	name := string(key[1:])
	id, _, err := codec.UnpackUint(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%c %d %s\n", tag, id, name)
	return err
}

func unpackChain(b []byte, n int) ([]uint64, error) {
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		v, k, err := codec.UnpackUint(b)
		if err != nil {
			return nil, err
		}
		out[i] = v
		b = b[k:]
	}
	return out, nil
}

func dumpForward(out io.Writer, key, value []byte) error {
	f, err := unpackChain(key[1:], 3)
	if err != nil {
		return err
	}
	typeno, docno, maxpos := f[0], f[1], f[2]
	blk, err := block.UnmarshalForward(uint16(maxpos), value)
	if err != nil {
		return err
	}
	for _, e := range blk.Entries() {
		if _, err := fmt.Fprintf(out, "r %d %d %d %s\n", typeno, docno, e.Position, escapeString(e.Term)); err != nil {
			return err
		}
	}
	return nil
}

func dumpPosting(out io.Writer, key, value []byte) error {
	f, err := unpackChain(key[1:], 2)
	if err != nil {
		return err
	}
	typeno, termno := f[0], f[1]
	blk, err := block.Unmarshal(value)
	if err != nil {
		return err
	}
	for c, ok := blk.First(); ok; c, ok = blk.Next(c) {
		docno := blk.DocnoAt(c)
		positions := blk.PositionsAt(c)
		parts := make([]string, len(positions))
		for i, p := range positions {
			parts[i] = fmt.Sprint(p)
		}
		if _, err := fmt.Fprintf(out, "p %d %d %d %d %s\n", typeno, termno, docno, blk.FrequencyAt(c), strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

func dumpDocset(out io.Writer, tag byte, key, value []byte) error {
	f, err := unpackChain(key[1:], 2)
	if err != nil {
		return err
	}
	typeno, termno := f[0], f[1]
	blk, err := block.UnmarshalDocSet(value)
	if err != nil {
		return err
	}
	for _, r := range blk.Ranges() {
		if _, err := fmt.Fprintf(out, "%c %d %d %d %d\n", tag, typeno, termno, r.From, r.To); err != nil {
			return err
		}
	}
	return nil
}

func dumpAclBlock(out io.Writer, tag byte, key, value []byte) error {
	f, err := unpackChain(key[1:], 1)
	if err != nil {
		return err
	}
	id := f[0]
	blk, err := block.UnmarshalDocSet(value)
	if err != nil {
		return err
	}
	for _, r := range blk.Ranges() {
		if _, err := fmt.Fprintf(out, "%c %d %d %d\n", tag, id, r.From, r.To); err != nil {
			return err
		}
	}
	return nil
}

func dumpInvTerm(out io.Writer, key, value []byte) error {
	f, err := unpackChain(key[1:], 1)
	if err != nil {
		return err
	}
	doc := ids.Docno(f[0])
	blk, err := block.UnmarshalInvTerm(doc, value)
	if err != nil {
		return err
	}
	for _, e := range blk.Elements() {
		if _, err := fmt.Fprintf(out, "I %d %d %d %d %d\n", doc, e.Typeno, e.Termno, e.FF, e.FirstPos); err != nil {
			return err
		}
	}
	return nil
}

func dumpMeta(out io.Writer, desc *meta.Description, key, value []byte) error {
	blockno, err := codec.BlockKeyID(key, 1)
	if err != nil {
		return err
	}
	blk, err := block.UnmarshalMeta(blockno, desc, value)
	if err != nil {
		return err
	}
	cols := desc.Columns()
	base := ids.Docno((blockno - 1) * block.MetaRecordsPerBlock)
	for rec := 0; rec < block.MetaRecordsPerBlock; rec++ {
		docno := base + ids.Docno(rec)
		var b strings.Builder
		fmt.Fprintf(&b, "m %d %d", blockno, docno)
		for h, col := range cols {
			v, err := blk.GetValue(rec, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, " %s=%v", col.Name, v)
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(out, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func dumpDocAttribute(out io.Writer, key, value []byte) error {
	f, err := unpackChain(key[1:], 2)
	if err != nil {
		return err
	}
	docno, attrno := f[0], f[1]
	_, err = fmt.Fprintf(out, "a %d %d %s\n", attrno, docno, escapeString(string(value)))
	return err
}

func dumpDocFrequency(out io.Writer, key, value []byte) error {
	f, err := unpackChain(key[1:], 2)
	if err != nil {
		return err
	}
	df, _, err := codec.UnpackUint(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "f %d %d %d\n", f[0], f[1], df)
	return err
}

func dumpMetaDescr(out io.Writer, desc *meta.Description) error {
	for _, col := range desc.Columns() {
		if _, err := fmt.Fprintf(out, "M %s %s\n", col.Name, col.Type); err != nil {
			return err
		}
	}
	return nil
}

// escapeString mirrors extractKeyValueData.cpp's escapestr: control
// characters become their familiar backslash escapes so a dump stays one
// line per record.
func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
