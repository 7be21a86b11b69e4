// Package storage implements the process-scope storage client of
// spec.md §4.11: the single object that owns the KV store handle, the
// metadata description, the shared metadata-block cache, the five
// symbol tables, the document-frequency cache and the live-transaction
// counter, and hands out transactions, posting iterators and read
// handles built from them.
//
// Grounded on original_source/src/lvdbstorage/storage.{hpp,cpp} for the
// operation surface (createTransaction, createTermPostingIterator,
// createForwardIterator, createInvertedAclIterator, documentNumber,
// maxDocumentNumber, close's "refuse while transactions are live" rule)
// and on perkeep's pkg/index.Index struct shape (a mutex-guarded count
// plus a held KeyValue handle) for the Go idiom.
package storage

import (
	"sync"

	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/dfcache"
	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/meta"
	"github.com/patrickfrey/strus-sub004/postiter"
	"github.com/patrickfrey/strus-sub004/readhandle"
	"github.com/patrickfrey/strus-sub004/storeerr"
	"github.com/patrickfrey/strus-sub004/symtab"
	"github.com/patrickfrey/strus-sub004/txn"
)

// Storage is one process's handle onto a store, per spec.md §4.11.
// Safe for concurrent use by many reader goroutines; at most one
// transaction may be committing at a time (enforced by commitMu, held
// for the duration of Transaction.Commit).
type Storage struct {
	kv        kvstore.KeyValue
	desc      *meta.Description
	sym       txn.Symtabs
	df        *dfcache.Cache
	metaCache *readhandle.MetaCache

	mu       sync.Mutex // guards txnCount
	txnCount int

	commitMu sync.Mutex // serializes Transaction.Commit, per spec.md §5
}

// Open parses a store-config-string (spec.md §6), opens the backing KV
// store, and loads everything a fresh Storage needs: the persisted
// metadata description (empty if this is a brand new store -- use
// DefineMetaData to declare columns before inserting any document),
// the five symbol tables, the forward-indexed type list, and the
// document-frequency cache (warmed from the persisted 'f'-family
// entries so query planning survives a reopen without replaying
// history).
//
// Recognized config keys beyond kvstore.Open's own ("path", "engine"):
// "forwardtypes", a comma-separated list of term-type names that carry
// a forward index (spec.md §4.6's Symtabs.ForwardTypes, resolved to
// typenos here since type ids are assigned dynamically on first use).
func Open(storeConfigString string) (*Storage, error) {
	kv, err := kvstore.Open(storeConfigString)
	if err != nil {
		return nil, err
	}
	s, err := open(kv, storeConfigString)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return s, nil
}

func open(kv kvstore.KeyValue, storeConfigString string) (*Storage, error) {
	cfg, err := kvstore.ParseConfig(storeConfigString)
	if err != nil {
		return nil, err
	}

	desc, err := loadDescription(kv)
	if err != nil {
		return nil, err
	}

	sym, err := openSymtabs(kv)
	if err != nil {
		return nil, err
	}
	forwardTypes, err := resolveForwardTypes(kv, sym.Type, cfg.OptionalString("forwardtypes", ""))
	if err != nil {
		return nil, err
	}
	sym.ForwardTypes = forwardTypes

	df := dfcache.New()
	if err := warmDfCache(kv, df); err != nil {
		return nil, err
	}

	return &Storage{kv: kv, desc: desc, sym: sym, df: df, metaCache: readhandle.NewMetaCache()}, nil
}

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

func openSymtabs(kv kvstore.KeyValue) (txn.Symtabs, error) {
	typeTbl, err := symtab.Open(kv, codec.PrefixTermType, codec.VarNextTypeno)
	if err != nil {
		return txn.Symtabs{}, err
	}
	docTbl, err := symtab.Open(kv, codec.PrefixDocID, codec.VarNextDocno)
	if err != nil {
		return txn.Symtabs{}, err
	}
	userTbl, err := symtab.Open(kv, codec.PrefixUserName, codec.VarNextUserno)
	if err != nil {
		return txn.Symtabs{}, err
	}
	attrTbl, err := symtab.Open(kv, codec.PrefixAttributeName, codec.VarNextAttrno)
	if err != nil {
		return txn.Symtabs{}, err
	}
	termTbl, err := symtab.Open(kv, codec.PrefixTermValue, codec.VarNextTermno)
	if err != nil {
		return txn.Symtabs{}, err
	}
	return txn.Symtabs{Type: typeTbl, Doc: docTbl, User: userTbl, Attribute: attrTbl, Term: termTbl}, nil
}

func resolveForwardTypes(kv kvstore.KeyValue, typeTbl *symtab.Table, csv string) ([]ids.Typeno, error) {
	if csv == "" {
		return nil, nil
	}
	names := splitComma(csv)
	out := make([]ids.Typeno, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		b := kv.BeginBatch()
		id, err := typeTbl.AllocateImmediate(b, name)
		if err != nil {
			return nil, err
		}
		if err := kv.CommitBatch(b); err != nil {
			return nil, err
		}
		out = append(out, ids.Typeno(id))
	}
	return out, nil
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// warmDfCache scans the persisted 'f'-family entries and loads them into
// df, mirroring the original constructor's "load everything from the db
// at open time" approach (loadVariables et al.) rather than rebuilding
// frequencies from the posting blocks themselves.
func warmDfCache(kv kvstore.KeyValue, df *dfcache.Cache) error {
	it := kvstore.RangeScan(kv, []byte{codec.PrefixDocFrequency})
	defer it.Close()
	for it.Next() {
		typeno, err := codec.BlockKeyID(it.Key(), 1)
		if err != nil {
			return err
		}
		termno, err := codec.BlockKeyID(it.Key(), 1+len(codec.PackUint32(typeno)))
		if err != nil {
			return err
		}
		v, _, err := codec.UnpackUint(it.Value())
		if err != nil {
			return err
		}
		df.Load(ids.Typeno(typeno), ids.Termno(termno), v)
	}
	return nil
}

// DefineMetaData declares desc as the store's metadata column layout.
// Only valid on a store with no columns yet declared (a brand new
// store); on a store that already has columns it returns an error and
// changes nothing.
func (s *Storage) DefineMetaData(desc *meta.Description) error {
	if s.desc.NofElements() != 0 {
		return storeerr.New(storeerr.InvalidArgument, "storage: metadata description already defined")
	}
	if err := s.kv.Set(codec.MetaDescrKey(), desc.Marshal()); err != nil {
		return err
	}
	s.desc = desc
	return nil
}

// CreateTransaction starts a new transaction against this store,
// incrementing the live-transaction counter; the caller must Commit or
// Rollback it, per spec.md §4.11.
func (s *Storage) CreateTransaction() *Transaction {
	s.mu.Lock()
	s.txnCount++
	s.mu.Unlock()
	return &Transaction{Transaction: txn.New(s.kv, s.desc, s.sym, s.df), s: s}
}

// finish runs once per Transaction, on whichever of Commit/Rollback
// completes it first: decrements the live-transaction counter so Close
// can eventually succeed.
func (s *Storage) finish() {
	s.mu.Lock()
	s.txnCount--
	s.mu.Unlock()
}

// CreateTermPostingIterator builds a posting iterator over (typeName,
// termValue)'s occurrences, per spec.md §4.11. An unknown type or term
// name yields a zero-document-frequency iterator rather than an error
// (original_source's NullIterator), since "the term was never indexed"
// is a valid, common query outcome, not a store fault.
func (s *Storage) CreateTermPostingIterator(typeName, termValue string) (postiter.PostingIterator, error) {
	typeno, ok, err := s.sym.Type.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return postiter.NewTerm(s.kv, 0, 0, 0)
	}
	termno, ok, err := s.sym.Term.Lookup(termValue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return postiter.NewTerm(s.kv, ids.Typeno(typeno), 0, 0)
	}
	df := s.df.Get(ids.Typeno(typeno), ids.Termno(termno))
	return postiter.NewTerm(s.kv, ids.Typeno(typeno), ids.Termno(termno), df)
}

// CreateTermDocSet returns the boolean (position-less) document set for
// (typeName, termValue), the 'b'-family counterpart of
// CreateTermPostingIterator used by the document checker to verify a
// term is present in both the posting list and the boolean docset index.
// An unknown type or term name yields a permanently empty set.
func (s *Storage) CreateTermDocSet(typeName, termValue string) (*readhandle.DocSetIterator, error) {
	typeno, ok, err := s.sym.Type.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return readhandle.NewTermDocSet(s.kv, 0, 0)
	}
	termno, ok, err := s.sym.Term.Lookup(termValue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return readhandle.NewTermDocSet(s.kv, ids.Typeno(typeno), 0)
	}
	return readhandle.NewTermDocSet(s.kv, ids.Typeno(typeno), ids.Termno(termno))
}

// CreateForwardIterator returns a forward-index iterator over typeName's
// documents, per spec.md §4.11. An unknown type name still returns a
// (permanently empty) iterator rather than an error, matching
// CreateTermPostingIterator's "no match is not a fault" stance.
func (s *Storage) CreateForwardIterator(typeName string) (*readhandle.ForwardIterator, error) {
	typeno, ok, err := s.sym.Type.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return readhandle.NewForwardIterator(s.kv, 0), nil
	}
	return readhandle.NewForwardIterator(s.kv, ids.Typeno(typeno)), nil
}

// CreateMetadataReader returns a metadata reader sharing this store's
// metadata-block cache, per spec.md §4.11.
func (s *Storage) CreateMetadataReader() *readhandle.MetadataReader {
	return readhandle.NewCachedMetadataReader(s.kv, s.desc, s.metaCache)
}

// CreateAttributeReader returns an attribute reader over this store's
// attribute-name table, per spec.md §4.11.
func (s *Storage) CreateAttributeReader() *readhandle.AttributeReader {
	return readhandle.NewAttributeReader(s.kv, s.sym.Attribute)
}

// CreateInvertedAclIterator returns the set of documents visible to
// user, per spec.md §4.11. An unknown user name yields a permanently
// empty iterator (original_source's UnknownUserInvertedAclIterator),
// not an error.
func (s *Storage) CreateInvertedAclIterator(user string) (*readhandle.DocSetIterator, error) {
	userno, ok, err := s.sym.User.Lookup(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return readhandle.NewInvertedAclIterator(s.kv, 0)
	}
	return readhandle.NewInvertedAclIterator(s.kv, ids.Userno(userno))
}

// CreateAclIterator returns the set of users authorized to read docno,
// the 'D'-family direction supplementing CreateInvertedAclIterator,
// per storage.cpp's getAclIterator (used internally by the document
// checker, not exposed on every storage client interface).
func (s *Storage) CreateAclIterator(docno ids.Docno) (*readhandle.DocSetIterator, error) {
	return readhandle.NewAclIterator(s.kv, docno)
}

// MetaDescription returns the store's current metadata column layout.
func (s *Storage) MetaDescription() *meta.Description { return s.desc }

// DocumentNumber resolves a document id to its docno, 0 if unknown.
func (s *Storage) DocumentNumber(docid string) (ids.Docno, error) {
	id, ok, err := s.sym.Doc.Lookup(docid)
	if err != nil || !ok {
		return 0, err
	}
	return ids.Docno(id), nil
}

// UserNumber resolves a user name to its userno, 0 if unknown.
func (s *Storage) UserNumber(user string) (ids.Userno, error) {
	id, ok, err := s.sym.User.Lookup(user)
	if err != nil || !ok {
		return 0, err
	}
	return ids.Userno(id), nil
}

// NofDocuments returns the number of currently live (non-deleted)
// documents, the persisted NofDocs ('v') counter.
func (s *Storage) NofDocuments() (uint64, error) {
	v, err := s.kv.Get(codec.NameKey(codec.PrefixVariable, codec.VarNofDocs))
	if err != nil {
		if err == kvstore.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	n, _, err := codec.UnpackUint(v)
	return n, err
}

// MaxDocumentNumber returns the highest docno ever assigned (deleted
// documents keep their docno, per spec.md §4.5's allocate-from-1
// invariant, so this can exceed NofDocuments).
func (s *Storage) MaxDocumentNumber() ids.Docno {
	return ids.Docno(s.sym.Doc.MaxID())
}

// Close refuses while any transaction is still live, per spec.md
// §4.11; otherwise it releases the underlying KV store handle.
func (s *Storage) Close() error {
	s.mu.Lock()
	live := s.txnCount
	s.mu.Unlock()
	if live > 0 {
		return storeerr.Newf(storeerr.InvalidArgument, "storage: cannot close with %d transaction(s) live", live)
	}
	return s.kv.Close()
}
