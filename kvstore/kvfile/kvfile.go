// Package kvfile provides a kvstore.KeyValue implementation on top of a
// single mutable database file on disk using modernc.org/kv -- the
// modern, actively maintained successor of the github.com/cznic/kv
// package Perkeep's pkg/sorted/kvfile wraps. It is the second of the
// two file-based engines selectable through the store-config-string's
// "engine" key (the other being kvstore/leveldb).
package kvfile

import (
	"bytes"
	"io"
	"os"
	"sync"

	"modernc.org/kv"

	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

func init() {
	kvstore.RegisterEngine("kvfile", newFromConfig)
}

// NewStorage opens (or creates) a kvfile-backed KeyValue at path.
func NewStorage(path string) (kvstore.KeyValue, error) {
	return open(path)
}

func newFromConfig(cfg kvstore.Config) (kvstore.KeyValue, error) {
	path, err := cfg.RequiredString("path")
	if err != nil {
		return nil, err
	}
	return open(path)
}

func open(path string) (kvstore.KeyValue, error) {
	opts := &kv.Options{}
	var db *kv.DB
	var err error
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		db, err = kv.Create(path, opts)
	} else {
		db, err = kv.Open(path, opts)
	}
	if err != nil {
		return nil, storeerr.Wrap(storeerr.StoreIOError, err, "opening kvfile store at "+path)
	}
	return &kvis{db: db, path: path}, nil
}

type kvis struct {
	path string
	db   *kv.DB
	txmu sync.Mutex
}

func (is *kvis) Get(key []byte) ([]byte, error) {
	val, err := is.db.Get(nil, key)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.StoreIOError, err, "get")
	}
	if val == nil {
		return nil, kvstore.ErrNotFound
	}
	return val, nil
}

func (is *kvis) Set(key, value []byte) error {
	if err := is.db.Set(key, value); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "set")
	}
	return nil
}

func (is *kvis) Delete(key []byte) error {
	if err := is.db.Delete(key); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "delete")
	}
	return nil
}

func (is *kvis) Find(lo, hi []byte) kvstore.Iterator {
	it := &iter{db: is.db, hi: hi}
	it.enum, _, it.err = it.db.Seek(lo)
	return it
}

type iter struct {
	db    *kv.DB
	hi    []byte
	enum  *kv.Enumerator
	key   []byte
	val   []byte
	valid bool
	err   error
}

func (it *iter) Next() bool {
	if it.err != nil {
		return false
	}
	var err error
	it.key, it.val, err = it.enum.Next()
	if err == io.EOF {
		it.valid = false
		return false
	}
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	if len(it.hi) > 0 && bytes.Compare(it.key, it.hi) >= 0 {
		it.valid = false
		return false
	}
	it.valid = true
	return true
}

func (it *iter) Prev() bool {
	if it.err != nil {
		return false
	}
	var err error
	it.key, it.val, err = it.enum.Prev()
	if err == io.EOF {
		it.valid = false
		return false
	}
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	it.valid = true
	return true
}

func (it *iter) Seek(key []byte) bool {
	var err error
	it.enum, _, err = it.db.Seek(key)
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	return it.Next()
}

func (it *iter) SeekToLast() bool {
	enum, err := it.db.SeekLast()
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	it.enum = enum
	return it.Prev()
}

func (it *iter) Key() []byte   { return it.key }
func (it *iter) Value() []byte { return it.val }
func (it *iter) Close() error  { return it.err }

func (is *kvis) BeginBatch() kvstore.Batch { return kvstore.NewBatch() }

func (is *kvis) CommitBatch(b kvstore.Batch) error {
	is.txmu.Lock()
	defer is.txmu.Unlock()

	good := false
	defer func() {
		if !good {
			is.db.Rollback()
		}
	}()

	if err := is.db.BeginTransaction(); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "begin transaction")
	}
	for _, m := range b.Mutations() {
		if m.Delete {
			if err := is.db.Delete(m.Key); err != nil {
				return storeerr.Wrap(storeerr.StoreIOError, err, "delete in batch")
			}
		} else {
			if err := is.db.Set(m.Key, m.Value); err != nil {
				return storeerr.Wrap(storeerr.StoreIOError, err, "set in batch")
			}
		}
	}
	good = true
	if err := is.db.Commit(); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "commit batch")
	}
	return nil
}

func (is *kvis) Close() error {
	if err := is.db.Close(); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "close")
	}
	return nil
}
