// Package leveldb provides a kvstore.KeyValue implementation on top of a
// single mutable database directory on disk using
// github.com/syndtr/goleveldb. Modeled on Perkeep's
// pkg/sorted/leveldb/leveldb.go, which wraps the same library (there
// vendored under third_party, here imported directly since it is a real
// public module and appears in the teacher's go.mod).
package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

func init() {
	kvstore.RegisterEngine("leveldb", newFromConfig)
}

// NewStorage is a convenience that opens a leveldb-backed KeyValue at
// the given directory path, bypassing the config-string registry.
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
	opts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.StoreIOError, err, "opening leveldb store at "+path)
	}
	return &kv{db: db}, nil
}

type kv struct {
	db *leveldb.DB
}

func (k *kv) Get(key []byte) ([]byte, error) {
	v, err := k.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, storeerr.Wrap(storeerr.StoreIOError, err, "get")
	}
	return v, nil
}

func (k *kv) Set(key, value []byte) error {
	if err := k.db.Put(key, value, nil); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "put")
	}
	return nil
}

func (k *kv) Delete(key []byte) error {
	if err := k.db.Delete(key, nil); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "delete")
	}
	return nil
}

func (k *kv) Find(lo, hi []byte) kvstore.Iterator {
	r := &util.Range{Start: lo}
	if hi != nil {
		r.Limit = hi
	}
	it := k.db.NewIterator(r, nil)
	return &iter{it: it}
}

type iter struct {
	it iterator.Iterator
}

func (i *iter) Next() bool {
	return i.it.Next()
}

func (i *iter) Prev() bool {
	return i.it.Prev()
}

func (i *iter) Seek(key []byte) bool {
	return i.it.Seek(key)
}

func (i *iter) SeekToLast() bool {
	return i.it.Last()
}

func (i *iter) Key() []byte   { return i.it.Key() }
func (i *iter) Value() []byte { return i.it.Value() }

func (i *iter) Close() error {
	i.it.Release()
	return i.it.Error()
}

func (k *kv) BeginBatch() kvstore.Batch {
	return kvstore.NewBatch()
}

func (k *kv) CommitBatch(b kvstore.Batch) error {
	lb := new(leveldb.Batch)
	for _, m := range b.Mutations() {
		if m.Delete {
			lb.Delete(m.Key)
		} else {
			lb.Put(m.Key, m.Value)
		}
	}
	if err := k.db.Write(lb, nil); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "commit batch")
	}
	return nil
}

func (k *kv) Close() error {
	if err := k.db.Close(); err != nil {
		return storeerr.Wrap(storeerr.StoreIOError, err, "close")
	}
	return nil
}
