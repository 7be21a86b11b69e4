// Package mem provides an in-memory kvstore.KeyValue, for tests and
// development. Modeled on Perkeep's pkg/sorted.memKeys/memIter, but over
// a sorted []entry + binary search instead of a vendored leveldb-go
// memdb (not present in the retrieval pack).
package mem

import (
	"bytes"
	"sort"
	"sync"

	"github.com/patrickfrey/strus-sub004/kvstore"
)

func init() {
	kvstore.RegisterEngine("mem", func(cfg kvstore.Config) (kvstore.KeyValue, error) {
		return New(), nil
	})
}

type entry struct {
	key, val []byte
}

// memKV is a naive in-memory implementation of kvstore.KeyValue.
type memKV struct {
	mu      sync.RWMutex
	entries []entry // sorted by key
}

// New returns a kvstore.KeyValue backed only by memory.
func New() kvstore.KeyValue {
	return &memKV{}
}

func (m *memKV) find(key []byte) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return bytes.Compare(m.entries[i].key, key) >= 0
	})
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.find(key)
	if i < len(m.entries) && bytes.Equal(m.entries[i].key, key) {
		return append([]byte(nil), m.entries[i].val...), nil
	}
	return nil, kvstore.ErrNotFound
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *memKV) setLocked(key, value []byte) {
	i := m.find(key)
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	if i < len(m.entries) && bytes.Equal(m.entries[i].key, key) {
		m.entries[i].val = v
		return
	}
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry{key: k, val: v}
}

func (m *memKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key)
	return nil
}

func (m *memKV) deleteLocked(key []byte) {
	i := m.find(key)
	if i < len(m.entries) && bytes.Equal(m.entries[i].key, key) {
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
	}
}

func (m *memKV) Find(lo, hi []byte) kvstore.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Copy the entries: setLocked/deleteLocked modify m.entries' backing
	// array in place (deleteLocked shifts the tail down), so the iterator
	// gets its own copy for true point-in-time semantics.
	snap := append([]entry(nil), m.entries...)
	start := sort.Search(len(snap), func(i int) bool {
		return bytes.Compare(snap[i].key, lo) >= 0
	})
	return &memIter{entries: snap, pos: start - 1, hi: hi}
}

type memIter struct {
	entries []entry
	pos     int
	hi      []byte
}

func (it *memIter) Next() bool {
	if it.pos+1 >= len(it.entries) {
		it.pos = len(it.entries)
		return false
	}
	it.pos++
	if it.hi != nil && bytes.Compare(it.entries[it.pos].key, it.hi) >= 0 {
		it.pos = len(it.entries)
		return false
	}
	return true
}

func (it *memIter) Prev() bool {
	if it.pos <= 0 {
		it.pos = -1
		return false
	}
	it.pos--
	return true
}

func (it *memIter) Seek(key []byte) bool {
	i := sort.Search(len(it.entries), func(i int) bool {
		return bytes.Compare(it.entries[i].key, key) >= 0
	})
	it.pos = i
	if i >= len(it.entries) {
		return false
	}
	if it.hi != nil && bytes.Compare(it.entries[i].key, it.hi) >= 0 {
		it.pos = len(it.entries)
		return false
	}
	return true
}

func (it *memIter) SeekToLast() bool {
	end := len(it.entries)
	if it.hi != nil {
		end = sort.Search(len(it.entries), func(i int) bool {
			return bytes.Compare(it.entries[i].key, it.hi) >= 0
		})
	}
	if end == 0 {
		it.pos = -1
		return false
	}
	it.pos = end - 1
	return true
}

func (it *memIter) Key() []byte   { return it.entries[it.pos].key }
func (it *memIter) Value() []byte { return it.entries[it.pos].val }
func (it *memIter) Close() error  { return nil }

func (m *memKV) BeginBatch() kvstore.Batch { return kvstore.NewBatch() }

func (m *memKV) CommitBatch(b kvstore.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mu := range b.Mutations() {
		if mu.Delete {
			m.deleteLocked(mu.Key)
		} else {
			m.setLocked(mu.Key, mu.Value)
		}
	}
	return nil
}

func (m *memKV) Close() error { return nil }
