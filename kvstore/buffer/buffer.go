// Package buffer provides a kvstore.KeyValue implementation that buffers
// writes in memory in front of a backing store, flushed as a single
// CommitBatch. No other package of this repository uses it.
//
// Modeled on Perkeep's pkg/sorted/buffer/buffer.go, minus the automatic
// size-triggered flush (the buffer reaches the backing store only when
// Flush is called).
package buffer

import (
	"sync"

	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/kvstore/mem"
)

// KeyValue overlays an in-memory buffer in front of a backing
// kvstore.KeyValue. Reads check the buffer first, then the backing
// store, exactly like buffer.KeyValue.Get.
type KeyValue struct {
	buf, back kvstore.KeyValue

	mu sync.RWMutex
}

// New returns a buffering KeyValue. The buffer itself is an in-memory
// store (kvstore/mem), matching buffer.New's use of an arbitrary
// sorted.KeyValue for the front layer.
func New(back kvstore.KeyValue) *KeyValue {
	return &KeyValue{buf: mem.New(), back: back}
}

func (kv *KeyValue) Get(key []byte) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, err := kv.buf.Get(key)
	if err == nil {
		return v, nil
	}
	if err != kvstore.ErrNotFound {
		return nil, err
	}
	return kv.back.Get(key)
}

func (kv *KeyValue) Set(key, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.buf.Set(key, value)
}

func (kv *KeyValue) Delete(key []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.buf.Delete(key)
}

// Find merges the buffer and the backing store's views of the range
// [lo, hi), preferring the buffer on key collisions (buffer entries are
// more recent, staged-but-uncommitted writes).
func (kv *KeyValue) Find(lo, hi []byte) kvstore.Iterator {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return newMergeIter(kv.buf.Find(lo, hi), kv.back.Find(lo, hi))
}

func (kv *KeyValue) BeginBatch() kvstore.Batch { return kvstore.NewBatch() }

func (kv *KeyValue) CommitBatch(b kvstore.Batch) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for _, m := range b.Mutations() {
		if m.Delete {
			if err := kv.buf.Delete(m.Key); err != nil {
				return err
			}
		} else if err := kv.buf.Set(m.Key, m.Value); err != nil {
			return err
		}
	}
	return nil
}

func (kv *KeyValue) Close() error { return nil }

// Flush replays every buffered mutation onto the backing store as one
// batch, then clears the buffer.
func (kv *KeyValue) Flush() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	back := kv.back.BeginBatch()
	it := kv.buf.Find(nil, nil)
	any := false
	for it.Next() {
		back.Set(it.Key(), it.Value())
		any = true
	}
	if err := it.Close(); err != nil {
		return err
	}
	if !any {
		return nil
	}
	if err := kv.back.CommitBatch(back); err != nil {
		return err
	}
	kv.buf = mem.New()
	return nil
}

// mergeIter walks two already-bounded iterators (buffer, backing) in
// lexical order, preferring the buffer's entry when both have the same
// key (the buffer reflects this transaction's as-yet-uncommitted view).
type mergeIter struct {
	a, b       kvstore.Iterator
	aOK, bOK   bool
	started    bool
	key, value []byte
}

func newMergeIter(a, b kvstore.Iterator) *mergeIter {
	return &mergeIter{a: a, b: b}
}

func (m *mergeIter) Next() bool {
	if !m.started {
		m.started = true
		m.aOK = m.a.Next()
		m.bOK = m.b.Next()
	} else {
		// Advance whichever source(s) produced the last returned key.
		switch {
		case m.aOK && m.bOK && bytesEqual(m.a.Key(), m.b.Key()):
			m.aOK = m.a.Next()
			m.bOK = m.b.Next()
		case m.aOK && (!m.bOK || bytesLess(m.a.Key(), m.b.Key())):
			m.aOK = m.a.Next()
		default:
			m.bOK = m.b.Next()
		}
	}
	switch {
	case m.aOK && m.bOK:
		if !bytesLess(m.b.Key(), m.a.Key()) {
			m.key, m.value = m.a.Key(), m.a.Value()
		} else {
			m.key, m.value = m.b.Key(), m.b.Value()
		}
		return true
	case m.aOK:
		m.key, m.value = m.a.Key(), m.a.Value()
		return true
	case m.bOK:
		m.key, m.value = m.b.Key(), m.b.Value()
		return true
	default:
		return false
	}
}

func (m *mergeIter) Prev() bool {
	// Backward iteration over a merge of two sources is not needed by
	// any caller in this store (merges only drive forward block-chain
	// scans); explicitly unsupported rather than silently wrong.
	return false
}

func (m *mergeIter) Seek(key []byte) bool {
	m.aOK = m.a.Seek(key)
	m.bOK = m.b.Seek(key)
	m.started = true
	return m.Next0()
}

// Next0 re-derives the current key/value after a Seek without advancing
// either source, used once by Seek itself.
func (m *mergeIter) Next0() bool {
	switch {
	case m.aOK && m.bOK:
		if !bytesLess(m.b.Key(), m.a.Key()) {
			m.key, m.value = m.a.Key(), m.a.Value()
		} else {
			m.key, m.value = m.b.Key(), m.b.Value()
		}
		return true
	case m.aOK:
		m.key, m.value = m.a.Key(), m.a.Value()
		return true
	case m.bOK:
		m.key, m.value = m.b.Key(), m.b.Value()
		return true
	default:
		return false
	}
}

func (m *mergeIter) SeekToLast() bool {
	m.aOK = m.a.SeekToLast()
	m.bOK = m.b.SeekToLast()
	m.started = true
	switch {
	case m.aOK && m.bOK:
		if bytesLess(m.a.Key(), m.b.Key()) {
			m.key, m.value = m.b.Key(), m.b.Value()
		} else {
			m.key, m.value = m.a.Key(), m.a.Value()
		}
	case m.aOK:
		m.key, m.value = m.a.Key(), m.a.Value()
	case m.bOK:
		m.key, m.value = m.b.Key(), m.b.Value()
	default:
		return false
	}
	return true
}

func (m *mergeIter) Key() []byte   { return m.key }
func (m *mergeIter) Value() []byte { return m.value }

func (m *mergeIter) Close() error {
	err1 := m.a.Close()
	err2 := m.b.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func bytesLess(a, b []byte) bool {
	return bytesCompare(a, b) < 0
}

func bytesEqual(a, b []byte) bool {
	return bytesCompare(a, b) == 0
}

func bytesCompare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
