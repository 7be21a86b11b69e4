// Package dfcache is the in-memory document-frequency cache: a
// read-shared/write-exclusive map from (typeno, termno) to the current
// document frequency, kept in sync with the persisted 'f'-family entries
// so query planning (postiter) never has to read the store for df.
//
// Grounded on original_source/src/lvdbstorage/documentFrequencyMap.cpp
// for the delta-accumulate-then-apply-on-commit shape, and on
// pkg/index/corpus.go's sync.RWMutex-guarded map idiom for the Go side.
package dfcache

import (
	"sync"

	"github.com/patrickfrey/strus-sub004/ids"
)

// Cache holds every term's current document frequency.
type Cache struct {
	mu sync.RWMutex
	df map[ids.BlockKey]uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{df: make(map[ids.BlockKey]uint64)}
}

func key(typeno ids.Typeno, termno ids.Termno) ids.BlockKey {
	return ids.NewBlockKey(uint32(typeno), uint32(termno))
}

// Get returns the current document frequency of (typeno, termno), or 0
// if never observed.
func (c *Cache) Get(typeno ids.Typeno, termno ids.Termno) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.df[key(typeno, termno)]
}

// Load installs a known value, used when warming the cache from the
// store's persisted 'f'-family entries at open time.
func (c *Cache) Load(typeno ids.Typeno, termno ids.Termno, df uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.df[key(typeno, termno)] = df
}

// Batch accumulates per-term df deltas produced while staging a
// transaction's write batches, applied atomically to the Cache only
// after the underlying store commit has succeeded -- spec.md §4.6's
// "apply cache deltas" commit step.
type Batch struct {
	deltas map[ids.BlockKey]int64
}

// NewBatch returns an empty delta batch.
func NewBatch() *Batch {
	return &Batch{deltas: make(map[ids.BlockKey]int64)}
}

// Add records that (typeno, termno)'s document frequency changes by
// delta (positive for documents added, negative for documents removed).
func (b *Batch) Add(typeno ids.Typeno, termno ids.Termno, delta int64) {
	b.deltas[key(typeno, termno)] += delta
}

// Empty reports whether the batch has no staged deltas.
func (b *Batch) Empty() bool { return len(b.deltas) == 0 }

// Delta pairs a (typeno, termno) with its staged document-frequency
// change.
type Delta struct {
	Typeno ids.Typeno
	Termno ids.Termno
	Delta  int64
}

// Entries returns every staged delta, for the commit path to fold into
// the persisted 'f'-family counters (documentFrequencyMap.cpp's
// getWriteBatch: read the old value, add the delta, write it back).
func (b *Batch) Entries() []Delta {
	out := make([]Delta, 0, len(b.deltas))
	for k, d := range b.deltas {
		out = append(out, Delta{Typeno: ids.Typeno(k.Hi()), Termno: ids.Termno(k.Lo()), Delta: d})
	}
	return out
}

// Apply adds every staged delta to the cache's current values in one
// write-locked pass. A delta that would drive a df below zero leaves it
// at zero instead.
func (c *Cache) Apply(b *Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, d := range b.deltas {
		nv := int64(c.df[k]) + d
		if nv < 0 {
			nv = 0
		}
		c.df[k] = uint64(nv)
	}
}

// Snapshot returns every (typeno, termno) with a non-zero document
// frequency.
func (c *Cache) Snapshot() map[ids.BlockKey]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[ids.BlockKey]uint64, len(c.df))
	for k, v := range c.df {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
