// Package kvstore is the thin facade over an ordered byte-keyed store that
// everything above it (codec, block, mapbuilder, txn, postiter) is built
// on. It never itself understands term postings, documents or metadata —
// only bytes, in lexical order.
//
// The interface and its registry are modeled directly on Perkeep's
// pkg/sorted.KeyValue, with two differences: keys and values here are
// []byte rather than string (the persisted layout in this store is
// declared byte-exact, not text), and Find takes an explicit upper bound
// rather than relying on callers to know where a prefix scan ends.
package kvstore

import (
	"go4.org/strutil"

	"github.com/patrickfrey/strus-sub004/storeerr"
)

// ErrNotFound is returned by Get when the key is absent. It is the one
// place in this store where a miss is reported as an error value rather
// than a sentinel zero id -- mirroring sorted.ErrNotFound.
var ErrNotFound = storeerr.New(storeerr.InvalidArgument, "key not found")

// KeyValue is a sorted, enumerable key-value interface supporting batched
// atomic writes. Implementations must provide read-snapshot semantics for
// iterators: an Iterator created at time T must not observe writes
// committed after T (see spec.md §5 "Ordering guarantees").
type KeyValue interface {
	// Get returns ErrNotFound if key is absent.
	Get(key []byte) ([]byte, error)

	Set(key, value []byte) error
	Delete(key []byte) error

	// Find returns an iterator positioned before the first key >= lo.
	// If hi is non-nil, the iterator stops once Key() >= hi.
	Find(lo, hi []byte) Iterator

	BeginBatch() Batch
	CommitBatch(b Batch) error

	Close() error
}

// RangeScan returns an Iterator over every key sharing the given prefix,
// in key order -- the "range_scan(prefix) -> cursor" operation of
// spec.md §4.1. It is a convenience wrapper around Find using the
// standard prefix-upper-bound trick (increment the last byte that isn't
// already 0xFF, dropping the ones after it).
func RangeScan(kv KeyValue, prefix []byte) Iterator {
	return kv.Find(prefix, prefixUpperBound(prefix))
}

func prefixUpperBound(prefix []byte) []byte {
	hi := append([]byte(nil), prefix...)
	for i := len(hi) - 1; i >= 0; i-- {
		if hi[i] != 0xFF {
			hi[i]++
			return hi[:i+1]
		}
	}
	// prefix is all 0xFF bytes (or empty): no upper bound.
	return nil
}

// Iterator iterates over a KeyValue's key/value pairs in key order. It
// supports forward and backward motion plus random seeks, per spec.md
// §4.1 ("seek, next, prev, seek_to_last").
//
// An iterator must be Closed after use. It is not goroutine-safe, but
// distinct iterators over the same KeyValue may be used concurrently
// from distinct goroutines.
type Iterator interface {
	// Next advances to the next key/value pair. Returns false when
	// exhausted (or when the upper bound, if any, is reached).
	Next() bool
	// Prev moves to the previous key/value pair. Returns false when
	// iteration would move before the first pair (or before the lower
	// bound, if any).
	Prev() bool
	// Seek repositions the iterator at the first key >= key. Returns
	// false if no such key exists within bounds.
	Seek(key []byte) bool
	// SeekToLast repositions the iterator at the last key within
	// bounds. Returns false if the range is empty.
	SeekToLast() bool

	// Key and Value are only valid after a positioning call returned
	// true. The returned slices must not be retained past the next
	// positioning call.
	Key() []byte
	Value() []byte

	Close() error
}

// Batch accumulates Set/Delete operations for one atomic CommitBatch.
// Later operations on the same key within a batch override earlier ones,
// per spec.md §5 ("later mutations in the staged maps override earlier
// ones on the same key").
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	// Mutations returns the accumulated ops in application order, for
	// implementations (and tests) that need to replay a batch.
	Mutations() []Mutation
}

// Mutation is one operation inside a Batch.
type Mutation struct {
	Key    []byte
	Value  []byte // unused if Delete
	Delete bool
}

type batch struct {
	ops []Mutation
}

// NewBatch returns a backend-agnostic Batch implementation, for backends
// that don't need a native batch type (mirrors sorted.NewBatchMutation).
func NewBatch() Batch { return &batch{} }

func (b *batch) Set(key, value []byte) {
	b.ops = append(b.ops, Mutation{Key: append([]byte(nil), key...), Value: append([]byte(nil), value...)})
}

func (b *batch) Delete(key []byte) {
	b.ops = append(b.ops, Mutation{Key: append([]byte(nil), key...), Delete: true})
}

func (b *batch) Mutations() []Mutation { return b.ops }

// Config is a parsed store-config-string ("path=<path>;key=value;...").
// Modeled on pkg/jsonconfig.Obj's accessor style, adapted to the
// semicolon-separated form of spec.md §6's CLI surface instead of JSON.
type Config map[string]string

// ParseConfig parses a store-config-string of the form
// "path=<path>[;key=value...]".
func ParseConfig(s string) (Config, error) {
	cfg := make(Config)
	if s == "" {
		return nil, storeerr.New(storeerr.IncompleteDefinition, "empty store-config-string")
	}
	for _, part := range splitSemicolons(s) {
		if part == "" {
			continue
		}
		eq := indexByte(part, '=')
		if eq < 0 {
			return nil, storeerr.Newf(storeerr.InvalidArgument, "malformed config segment %q, expected key=value", part)
		}
		cfg[part[:eq]] = part[eq+1:]
	}
	if _, ok := cfg["path"]; !ok {
		return nil, storeerr.New(storeerr.IncompleteDefinition, "store-config-string missing required \"path\" key")
	}
	return cfg, nil
}

func splitSemicolons(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// RequiredString returns cfg[key], or an error if absent.
func (cfg Config) RequiredString(key string) (string, error) {
	v, ok := cfg[key]
	if !ok {
		return "", storeerr.Newf(storeerr.IncompleteDefinition, "missing required config key %q", key)
	}
	return v, nil
}

// OptionalString returns cfg[key], or def if absent.
func (cfg Config) OptionalString(key, def string) string {
	if v, ok := cfg[key]; ok {
		return v
	}
	return def
}

// OptionalInt returns cfg[key] parsed as an integer, or def if absent.
// Uses strutil.ParseUintBytes directly on the config value's bytes,
// mirroring pkg/index/corpus.go's avoid-a-stringify-roundtrip idiom for
// parsing small integers out of store-config-string values.
func (cfg Config) OptionalInt(key string, def int) (int, error) {
	v, ok := cfg[key]
	if !ok {
		return def, nil
	}
	n, err := strutil.ParseUintBytes([]byte(v), 10, 64)
	if err != nil {
		return 0, storeerr.Newf(storeerr.InvalidArgument, "config key %q: not an integer: %q", key, v)
	}
	return int(n), nil
}

// ctors is the backend registry, mirroring pkg/sorted's RegisterKeyValue/
// NewKeyValue: backend packages (kvstore/leveldb, kvstore/kvfile,
// kvstore/mem) register a constructor in their init().
var ctors = make(map[string]func(Config) (KeyValue, error))

// RegisterEngine registers a KeyValue constructor under the given
// "engine" config key value.
func RegisterEngine(name string, fn func(Config) (KeyValue, error)) {
	if name == "" || fn == nil {
		panic("kvstore: zero engine name or constructor")
	}
	if _, dup := ctors[name]; dup {
		panic("kvstore: duplicate registration of engine " + name)
	}
	ctors[name] = fn
}

// Open parses a store-config-string and dispatches to the registered
// engine named by the "engine" key (default "leveldb").
func Open(storeConfigString string) (KeyValue, error) {
	cfg, err := ParseConfig(storeConfigString)
	if err != nil {
		return nil, err
	}
	engine := cfg.OptionalString("engine", "leveldb")
	ctor, ok := ctors[engine]
	if !ok {
		return nil, storeerr.Newf(storeerr.InvalidArgument, "unknown storage engine %q", engine)
	}
	return ctor(cfg)
}
