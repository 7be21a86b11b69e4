package block

import (
	"sort"
	"unicode/utf8"

	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// ForwardSoftLimitBytes is the soft size limit used for ForwardBlocks,
// consistent with the other block families' 1024-byte soft limit
// (spec.md §3 states it explicitly only for posting/docset blocks; this
// store applies the same limit uniformly).
const ForwardSoftLimitBytes = 1024

// ForwardMarker is the reserved byte separating consecutive term
// strings in a ForwardBlock's payload (spec.md §6).
const ForwardMarker = 0xFE

// ForwardEntry is one (position, term) pair of a forward index.
type ForwardEntry struct {
	Position uint16
	Term     string
}

// ForwardBlock is an immutable chunk of a (type, doc) forward index: a
// contiguous run of (position, term-string) pairs, ordered by position.
// Its key (block id) is its largest contained position.
type ForwardBlock struct {
	entries []ForwardEntry
}

// ID returns the block id: the block's largest position.
func (b *ForwardBlock) ID() uint16 {
	if len(b.entries) == 0 {
		return 0
	}
	return b.entries[len(b.entries)-1].Position
}

// Empty reports whether the block holds no entries.
func (b *ForwardBlock) Empty() bool { return len(b.entries) == 0 }

// Entries returns the block's entries in ascending position order. The
// returned slice must not be mutated.
func (b *ForwardBlock) Entries() []ForwardEntry { return b.entries }

// FirstPos returns the block's smallest position, or 0 if empty.
func (b *ForwardBlock) FirstPos() uint16 {
	if len(b.entries) == 0 {
		return 0
	}
	return b.entries[0].Position
}

// Skip returns the least entry with Position >= pos, or (zero, false)
// if none exists in this block.
func (b *ForwardBlock) Skip(pos uint16) (ForwardEntry, bool) {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].Position >= pos })
	if i >= len(b.entries) {
		return ForwardEntry{}, false
	}
	return b.entries[i], true
}

// ForwardBuilder accumulates (position, term) pairs for a ForwardBlock
// under construction.
type ForwardBuilder struct {
	entries []ForwardEntry
	strBy   int
}

// NewForwardBuilder returns an empty ForwardBlock builder.
func NewForwardBuilder() *ForwardBuilder { return &ForwardBuilder{} }

// Append adds one (position, term) pair. Positions must be strictly
// ascending. term must be valid UTF-8 and must not contain the reserved
// marker byte.
func (b *ForwardBuilder) Append(pos uint16, term string) error {
	if !utf8.ValidString(term) {
		return storeerr.New(storeerr.InvalidArgument, "forward index: term is not valid UTF-8")
	}
	for i := 0; i < len(term); i++ {
		if term[i] == ForwardMarker {
			return storeerr.New(storeerr.InvalidArgument, "forward index: term contains reserved marker byte")
		}
	}
	if len(b.entries) > 0 && pos <= b.entries[len(b.entries)-1].Position {
		return storeerr.Newf(storeerr.IntegrityError, "forward index: position %d out of order", pos)
	}
	b.entries = append(b.entries, ForwardEntry{Position: pos, Term: term})
	b.strBy += len(term) + 1
	return nil
}

// Size estimates the serialized byte size.
func (b *ForwardBuilder) Size() int {
	return len(b.entries)*3 /* worst-case packed delta */ + b.strBy
}

// Fits reports whether one more entry of the given term length would
// keep the block under the soft limit.
func (b *ForwardBuilder) Fits(termLen int) bool {
	return b.Size()+3+termLen+1 <= ForwardSoftLimitBytes
}

// Full reports whether the soft-limit has been reached.
func (b *ForwardBuilder) Full() bool { return b.Size() >= ForwardSoftLimitBytes }

// Empty reports whether the builder has no staged entries.
func (b *ForwardBuilder) Empty() bool { return len(b.entries) == 0 }

// LastPos returns the last appended position, or 0 if empty.
func (b *ForwardBuilder) LastPos() uint16 {
	if len(b.entries) == 0 {
		return 0
	}
	return b.entries[len(b.entries)-1].Position
}

// CreateBlock freezes the builder into an immutable ForwardBlock.
func (b *ForwardBuilder) CreateBlock() *ForwardBlock {
	return &ForwardBlock{entries: append([]ForwardEntry(nil), b.entries...)}
}

// Marshal encodes the block into the on-disk payload of spec.md §6:
// (packed delta_from_block_id, utf8 string) pairs separated by the
// marker byte.
func (b *ForwardBlock) Marshal() []byte {
	id := b.ID()
	var out []byte
	for _, e := range b.entries {
		delta := uint64(id) - uint64(e.Position)
		out = append(out, codec.PackUint(delta)...)
		out = append(out, e.Term...)
		out = append(out, ForwardMarker)
	}
	return out
}

// UnmarshalForward decodes a ForwardBlock from its on-disk payload. The
// block id must be supplied separately (it is part of the key, not the
// value, per spec.md §6).
func UnmarshalForward(blockID uint16, data []byte) (*ForwardBlock, error) {
	var entries []ForwardEntry
	off := 0
	for off < len(data) {
		delta, n, err := codec.UnpackUint(data[off:])
		if err != nil {
			return nil, err
		}
		off += n
		start := off
		for off < len(data) && data[off] != ForwardMarker {
			off++
		}
		if off >= len(data) {
			return nil, storeerr.New(storeerr.IntegrityError, "forward block: missing marker byte")
		}
		term := string(data[start:off])
		if !utf8.ValidString(term) {
			return nil, storeerr.New(storeerr.IntegrityError, "forward block: term is not valid UTF-8")
		}
		off++ // skip marker
		pos := uint16(uint64(blockID) - delta)
		entries = append(entries, ForwardEntry{Position: pos, Term: term})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return &ForwardBlock{entries: entries}, nil
}
