package mapbuilder

import (
	"github.com/patrickfrey/strus-sub004/block"
	"github.com/patrickfrey/strus-sub004/codec"
	"github.com/patrickfrey/strus-sub004/kvstore"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// loadPostingChain reads every PostingBlock currently stored under
// prefix, in ascending block-id order.
func loadPostingChain(kv kvstore.KeyValue, prefix []byte) ([]*block.PostingBlock, error) {
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var out []*block.PostingBlock
	for it.Next() {
		b, err := block.Unmarshal(it.Value())
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "mapbuilder: corrupt posting block")
		}
		out = append(out, b)
	}
	return out, nil
}

// loadDocsetChain reads every DocSetBlock currently stored under prefix,
// in ascending block-id order.
func loadDocsetChain(kv kvstore.KeyValue, prefix []byte) ([]*block.DocSetBlock, error) {
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var out []*block.DocSetBlock
	for it.Next() {
		b, err := block.UnmarshalDocSet(it.Value())
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "mapbuilder: corrupt docset block")
		}
		out = append(out, b)
	}
	return out, nil
}

// loadForwardChain reads every ForwardBlock currently stored under
// prefix, in ascending block-id (max position) order. The block id is
// not fixed-width in the key -- it's the order-preserving packed varint
// trailing prefix (codec.PackUint16) -- so it's decoded from the bytes
// following prefix rather than assumed to occupy a fixed byte count.
func loadForwardChain(kv kvstore.KeyValue, prefix []byte) ([]*block.ForwardBlock, error) {
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var out []*block.ForwardBlock
	for it.Next() {
		id, _, err := codec.UnpackUint(it.Key()[len(prefix):])
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "mapbuilder: corrupt forward block key")
		}
		b, err := block.UnmarshalForward(uint16(id), it.Value())
		if err != nil {
			return nil, storeerr.Wrap(storeerr.IntegrityError, err, "mapbuilder: corrupt forward block")
		}
		out = append(out, b)
	}
	return out, nil
}

// replacePostingChain stages the deletion of every key in oldKeys not
// reused by newChain, and the write of every block in newChain, into b.
// keyFn builds a chain member's storage key from its block id.
func replacePostingChain(b kvstore.Batch, oldKeys [][]byte, newChain []*block.PostingBlock, keyFn func(id uint32) []byte) {
	keep := make(map[string]bool, len(newChain))
	for _, blk := range newChain {
		k := keyFn(uint32(blk.ID()))
		keep[string(k)] = true
		b.Set(k, blk.Marshal())
	}
	for _, k := range oldKeys {
		if !keep[string(k)] {
			b.Delete(k)
		}
	}
}

func replaceDocsetChain(b kvstore.Batch, oldKeys [][]byte, newChain []*block.DocSetBlock, keyFn func(id uint32) []byte) {
	keep := make(map[string]bool, len(newChain))
	for _, blk := range newChain {
		k := keyFn(blk.ID())
		keep[string(k)] = true
		b.Set(k, blk.Marshal())
	}
	for _, k := range oldKeys {
		if !keep[string(k)] {
			b.Delete(k)
		}
	}
}

func replaceForwardChain(b kvstore.Batch, oldKeys [][]byte, newChain []*block.ForwardBlock, keyFn func(id uint16) []byte) {
	keep := make(map[string]bool, len(newChain))
	for _, blk := range newChain {
		k := keyFn(blk.ID())
		keep[string(k)] = true
		b.Set(k, blk.Marshal())
	}
	for _, k := range oldKeys {
		if !keep[string(k)] {
			b.Delete(k)
		}
	}
}

// collectKeys gathers every key currently stored under prefix, for the
// "delete what's no longer reused" half of a chain rebuild.
func collectKeys(kv kvstore.KeyValue, prefix []byte) ([][]byte, error) {
	it := kvstore.RangeScan(kv, prefix)
	defer it.Close()
	var out [][]byte
	for it.Next() {
		out = append(out, append([]byte(nil), it.Key()...))
	}
	return out, nil
}
