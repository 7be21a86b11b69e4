// Package codec implements the persistent key layout of spec.md §6: the
// prefix-byte key families and the order-preserving variable-length
// unsigned integer packing every numeric component of a key uses.
//
// The varint scheme is the standard byte-oriented encoding where the
// first byte's magnitude selects the total length and the remaining
// bytes carry the big-endian magnitude, chosen (per spec.md §4.1)
// specifically so that byte-lexical comparison equals numeric
// comparison, which the block-key "ends with block id" prefix scans
// rely on.
package codec

import (
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// PackUint encodes v as an order-preserving variable-length byte string.
// Values 0-240 take one byte; larger values grow the encoding length as
// needed, up to 9 bytes for the full uint64 range.
func PackUint(v uint64) []byte {
	switch {
	case v <= 240:
		return []byte{byte(v)}
	case v <= 2287:
		v -= 241
		return []byte{241 + byte(v>>8), byte(v)}
	case v <= 67823:
		v -= 2288
		return []byte{249, byte(v >> 8), byte(v)}
	case v <= 1<<24-1:
		return []byte{250, byte(v >> 16), byte(v >> 8), byte(v)}
	case v <= 1<<32-1:
		return []byte{251, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case v <= 1<<40-1:
		return []byte{252, byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case v <= 1<<48-1:
		return []byte{253, byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case v <= 1<<56-1:
		return []byte{254, byte(v >> 48), byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		return []byte{255, byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

// UnpackUint decodes the value PackUint produced at the start of b,
// returning the value and the number of bytes consumed.
func UnpackUint(b []byte) (v uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, storeerr.New(storeerr.IntegrityError, "packed integer: empty input")
	}
	a0 := b[0]
	need := func(extra int) error {
		if len(b) < 1+extra {
			return storeerr.Newf(storeerr.IntegrityError, "packed integer: truncated (need %d bytes, have %d)", 1+extra, len(b))
		}
		return nil
	}
	switch {
	case a0 <= 240:
		return uint64(a0), 1, nil
	case a0 <= 248:
		if err := need(1); err != nil {
			return 0, 0, err
		}
		return 241 + (uint64(a0)-241)*256 + uint64(b[1]), 2, nil
	case a0 == 249:
		if err := need(2); err != nil {
			return 0, 0, err
		}
		return 2288 + uint64(b[1])<<8 + uint64(b[2]), 3, nil
	case a0 == 250:
		if err := need(3); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3]), 4, nil
	case a0 == 251:
		if err := need(4); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4]), 5, nil
	case a0 == 252:
		if err := need(5); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<32 | uint64(b[2])<<24 | uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5]), 6, nil
	case a0 == 253:
		if err := need(6); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<40 | uint64(b[2])<<32 | uint64(b[3])<<24 | uint64(b[4])<<16 | uint64(b[5])<<8 | uint64(b[6]), 7, nil
	case a0 == 254:
		if err := need(7); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 | uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7]), 8, nil
	default: // 255
		if err := need(8); err != nil {
			return 0, 0, err
		}
		return uint64(b[1])<<56 | uint64(b[2])<<48 | uint64(b[3])<<40 | uint64(b[4])<<32 | uint64(b[5])<<24 | uint64(b[6])<<16 | uint64(b[7])<<8 | uint64(b[8]), 9, nil
	}
}

// PackUint32 and PackUint16 are convenience wrappers for the identifier
// and position types, which are never wider than 32 or 16 bits
// respectively.
func PackUint32(v uint32) []byte { return PackUint(uint64(v)) }
func PackUint16(v uint16) []byte { return PackUint(uint64(v)) }

func UnpackUint32(b []byte) (uint32, int, error) {
	v, n, err := UnpackUint(b)
	if err != nil {
		return 0, 0, err
	}
	if v > 1<<32-1 {
		return 0, 0, storeerr.New(storeerr.OutOfRange, "packed integer overflows 32 bits")
	}
	return uint32(v), n, nil
}
