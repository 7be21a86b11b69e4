package block

import (
	"math"

	"github.com/patrickfrey/strus-sub004/ids"
	"github.com/patrickfrey/strus-sub004/meta"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// MetaRecordsPerBlock is the fixed number of document records packed
// into one MetaBlock, per spec.md §3.
const MetaRecordsPerBlock = 64

// MetaBlockID returns the block id containing docno: doc>>6 + 1.
func MetaBlockID(docno ids.Docno) uint32 {
	return uint32(docno>>6) + 1
}

// MetaRecordIndex returns the in-block record slot for docno: doc&63.
func MetaRecordIndex(docno ids.Docno) int {
	return int(docno & (MetaRecordsPerBlock - 1))
}

// MetaBlock is an immutable batch of MetaRecordsPerBlock fixed-width
// records, one per document, laid out back to back per the description's
// aligned record size. Grounded on metaDataBlock.{hpp,cpp}.
type MetaBlock struct {
	id   uint32
	desc *meta.Description
	data []byte // MetaRecordsPerBlock * desc.Bytesize()
}

// ID returns the block id.
func (b *MetaBlock) ID() uint32 { return b.id }

// recordOffset returns the byte offset of recIdx's record.
func (b *MetaBlock) recordOffset(recIdx int) int { return recIdx * b.desc.Bytesize() }

// GetValue reads column handle's raw value for record recIdx as a
// float64 (the common numeric representation used by the restriction
// evaluator), per spec.md §7.
func (b *MetaBlock) GetValue(recIdx int, handle int) (float64, error) {
	col, err := b.desc.Get(handle)
	if err != nil {
		return 0, err
	}
	off := b.recordOffset(recIdx) + col.Ofs
	if off+col.Type.Size() > len(b.data) {
		return 0, storeerr.New(storeerr.IntegrityError, "metadata block: record out of range")
	}
	return decodeMetaValue(col.Type, b.data[off:off+col.Type.Size()]), nil
}

func decodeMetaValue(t meta.Type, raw []byte) float64 {
	switch t {
	case meta.Int8:
		return float64(int8(raw[0]))
	case meta.UInt8:
		return float64(raw[0])
	case meta.Int16:
		return float64(int16(readU16(raw)))
	case meta.UInt16:
		return float64(readU16(raw))
	case meta.Int32:
		return float64(int32(readU32(raw)))
	case meta.UInt32:
		return float64(readU32(raw))
	case meta.Float16:
		return float64(decodeFloat16(readU16(raw)))
	case meta.Float32:
		return float64(math.Float32frombits(readU32(raw)))
	}
	return 0
}

func encodeMetaValue(t meta.Type, v float64, out []byte) {
	switch t {
	case meta.Int8:
		out[0] = byte(int8(v))
	case meta.UInt8:
		out[0] = byte(uint8(v))
	case meta.Int16:
		copy(out, appendU16(nil, uint16(int16(v))))
	case meta.UInt16:
		copy(out, appendU16(nil, uint16(v)))
	case meta.Int32:
		copy(out, appendU32(nil, uint32(int32(v))))
	case meta.UInt32:
		copy(out, appendU32(nil, uint32(v)))
	case meta.Float16:
		copy(out, appendU16(nil, encodeFloat16(float32(v))))
	case meta.Float32:
		copy(out, appendU32(nil, math.Float32bits(float32(v))))
	}
}

// decodeFloat16/encodeFloat16 implement IEEE-754 binary16, used for the
// Float16 column type (spec.md §7's epsilon-aware comparisons operate on
// the float32-widened value).
func decodeFloat16(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h) & 0x3FF
	var f32 uint32
	switch {
	case exp == 0:
		if frac == 0 {
			f32 = sign << 31
		} else {
			// subnormal half -> normalized float32
			e := 0
			for frac&0x400 == 0 {
				frac <<= 1
				e--
			}
			frac &= 0x3FF
			exp32 := uint32(127 - 15 + e + 1)
			f32 = sign<<31 | exp32<<23 | frac<<13
		}
	case exp == 0x1F:
		f32 = sign<<31 | 0xFF<<23 | frac<<13
	default:
		f32 = sign<<31 | (exp-15+127)<<23 | frac<<13
	}
	return math.Float32frombits(f32)
}

func encodeFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23) & 0xFF
	frac := bits & 0x7FFFFF
	switch {
	case exp == 0xFF:
		if frac != 0 {
			return sign | 0x7E00 // NaN
		}
		return sign | 0x7C00 // Inf
	case exp-127+15 >= 0x1F:
		return sign | 0x7C00 // overflow -> Inf
	case exp-127+15 <= 0:
		return sign // underflow -> 0 (subnormal support not needed for restriction epsilon use)
	default:
		return sign | uint16(exp-127+15)<<10 | uint16(frac>>13)
	}
}

// MetaBuilder accumulates one MetaBlock's worth of per-document records.
type MetaBuilder struct {
	id     uint32
	desc   *meta.Description
	data   []byte
	filled [MetaRecordsPerBlock]bool
}

// NewMetaBuilder starts a builder for block id, under description desc.
// All records start zero-valued.
func NewMetaBuilder(id uint32, desc *meta.Description) *MetaBuilder {
	return &MetaBuilder{id: id, desc: desc, data: make([]byte, MetaRecordsPerBlock*desc.Bytesize())}
}

// SetValue writes column handle's value for record recIdx.
func (b *MetaBuilder) SetValue(recIdx int, handle int, value float64) error {
	if recIdx < 0 || recIdx >= MetaRecordsPerBlock {
		return storeerr.New(storeerr.OutOfRange, "metadata record index out of range")
	}
	col, err := b.desc.Get(handle)
	if err != nil {
		return err
	}
	off := recIdx*b.desc.Bytesize() + col.Ofs
	encodeMetaValue(col.Type, value, b.data[off:off+col.Type.Size()])
	b.filled[recIdx] = true
	return nil
}

// CreateBlock freezes the builder into an immutable MetaBlock.
func (b *MetaBuilder) CreateBlock() *MetaBlock {
	return &MetaBlock{id: b.id, desc: b.desc, data: append([]byte(nil), b.data...)}
}

// ToBuilder reopens an immutable MetaBlock for in-place patching (every
// existing record is already considered filled), used by mapbuilder's
// Metadata builder to apply a handful of column writes to an otherwise
// unchanged block without rebuilding it from scratch.
func (b *MetaBlock) ToBuilder() *MetaBuilder {
	filled := [MetaRecordsPerBlock]bool{}
	for i := range filled {
		filled[i] = true
	}
	return &MetaBuilder{id: b.id, desc: b.desc, data: append([]byte(nil), b.data...), filled: filled}
}

// Marshal encodes the block's raw record bytes (the description itself
// is stored separately, under the MetaDescr key family).
func (b *MetaBlock) Marshal() []byte { return append([]byte(nil), b.data...) }

// UnmarshalMeta decodes a MetaBlock from its on-disk payload.
func UnmarshalMeta(id uint32, desc *meta.Description, data []byte) (*MetaBlock, error) {
	want := MetaRecordsPerBlock * desc.Bytesize()
	if len(data) != want {
		return nil, storeerr.Newf(storeerr.IntegrityError, "metadata block: size %d, want %d", len(data), want)
	}
	return &MetaBlock{id: id, desc: desc, data: append([]byte(nil), data...)}, nil
}

// Rewrite produces a new MetaBlock under newDesc, copying every column
// that survives the translation (by name, unchanged type) from b and
// zero-initializing every column that is new, reset, or changed type,
// per spec.md §4's metadata rewrite operation and
// MetaDataBlockMap's alter-table path.
func (b *MetaBlock) Rewrite(newDesc *meta.Description) *MetaBlock {
	trans := b.desc.TranslationMap(newDesc)
	nb := &MetaBlock{id: b.id, desc: newDesc, data: make([]byte, MetaRecordsPerBlock*newDesc.Bytesize())}
	for rec := 0; rec < MetaRecordsPerBlock; rec++ {
		for _, tr := range trans {
			if tr.To == nil {
				continue
			}
			srcOff := rec*b.desc.Bytesize() + tr.From.Ofs
			dstOff := rec*newDesc.Bytesize() + tr.To.Ofs
			sz := tr.From.Type.Size()
			copy(nb.data[dstOff:dstOff+sz], b.data[srcOff:srcOff+sz])
		}
	}
	return nb
}
