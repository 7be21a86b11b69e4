// Package restriction implements the metadata restriction engine: a
// CNF (AND-of-OR) evaluator over typed metadata columns, per spec.md
// §4.10. Grounded on original_source/src/lvdbstorage/metaDataRestriction.hpp
// (the flat term list with a newGroup boundary flag, rather than a
// nested group-of-groups structure) and
// tests/metaDataRestrictions/src/testMetaDataRestrictions.cpp, which is
// the only place in the pack the comparison-operator set
// (strus::QueryInterface::CompareOperator) and the floating-point
// epsilon constants actually appear.
package restriction

import (
	"math"

	"github.com/patrickfrey/strus-sub004/meta"
	"github.com/patrickfrey/strus-sub004/storeerr"
)

// Operator is one of the six comparisons a restriction term may apply,
// grounded on strus::QueryInterface::CompareOperator.
type Operator int

const (
	Less Operator = iota
	LessEqual
	Equal
	NotEqual
	Greater
	GreaterEqual
)

func (o Operator) String() string {
	switch o {
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// float16Epsilon is close to the IEEE half-precision relative machine
// epsilon (2^-11 = 0.00048828125), the literal testMetaDataRestrictions.cpp uses to perturb
// Float16 operands just inside or outside a comparison boundary.
const float16Epsilon = 0.0004887581

// float32Epsilon is go's equivalent of std::numeric_limits<float>::epsilon(),
// the smallest float32 value x for which 1+x != 1 (2^-23).
const float32Epsilon = 1.1920929e-7

// Term compares one metadata column, by declaration handle, to a
// constant operand.
type Term struct {
	Handle  int
	Op      Operator
	Operand float64
	colType meta.Type
}

// Record is a single metadata record's typed column accessor, the
// shape block.MetaBlock.GetValue's (recIdx, handle) signature reduces
// to once a record index has been fixed -- readhandle's metadata
// reader adapts a MetaBlock plus a docno's record index into this.
type Record interface {
	GetValue(handle int) (float64, error)
}

// Restriction is a flat list of terms with newGroup boundaries, the
// same shape MetaDataRestriction::push_back builds up: consecutive
// terms with newGroup == false belong to the same OR-group; a term
// with newGroup == true starts a fresh group. Groups are ANDed.
type Restriction struct {
	desc   *meta.Description
	groups [][]Term
}

// NewRestriction returns an empty restriction validated against desc's
// column set.
func NewRestriction(desc *meta.Description) *Restriction {
	return &Restriction{desc: desc}
}

// AddTerm appends one comparison term. newGroup starts a new OR-group;
// otherwise the term joins the most recently started group. The
// operand is validated against handle's column type at this point
// (query compile time, per spec.md §4.10) -- an operand that would
// under/overflow the column's integer range is rejected here rather
// than silently truncated at evaluation time.
func (r *Restriction) AddTerm(handle int, op Operator, operand float64, newGroup bool) error {
	col, err := r.desc.Get(handle)
	if err != nil {
		return err
	}
	if err := checkOperandRange(col.Type, operand); err != nil {
		return err
	}
	term := Term{Handle: handle, Op: op, Operand: operand, colType: col.Type}
	if newGroup || len(r.groups) == 0 {
		r.groups = append(r.groups, []Term{term})
	} else {
		last := len(r.groups) - 1
		r.groups[last] = append(r.groups[last], term)
	}
	return nil
}

// checkOperandRange rejects an operand that cannot be represented by
// t without under/overflow. Integer comparisons never silently
// promote across signed/unsigned -- an out-of-range constant is a
// configuration error, not a wrapped or clamped value. Floating
// columns have no such range rejection: any finite float64 narrows to
// the column's width within the comparison's own epsilon tolerance.
func checkOperandRange(t meta.Type, v float64) error {
	lo, hi, ok := integerRange(t)
	if !ok {
		return nil
	}
	if v < lo || v > hi {
		return storeerr.Newf(storeerr.InvalidArgument,
			"restriction operand %v out of range for column type %s", v, t)
	}
	return nil
}

func integerRange(t meta.Type) (lo, hi float64, ok bool) {
	switch t {
	case meta.Int8:
		return math.MinInt8, math.MaxInt8, true
	case meta.UInt8:
		return 0, math.MaxUint8, true
	case meta.Int16:
		return math.MinInt16, math.MaxInt16, true
	case meta.UInt16:
		return 0, math.MaxUint16, true
	case meta.Int32:
		return math.MinInt32, math.MaxInt32, true
	case meta.UInt32:
		return 0, math.MaxUint32, true
	default:
		return 0, 0, false
	}
}

// Matches evaluates the restriction against rec: every group must have
// at least one satisfied term (OR, short-circuiting on the first
// match), and every group must be satisfied (AND, short-circuiting on
// the first failed group), per spec.md §4.10.
func (r *Restriction) Matches(rec Record) (bool, error) {
	for _, group := range r.groups {
		satisfied := false
		for _, term := range group {
			val, err := rec.GetValue(term.Handle)
			if err != nil {
				return false, err
			}
			if compare(val, term.Operand, term.Op, term.colType) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

// compare applies op to (recordValue, operand) under colType's
// promotion rule: floating columns compare within a type-specific
// epsilon (a value within epsilon of the operand counts as equal, and
// the epsilon shifts the Less/Greater boundary the same way), integer
// and fixed-point columns compare exactly -- every integer column
// type's range fits losslessly in float64, so no promotion rounding is
// needed at comparison time (AddTerm already rejected operands outside
// the column's range).
func compare(recordValue, operand float64, op Operator, colType meta.Type) bool {
	eps := epsilonFor(colType)
	diff := recordValue - operand
	if diff < 0 {
		diff = -diff
	}
	switch op {
	case Equal:
		return diff <= eps
	case NotEqual:
		return diff > eps
	case Less:
		return recordValue < operand-eps
	case LessEqual:
		return recordValue <= operand+eps
	case Greater:
		return recordValue > operand+eps
	case GreaterEqual:
		return recordValue >= operand-eps
	default:
		return false
	}
}

func epsilonFor(t meta.Type) float64 {
	switch t {
	case meta.Float16:
		return float16Epsilon
	case meta.Float32:
		return float32Epsilon
	default:
		return 0
	}
}
