package restriction

import (
	"testing"

	"github.com/patrickfrey/strus-sub004/meta"
)

type fakeRecord map[int]float64

func (r fakeRecord) GetValue(handle int) (float64, error) { return r[handle], nil }

func newTestDescription(t *testing.T) *meta.Description {
	t.Helper()
	d := meta.NewDescription()
	if err := d.Add(meta.Int32, "age"); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(meta.Float32, "score"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestAndOfOrAcrossGroups(t *testing.T) {
	d := newTestDescription(t)
	r := NewRestriction(d)
	ageHandle, _ := d.Handle("age")
	scoreHandle, _ := d.Handle("score")

	// group 1 (OR): age < 10 OR age > 100
	if err := r.AddTerm(ageHandle, Less, 10, true); err != nil {
		t.Fatal(err)
	}
	if err := r.AddTerm(ageHandle, Greater, 100, false); err != nil {
		t.Fatal(err)
	}
	// group 2 (OR, single term, AND with group 1): score == 5
	if err := r.AddTerm(scoreHandle, Equal, 5, true); err != nil {
		t.Fatal(err)
	}

	rec := fakeRecord{ageHandle: 200, scoreHandle: 5}
	ok, err := r.Matches(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected match: age=200 satisfies group 1, score=5 satisfies group 2")
	}

	rec2 := fakeRecord{ageHandle: 50, scoreHandle: 5}
	ok2, err := r.Matches(rec2)
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("expected no match: age=50 satisfies neither term of group 1")
	}
}

func TestFloat32ComparisonUsesEpsilon(t *testing.T) {
	d := newTestDescription(t)
	r := NewRestriction(d)
	scoreHandle, _ := d.Handle("score")
	if err := r.AddTerm(scoreHandle, Equal, 1.0, true); err != nil {
		t.Fatal(err)
	}

	rec := fakeRecord{scoreHandle: 1.0 + float32Epsilon/2}
	ok, err := r.Matches(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a value within epsilon/2 to compare equal")
	}

	rec2 := fakeRecord{scoreHandle: 1.1}
	ok2, err := r.Matches(rec2)
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("expected a value well outside epsilon to compare unequal")
	}
}

func TestIntegerOperandOutOfRangeRejectedAtCompileTime(t *testing.T) {
	d := newTestDescription(t)
	r := NewRestriction(d)
	ageHandle, _ := d.Handle("age")
	if err := r.AddTerm(ageHandle, Equal, 1e18, true); err == nil {
		t.Fatal("expected an error for an operand outside Int32's range")
	}
}

func TestNotEqualIsExactInverseOfEqual(t *testing.T) {
	d := newTestDescription(t)
	r := NewRestriction(d)
	ageHandle, _ := d.Handle("age")
	if err := r.AddTerm(ageHandle, NotEqual, 42, true); err != nil {
		t.Fatal(err)
	}
	rec := fakeRecord{ageHandle: 42}
	ok, err := r.Matches(rec)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected age == 42 to fail a != 42 restriction")
	}
	rec2 := fakeRecord{ageHandle: 43}
	ok2, err := r.Matches(rec2)
	if err != nil {
		t.Fatal(err)
	}
	if !ok2 {
		t.Fatal("expected age == 43 to satisfy a != 42 restriction")
	}
}
