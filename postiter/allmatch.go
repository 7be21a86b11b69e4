package postiter

// NewAllMatchIterator returns a Contains iterator requiring every one
// of subs to match the same document -- the full-cardinality case of
// docnoAllMatchItr.cpp, kept as its own named constructor since it is
// spec.md §4.11's default join for a plain AND-query over document
// sets (no within/sequence proximity constraint involved).
func NewAllMatchIterator(subs []PostingIterator) (*Contains, error) {
	return NewContains(subs, len(subs))
}
