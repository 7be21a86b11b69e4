package storage

import "github.com/patrickfrey/strus-sub004/txn"

// Transaction wraps a txn.Transaction with the bookkeeping only the
// storage client can do: serializing commits against concurrent ones
// (spec.md §5's commit mutex), invalidating the shared metadata-block
// cache after a successful commit, and releasing this transaction's
// slot in the live-transaction counter exactly once however it ends.
type Transaction struct {
	*txn.Transaction
	s    *Storage
	done bool
}

// Commit serializes against any other committing transaction on the
// same store, then delegates to the underlying Transaction. A commit
// invalidates the whole shared metadata-block cache (see
// readhandle.MetaCache.InvalidateAll) since the write path does not
// report which blocks it touched.
func (t *Transaction) Commit() error {
	if t.done {
		return nil
	}
	t.s.commitMu.Lock()
	err := t.Transaction.Commit()
	t.s.commitMu.Unlock()
	t.s.metaCache.InvalidateAll()
	t.done = true
	t.s.finish()
	return err
}

// Rollback discards all buffered state, per txn.Transaction.Rollback,
// and releases this transaction's slot in the live-transaction counter.
func (t *Transaction) Rollback() {
	if t.done {
		return
	}
	t.Transaction.Rollback()
	t.done = true
	t.s.finish()
}
