package tablekv

import (
	"github.com/Giulio2002/tablekv/engine"
)

// Transaction is a read-only or read-write unit of work on an
// Environment, optionally nested inside a parent. It must only be used by
// the goroutine that created it.
//
// A transaction is finalized exactly once by Commit or Abort. Close
// commits a transaction that is still active, so callers wanting to
// discard their work must call Abort first. Finalizing a parent
// finalizes an active child the same way: Commit commits it and Abort
// aborts it.
type Transaction struct {
	errorState
	env      *Environment
	parent   *Transaction
	child    *Transaction
	txn      engine.Txn
	readOnly bool
	valid    bool

	// pending is set by Commit on a read-only transaction; the snapshot
	// stays readable until Close.
	pending bool

	cursors []*Cursor

	// tables first opened in this transaction; they are invalidated if
	// it does not commit
	tables []*tableState
}

// NewTransaction begins a root transaction. The transaction is invalid,
// with no error recorded, if env is not open.
func NewTransaction(env *Environment, flags TxnFlags) *Transaction {
	t := &Transaction{env: env, readOnly: flags&TxnReadOnly != 0}
	if env == nil || !env.IsOpen() {
		return t
	}
	t.begin(nil)
	return t
}

// NewNestedTransaction begins a child of parent. The child's writes
// reach the parent when it commits and are durable once every ancestor
// has committed. The transaction is invalid, with no error recorded, if
// parent is not valid.
func NewNestedTransaction(parent *Transaction, flags TxnFlags) *Transaction {
	t := &Transaction{readOnly: flags&TxnReadOnly != 0}
	if parent == nil || !parent.IsValid() {
		return t
	}
	t.env = parent.env
	t.parent = parent
	t.begin(parent.txn)
	if t.valid {
		parent.child = t
	}
	return t
}

func (t *Transaction) begin(parent engine.Txn) {
	s := t.env.state()
	txn, err := s.env.BeginTxn(parent, t.readOnly)
	if err != nil {
		t.setError(restrict(err, Panic, MapResized, ReadersFull, OutOfMemory, Busy, BadTransaction, Incompatible))
		return
	}
	t.txn = txn
	t.valid = true
}

// IsValid reports whether the transaction is active.
func (t *Transaction) IsValid() bool {
	return t != nil && t.valid
}

// IsReadOnly reports whether the transaction was begun read-only.
func (t *Transaction) IsReadOnly() bool {
	return t.readOnly
}

// Environment returns the environment the transaction runs on.
func (t *Transaction) Environment() *Environment {
	return t.env
}

// Parent returns the parent of a nested transaction, or nil.
func (t *Transaction) Parent() *Transaction {
	return t.parent
}

// Commit commits the transaction, committing an active child first. On
// failure the transaction is invalidated anyway. Calling Commit or Abort on a finalized transaction
// returns false without recording an error.
func (t *Transaction) Commit() bool {
	if !t.IsValid() {
		return false
	}
	if child := t.takeChild(); child != nil && !child.Commit() {
		t.setError(child.Err())
		t.abort()
		return false
	}

	if t.readOnly {
		t.valid = false
		t.pending = true
		t.detach()
		t.keepTables()
		t.clearError()
		return true
	}

	t.invalidateCursors()
	err := t.txn.Commit()
	t.valid = false
	t.detach()
	if err != nil {
		t.dropTables()
		t.setError(restrict(err, InvalidParameter, OutOfDiskSpace, IOError, OutOfMemory, MapFull, TooManyTransactions, BadTransaction))
		t.env.logger().WithError(err).Warn("transaction commit failed")
		return false
	}
	t.keepTables()
	t.clearError()
	return true
}

// Abort discards the transaction's writes, including those of an active
// child. Tables first opened in the transaction become invalid.
func (t *Transaction) Abort() bool {
	if !t.IsValid() {
		return false
	}
	t.abort()
	t.clearError()
	return true
}

func (t *Transaction) abort() {
	if child := t.takeChild(); child != nil {
		child.Abort()
	}
	t.invalidateCursors()
	t.txn.Abort()
	t.valid = false
	t.detach()
	t.dropTables()
}

// Close commits the transaction if it is still active and releases a
// committed read-only snapshot.
func (t *Transaction) Close() {
	if t == nil {
		return
	}
	if t.valid {
		t.env.logger().WithField("read_only", t.readOnly).Warn("transaction closed while active, committing")
		t.Commit()
	}
	if t.pending {
		t.pending = false
		t.invalidateCursors()
		if err := t.txn.Commit(); err != nil {
			t.setError(err)
		}
	}
}

// takeChild detaches the child of t and returns it if it is still
// active.
func (t *Transaction) takeChild() *Transaction {
	child := t.child
	t.child = nil
	if child == nil || !child.valid {
		return nil
	}
	return child
}

func (t *Transaction) track(s *tableState) {
	t.tables = append(t.tables, s)
}

// keepTables settles the tables opened in a committed transaction: a
// child hands them to its parent, whose outcome decides.
func (t *Transaction) keepTables() {
	if t.parent != nil && !t.readOnly {
		t.parent.tables = append(t.parent.tables, t.tables...)
	}
	t.tables = nil
}

func (t *Transaction) dropTables() {
	for _, s := range t.tables {
		s.invalidate()
	}
	t.tables = nil
}

func (t *Transaction) detach() {
	if t.parent != nil && t.parent.child == t {
		t.parent.child = nil
	}
}

func (t *Transaction) register(c *Cursor) {
	t.cursors = append(t.cursors, c)
}

func (t *Transaction) unregister(c *Cursor) {
	for i, other := range t.cursors {
		if other == c {
			last := len(t.cursors) - 1
			t.cursors[i] = t.cursors[last]
			t.cursors[last] = nil
			t.cursors = t.cursors[:last]
			return
		}
	}
}

func (t *Transaction) invalidateCursors() {
	for _, c := range t.cursors {
		c.invalidate()
	}
	t.cursors = nil
}
