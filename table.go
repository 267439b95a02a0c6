package tablekv

import (
	"sync"

	"github.com/Giulio2002/tablekv/engine"
)

// tableState is shared by every handle of one live table of an
// environment, including handles opened separately by name.
type tableState struct {
	mu    sync.Mutex
	refs  int
	env   *Environment
	name  string
	id    engine.TableID
	flags TableFlags
	valid bool
}

// invalidate marks every handle of the table invalid and releases its
// engine ID.
func (s *tableState) invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
	if es := s.env.state(); es != nil {
		es.forgetTable(s)
	}
}

// Table is a named sub-store of an Environment. A table handle outlives
// the transaction that opened it and can be used by later transactions
// once that one has committed; it becomes invalid if that transaction
// aborts. Every handle of one table, including those returned by Clone,
// shares its validity.
type Table struct {
	errorState
	inner  *tableState
	closed bool
}

func tableFlags(flags []TableFlags) TableFlags {
	if len(flags) == 0 {
		return DefaultTableFlags
	}
	var f TableFlags
	for _, flag := range flags {
		f |= flag
	}
	return f
}

// OpenTable opens the table name in a private transaction that is
// committed before returning. No other transaction may be active on the
// calling goroutine. The empty name is the unnamed main table. Without
// flags the table is opened with CreateIfMissing.
func OpenTable(env *Environment, name string, flags ...TableFlags) *Table {
	t := &Table{}
	if env == nil || !env.IsOpen() {
		return t
	}
	mode := TxnReadWrite
	if env.Flags().Has(ReadOnly) {
		mode = TxnReadOnly
	}
	txn := NewTransaction(env, mode)
	if !txn.IsValid() {
		t.setError(txn.Err())
		return t
	}
	t.open(txn, name, tableFlags(flags))
	if !t.IsValid() {
		txn.Abort()
		return t
	}
	if !txn.Commit() {
		t.setError(txn.Err())
		t.release()
		t.inner = nil
		return t
	}
	txn.Close()
	return t
}

// OpenTableIn opens the table name inside txn. Flags of an existing
// table are kept and the ones passed are ignored.
func OpenTableIn(txn *Transaction, name string, flags ...TableFlags) *Table {
	t := &Table{}
	if !txn.IsValid() {
		return t
	}
	t.open(txn, name, tableFlags(flags))
	return t
}

func (t *Table) open(txn *Transaction, name string, flags TableFlags) {
	id, err := txn.txn.OpenTable(name, flags.engineFlags())
	if err != nil {
		t.setError(err)
		return
	}
	stored, err := txn.txn.TableFlags(id)
	if err != nil {
		t.setError(err)
		return
	}
	fresh := &tableState{
		refs:  1,
		env:   txn.env.Clone(),
		name:  name,
		id:    id,
		flags: tableFlagsOf(stored),
		valid: true,
	}
	s, registered := txn.env.state().acquireTable(fresh)
	if registered {
		txn.track(s)
	} else {
		fresh.env.Close()
	}
	t.inner = s
	t.clearError()
}

// IsValid reports whether the handle refers to an open table.
func (t *Table) IsValid() bool {
	if t == nil || t.closed || t.inner == nil {
		return false
	}
	t.inner.mu.Lock()
	defer t.inner.mu.Unlock()
	return t.inner.valid
}

// Name returns the table name.
func (t *Table) Name() string {
	if t.inner == nil {
		return ""
	}
	return t.inner.name
}

// Flags returns the flags the table was created with, which differ from
// the ones passed to open an existing table. CreateIfMissing is not
// stored and never reported.
func (t *Table) Flags() TableFlags {
	if t.inner == nil {
		return 0
	}
	return t.inner.flags
}

// Environment returns the environment of the table, or nil.
func (t *Table) Environment() *Environment {
	if t.inner == nil {
		return nil
	}
	return t.inner.env
}

func (t *Table) id() engine.TableID {
	return t.inner.id
}

// Clear deletes every entry and keeps the table. A nil txn runs the
// operation in a private transaction.
func (t *Table) Clear(txn *Transaction) bool {
	return t.drop(txn, false)
}

// Drop deletes every entry and the table itself. Every handle of the
// table becomes invalid, and the name can be opened again with new
// flags. A nil txn runs the operation in a private transaction.
func (t *Table) Drop(txn *Transaction) bool {
	return t.drop(txn, true)
}

func (t *Table) drop(txn *Transaction, del bool) bool {
	if !t.IsValid() {
		t.setCode(InvalidParameter, "table is not valid")
		return false
	}
	if txn == nil {
		return t.update(func(txn *Transaction) bool { return t.drop(txn, del) })
	}
	if !txn.IsValid() {
		t.setCode(InvalidParameter, "transaction is not valid")
		return false
	}
	if err := txn.txn.DropTable(t.id(), del); err != nil {
		t.setError(err)
		return false
	}
	if del {
		t.inner.invalidate()
		t.inner.env.logger().WithField("table", t.inner.name).Debug("table dropped")
	}
	t.clearError()
	return true
}

// Clone returns another handle to the same table.
func (t *Table) Clone() *Table {
	if t == nil || t.closed || t.inner == nil {
		return &Table{closed: true}
	}
	t.inner.mu.Lock()
	t.inner.refs++
	t.inner.mu.Unlock()
	return &Table{inner: t.inner}
}

// Close releases the handle. The table is closed in the engine with the
// last handle.
func (t *Table) Close() {
	if t == nil || t.closed {
		return
	}
	t.closed = true
	t.release()
}

func (t *Table) release() {
	s := t.inner
	if s == nil {
		return
	}
	s.mu.Lock()
	s.refs--
	last := s.refs == 0
	s.mu.Unlock()
	if !last {
		return
	}
	if es := s.env.state(); es != nil {
		es.releaseTable(s)
	}
	s.env.Close()
}
