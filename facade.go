package tablekv

// Single-call helpers on Table. The plain variants run in a private
// transaction that is committed before returning, so no other
// transaction may be active on the calling goroutine. The In variants
// run inside the caller's transaction.

// update runs fn in a private read-write transaction, committing when fn
// succeeds.
func (t *Table) update(fn func(txn *Transaction) bool) bool {
	if !t.IsValid() {
		t.setCode(InvalidParameter, "table is not valid")
		return false
	}
	txn := NewTransaction(t.inner.env, TxnReadWrite)
	if !txn.IsValid() {
		t.setTxnError(txn)
		return false
	}
	if !fn(txn) {
		txn.Abort()
		return false
	}
	if !txn.Commit() {
		t.setError(txn.Err())
		return false
	}
	return true
}

// view runs fn in a private read-only transaction.
func (t *Table) view(fn func(txn *Transaction)) bool {
	if !t.IsValid() {
		t.setCode(InvalidParameter, "table is not valid")
		return false
	}
	txn := NewTransaction(t.inner.env, TxnReadOnly)
	if !txn.IsValid() {
		t.setTxnError(txn)
		return false
	}
	fn(txn)
	txn.Abort()
	return true
}

func (t *Table) setTxnError(txn *Transaction) {
	if err := txn.Err(); err != nil {
		t.setError(err)
		return
	}
	t.setCode(InvalidParameter, "environment is not open")
}

// cursor opens a cursor for a helper, recording its failure on t.
func (t *Table) cursor(txn *Transaction) (*Cursor, bool) {
	c := NewCursor(txn, t)
	if !c.IsValid() {
		t.setError(c.Err())
		return c, false
	}
	return c, true
}

// Put writes key and value.
func (t *Table) Put(key, value []byte, flags ...PutFlags) bool {
	return t.update(func(txn *Transaction) bool { return t.PutIn(txn, key, value, flags...) })
}

// PutIn writes key and value inside txn.
func (t *Table) PutIn(txn *Transaction, key, value []byte, flags ...PutFlags) bool {
	c, ok := t.cursor(txn)
	defer c.Close()
	if !ok {
		return false
	}
	if !c.Put(key, value, flags...) {
		t.setError(c.Err())
		return false
	}
	t.clearError()
	return true
}

// Get returns the first value of key, or nil when it is absent.
func (t *Table) Get(key []byte) []byte {
	var value []byte
	t.view(func(txn *Transaction) { value = t.GetIn(txn, key) })
	return value
}

// GetIn returns the first value of key inside txn, or nil when it is
// absent.
func (t *Table) GetIn(txn *Transaction, key []byte) []byte {
	c, ok := t.cursor(txn)
	defer c.Close()
	if !ok {
		return nil
	}
	r := c.FindKey(key)
	if !r.Valid {
		t.setError(c.Err())
		return nil
	}
	t.clearError()
	return r.Value
}

// GetAll returns every value of key in table order. The result is empty,
// not nil, when the key is absent.
func (t *Table) GetAll(key []byte) [][]byte {
	values := [][]byte{}
	t.view(func(txn *Transaction) { values = t.GetAllIn(txn, key) })
	return values
}

// GetAllIn returns every value of key inside txn.
func (t *Table) GetAllIn(txn *Transaction, key []byte) [][]byte {
	values := [][]byte{}
	c, ok := t.cursor(txn)
	defer c.Close()
	if !ok {
		return values
	}
	for r := c.FindKey(key); r.Valid; r = c.NextForCurrentKey() {
		values = append(values, r.Value)
	}
	t.clearError()
	return values
}

// Remove deletes key with every value it has.
func (t *Table) Remove(key []byte) bool {
	return t.update(func(txn *Transaction) bool { return t.RemoveIn(txn, key) })
}

// RemoveIn deletes key with every value it has inside txn.
func (t *Table) RemoveIn(txn *Transaction, key []byte) bool {
	c, ok := t.cursor(txn)
	defer c.Close()
	if !ok {
		return false
	}
	if r := c.FindKey(key); !r.Valid {
		t.setError(c.Err())
		return false
	}
	if !c.Remove(RemoveAll) {
		t.setError(c.Err())
		return false
	}
	t.clearError()
	return true
}

// RemoveValue deletes one key/value pair.
func (t *Table) RemoveValue(key, value []byte) bool {
	return t.update(func(txn *Transaction) bool { return t.RemoveValueIn(txn, key, value) })
}

// RemoveValueIn deletes one key/value pair inside txn.
func (t *Table) RemoveValueIn(txn *Transaction, key, value []byte) bool {
	c, ok := t.cursor(txn)
	defer c.Close()
	if !ok {
		return false
	}
	if r := c.Find(key, value); !r.Valid {
		t.setError(c.Err())
		return false
	}
	if !c.Remove(RemoveCurrent) {
		t.setError(c.Err())
		return false
	}
	t.clearError()
	return true
}
