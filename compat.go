package tablekv

// TxnOp is a function that operates on a transaction.
// This is the callback type for View, Update, and RunTxn.
type TxnOp func(txn *Transaction) error

// View executes a read-only transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Environment) View(fn TxnOp) error {
	return e.RunTxn(TxnReadOnly, fn)
}

// Update executes a read-write transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Environment) Update(fn TxnOp) error {
	return e.RunTxn(TxnReadWrite, fn)
}

// RunTxn runs a transaction with the given flags.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Environment) RunTxn(flags TxnFlags, fn TxnOp) error {
	txn := NewTransaction(e, flags)
	if !txn.IsValid() {
		if err := txn.Err(); err != nil {
			return err
		}
		return &Error{Code: InvalidParameter, Message: "environment is not open"}
	}
	defer txn.Close()

	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	if !txn.Commit() {
		return txn.Err()
	}
	return nil
}
