// Package tablekv is a transaction, table and cursor layer over an
// embedded memory-mapped key-value store.
//
// An Environment owns one storage region rooted at a path. Transactions
// run on an environment, read-only or read-write, and can be nested.
// Tables are named sub-stores with their own key order and optional
// multiple sorted values per key. Cursors position inside one table of
// one transaction and are the only way to read ranges and to write.
//
// Failures are not returned as errors: operations return a boolean or a
// FindResult, and every handle keeps its last error, available through
// LastError, LastErrorString and Err.
//
// The storage engine is pluggable. "mdbx" (libmdbx) is the default;
// "bolt" (bbolt) and "memory" are pure Go.
//
// Basic usage:
//
//	env := tablekv.NewEnvironment(tablekv.WithPath("/path/to/db"), tablekv.WithMaxTables(8))
//	defer env.Close()
//	if !env.Open() {
//	    log.Fatal(env.LastErrorString())
//	}
//
//	users := tablekv.OpenTable(env, "users")
//	defer users.Close()
//
//	txn := tablekv.NewTransaction(env, tablekv.TxnReadWrite)
//	c := tablekv.NewCursor(txn, users)
//	c.Put([]byte("alice"), []byte("admin"))
//	c.Close()
//	if !txn.Commit() {
//	    log.Fatal(txn.LastErrorString())
//	}
//
//	fmt.Printf("%s\n", users.Get([]byte("alice")))
package tablekv
