package tablekv

import (
	"os"
	"testing"
)

// openTestEnv opens an environment on a fresh temporary directory.
func openTestEnv(t *testing.T, driver string, opts ...Option) *Environment {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tablekv-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	base := []Option{
		WithDriver(driver),
		WithPath(tmpDir),
		WithMaxTables(16),
		WithMapSize(64 << 20),
	}
	env := NewEnvironment(append(base, opts...)...)
	if !env.Open() {
		t.Fatalf("Open failed: %s", env.LastErrorString())
	}
	t.Cleanup(env.Close)
	return env
}

// forEachDriver runs fn as a subtest for every registered engine.
func forEachDriver(t *testing.T, fn func(t *testing.T, driver string)) {
	for _, driver := range Drivers() {
		t.Run(driver, func(t *testing.T) {
			fn(t, driver)
		})
	}
}

func mustOpenTable(t *testing.T, env *Environment, name string, flags ...TableFlags) *Table {
	t.Helper()
	table := OpenTable(env, name, flags...)
	if !table.IsValid() {
		t.Fatalf("OpenTable(%q) failed: %s", name, table.LastErrorString())
	}
	t.Cleanup(table.Close)
	return table
}

func mustBegin(t *testing.T, env *Environment, flags TxnFlags) *Transaction {
	t.Helper()
	txn := NewTransaction(env, flags)
	if !txn.IsValid() {
		t.Fatalf("NewTransaction failed: %s", txn.LastErrorString())
	}
	return txn
}

func expectResult(t *testing.T, what string, r FindResult, key, value string) {
	t.Helper()
	if !r.Valid {
		t.Fatalf("%s: got no entry, want %q=%q", what, key, value)
	}
	if string(r.Key) != key || string(r.Value) != value {
		t.Fatalf("%s: got %s, want %q=%q", what, r, key, value)
	}
}

func expectMiss(t *testing.T, what string, c *Cursor, r FindResult) {
	t.Helper()
	if r.Valid {
		t.Fatalf("%s: got %s, want no entry", what, r)
	}
	if len(r.Key) != 0 || len(r.Value) != 0 {
		t.Fatalf("%s: invalid result carries data: %s", what, r)
	}
	if c.LastError() != NotFound {
		t.Fatalf("%s: got error %v, want NotFound", what, c.LastError())
	}
}
