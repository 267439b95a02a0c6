package memdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/tablekv/engine"
)

func openEnv(t *testing.T, setup func(*Env)) *Env {
	t.Helper()
	env := NewEnv()
	if setup != nil {
		setup(env)
	}
	require.NoError(t, env.Open(t.TempDir(), engine.EnvDefaults, 0o644))
	t.Cleanup(func() { env.Close() })
	return env
}

func begin(t *testing.T, env *Env, parent engine.Txn, readOnly bool) engine.Txn {
	t.Helper()
	txn, err := env.BeginTxn(parent, readOnly)
	require.NoError(t, err)
	return txn
}

func putPair(t *testing.T, txn engine.Txn, id engine.TableID, k, v string) {
	t.Helper()
	c, err := txn.OpenCursor(id)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Put([]byte(k), []byte(v), engine.Upsert))
}

func getKey(txn engine.Txn, id engine.TableID, k string) (string, error) {
	c, err := txn.OpenCursor(id)
	if err != nil {
		return "", err
	}
	defer c.Close()
	_, v, err := c.Get([]byte(k), nil, engine.Set)
	return string(v), err
}

func TestDriverRegistered(t *testing.T) {
	d, ok := engine.Lookup(Name)
	require.True(t, ok)
	env, err := d.NewEnv()
	require.NoError(t, err)
	require.IsType(t, &Env{}, env)
}

func TestOpenErrors(t *testing.T) {
	env := NewEnv()
	err := env.Open(t.TempDir()+"/missing", engine.EnvDefaults, 0o644)
	require.Equal(t, engine.ErrNoEnt, engine.CodeOf(err))

	dir := t.TempDir()
	first := NewEnv()
	require.NoError(t, first.Open(dir, engine.EnvDefaults, 0o644))
	defer first.Close()

	second := NewEnv()
	err = second.Open(dir, engine.EnvDefaults, 0o644)
	require.Equal(t, engine.ErrAgain, engine.CodeOf(err))

	require.Equal(t, engine.ErrInval, engine.CodeOf(first.SetMaxTables(4)))
	require.Equal(t, engine.ErrInval, engine.CodeOf(first.Open(dir, engine.EnvDefaults, 0o644)))
}

func TestCommitVisibility(t *testing.T) {
	env := openEnv(t, func(e *Env) { require.NoError(t, e.SetMaxTables(4)) })

	w := begin(t, env, nil, false)
	id, err := w.OpenTable("t", engine.Create)
	require.NoError(t, err)
	putPair(t, w, id, "k", "v1")

	// A reader started before the commit keeps its snapshot.
	r := begin(t, env, nil, true)
	require.NoError(t, w.Commit())

	_, err = r.OpenTable("t", engine.TableDefaults)
	require.True(t, engine.IsNotFound(err))
	r.Abort()

	r = begin(t, env, nil, true)
	defer r.Abort()
	v, err := getKey(r, id, "k")
	require.NoError(t, err)
	require.Equal(t, "v1", v)
}

func TestAbortDiscards(t *testing.T) {
	env := openEnv(t, nil)

	w := begin(t, env, nil, false)
	putPair(t, w, engine.MainTable, "k", "v")
	w.Abort()
	w.Abort()
	require.Equal(t, engine.ErrBadTxn, engine.CodeOf(w.Commit()))

	r := begin(t, env, nil, true)
	defer r.Abort()
	_, err := getKey(r, engine.MainTable, "k")
	require.True(t, engine.IsNotFound(err))
}

func TestNestedTransactions(t *testing.T) {
	env := openEnv(t, nil)

	root := begin(t, env, nil, false)
	putPair(t, root, engine.MainTable, "a", "root")

	child := begin(t, env, root, false)
	putPair(t, child, engine.MainTable, "b", "child")

	// The parent is unusable while the child is active.
	_, err := root.OpenCursor(engine.MainTable)
	require.Equal(t, engine.ErrBadTxn, engine.CodeOf(err))

	child.Abort()
	_, err = getKey(root, engine.MainTable, "b")
	require.True(t, engine.IsNotFound(err))

	child = begin(t, env, root, false)
	putPair(t, child, engine.MainTable, "c", "child")
	require.NoError(t, child.Commit())

	v, err := getKey(root, engine.MainTable, "c")
	require.NoError(t, err)
	require.Equal(t, "child", v)

	// Finishing the parent aborts an active child.
	child = begin(t, env, root, false)
	putPair(t, child, engine.MainTable, "d", "lost")
	require.NoError(t, root.Commit())
	require.Equal(t, engine.ErrBadTxn, engine.CodeOf(child.Commit()))

	r := begin(t, env, nil, true)
	defer r.Abort()
	_, err = getKey(r, engine.MainTable, "d")
	require.True(t, engine.IsNotFound(err))
	v, err = getKey(r, engine.MainTable, "c")
	require.NoError(t, err)
	require.Equal(t, "child", v)

	_, err = env.BeginTxn(r, false)
	require.Equal(t, engine.ErrIncompatible, engine.CodeOf(err))
}

func TestTableLimits(t *testing.T) {
	env := openEnv(t, nil)

	w := begin(t, env, nil, false)
	defer w.Abort()
	_, err := w.OpenTable("named", engine.Create)
	require.Equal(t, engine.ErrDBsFull, engine.CodeOf(err))

	id, err := w.OpenTable("", engine.TableDefaults)
	require.NoError(t, err)
	require.Equal(t, engine.MainTable, id)
}

func TestTableFlagsKept(t *testing.T) {
	env := openEnv(t, func(e *Env) { require.NoError(t, e.SetMaxTables(2)) })

	w := begin(t, env, nil, false)
	id, err := w.OpenTable("dups", engine.Create|engine.DupSort)
	require.NoError(t, err)
	putPair(t, w, id, "k", "1")
	putPair(t, w, id, "k", "2")

	again, err := w.OpenTable("dups", engine.Create)
	require.NoError(t, err)
	require.Equal(t, id, again)
	flags, err := w.TableFlags(again)
	require.NoError(t, err)
	require.Equal(t, engine.DupSort, flags)

	c, err := w.OpenCursor(again)
	require.NoError(t, err)
	_, _, err = c.Get([]byte("k"), nil, engine.Set)
	require.NoError(t, err)
	_, v, err := c.Get(nil, nil, engine.NextDup)
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
	c.Close()

	_, err = w.OpenTable("bad", engine.Create|engine.DupFixed)
	require.Equal(t, engine.ErrInval, engine.CodeOf(err))

	require.NoError(t, w.DropTable(id, true))
	_, err = w.OpenCursor(id)
	require.Equal(t, engine.ErrBadDBI, engine.CodeOf(err))
	_, err = w.TableFlags(id)
	require.Equal(t, engine.ErrBadDBI, engine.CodeOf(err))

	single, err := w.OpenTable("dups", engine.Create)
	require.NoError(t, err)
	putPair(t, w, single, "k", "1")
	putPair(t, w, single, "k", "2")
	v2, err := getKey(w, single, "k")
	require.NoError(t, err)
	require.Equal(t, "2", v2)
	require.NoError(t, w.Commit())
}

func TestClearTable(t *testing.T) {
	env := openEnv(t, func(e *Env) { require.NoError(t, e.SetMaxTables(2)) })

	w := begin(t, env, nil, false)
	a, err := w.OpenTable("a", engine.Create)
	require.NoError(t, err)
	b, err := w.OpenTable("b", engine.Create)
	require.NoError(t, err)
	putPair(t, w, a, "k", "a")
	putPair(t, w, b, "k", "b")

	require.NoError(t, w.DropTable(a, false))
	_, err = getKey(w, a, "k")
	require.True(t, engine.IsNotFound(err))
	v, err := getKey(w, b, "k")
	require.NoError(t, err)
	require.Equal(t, "b", v)
	require.NoError(t, w.Commit())
}

func TestMapFull(t *testing.T) {
	env := openEnv(t, func(e *Env) { require.NoError(t, e.SetMapSize(1024)) })

	w := begin(t, env, nil, false)
	defer w.Abort()
	c, err := w.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put([]byte("small"), make([]byte, 100), engine.Upsert))
	err = c.Put([]byte("large"), make([]byte, 2048), engine.Upsert)
	require.Equal(t, engine.ErrMapFull, engine.CodeOf(err))

	// Replacing a value only charges the difference.
	require.NoError(t, c.Put([]byte("small"), make([]byte, 900), engine.Upsert))
}

func TestReadersFull(t *testing.T) {
	env := openEnv(t, func(e *Env) { require.NoError(t, e.SetMaxReaders(2)) })

	n, err := env.MaxReaders()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	r1 := begin(t, env, nil, true)
	r2 := begin(t, env, nil, true)
	_, err = env.BeginTxn(nil, true)
	require.Equal(t, engine.ErrReadersFull, engine.CodeOf(err))

	require.NoError(t, r1.Commit())
	r3 := begin(t, env, nil, true)
	r2.Abort()
	r3.Abort()
}

func TestReadOnlyWrites(t *testing.T) {
	env := openEnv(t, nil)

	r := begin(t, env, nil, true)
	defer r.Abort()
	require.True(t, r.ReadOnly())

	c, err := r.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, engine.ErrAccess, engine.CodeOf(c.Put([]byte("k"), []byte("v"), engine.Upsert)))

	_, err = r.OpenTable("new", engine.Create)
	require.Equal(t, engine.ErrAccess, engine.CodeOf(err))
}

func TestCursorAfterCommit(t *testing.T) {
	env := openEnv(t, nil)

	w := begin(t, env, nil, false)
	c, err := w.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	require.NoError(t, c.Put([]byte("k"), []byte("v"), engine.Upsert))
	require.NoError(t, w.Commit())

	_, _, err = c.Get(nil, nil, engine.First)
	require.Equal(t, engine.ErrBadTxn, engine.CodeOf(err))
	c.Close()
}
