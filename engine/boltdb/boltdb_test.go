package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/tablekv/engine"
)

func openEnv(t *testing.T, dir string, setup func(*Env)) *Env {
	t.Helper()
	env := NewEnv()
	if setup != nil {
		setup(env)
	}
	require.NoError(t, env.Open(dir, engine.EnvDefaults, 0o644))
	return env
}

func begin(t *testing.T, env *Env, readOnly bool) engine.Txn {
	t.Helper()
	txn, err := env.BeginTxn(nil, readOnly)
	require.NoError(t, err)
	return txn
}

func cursor(t *testing.T, txn engine.Txn, id engine.TableID) engine.Cursor {
	t.Helper()
	c, err := txn.OpenCursor(id)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func collect(t *testing.T, c engine.Cursor) []string {
	t.Helper()
	var got []string
	for k, v, err := c.Get(nil, nil, engine.First); err == nil; k, v, err = c.Get(nil, nil, engine.Next) {
		got = append(got, string(k)+"="+string(v))
	}
	return got
}

func TestDriverRegistered(t *testing.T) {
	d, ok := engine.Lookup(Name)
	require.True(t, ok)
	require.Equal(t, Name, d.Name())
}

func TestEncodeKeyOrder(t *testing.T) {
	keys := [][]byte{{2}, {1}, {0}, {0, 0}, {0, 1}, {1, 0}, {5, 0}, {5}, {5, 1}}
	for _, a := range keys {
		for _, b := range keys {
			want := compareBytes(a, b)
			got := compareBytes(encodeDup(a, nil), encodeDup(b, nil))
			require.Equal(t, want, got, "%v vs %v", a, b)

			if want < 0 {
				require.Negative(t, compareBytes(encodeDupUpper(a), encodeDup(b, nil)), "%v upper vs %v", a, b)
			}
		}
		require.Positive(t, compareBytes(encodeDupUpper(a), encodeDup(a, []byte{0xff, 0xff})))

		k, v := decodeDup(encodeDup(a, []byte("val")))
		require.Equal(t, a, k)
		require.Equal(t, "val", string(v))
	}
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	env := openEnv(t, dir, func(e *Env) { require.NoError(t, e.SetMaxTables(4)) })

	w := begin(t, env, false)
	id, err := w.OpenTable("dups", engine.Create|engine.DupSort)
	require.NoError(t, err)
	c := cursor(t, w, id)
	for _, v := range []string{"3", "1", "2"} {
		require.NoError(t, c.Put([]byte("k"), []byte(v), engine.Upsert))
	}
	require.NoError(t, c.Put([]byte("k\x00"), []byte("z"), engine.Upsert))
	require.NoError(t, w.Commit())
	require.NoError(t, env.Close())

	env = openEnv(t, dir, func(e *Env) { require.NoError(t, e.SetMaxTables(4)) })
	defer env.Close()

	r := begin(t, env, true)
	defer r.Abort()
	again, err := r.OpenTable("dups", engine.TableDefaults)
	require.NoError(t, err)
	require.Equal(t, id, again)
	flags, err := r.TableFlags(again)
	require.NoError(t, err)
	require.Equal(t, engine.DupSort, flags)
	require.Equal(t, []string{"k=1", "k=2", "k=3", "k\x00=z"}, collect(t, cursor(t, r, again)))
}

func TestDupNavigation(t *testing.T) {
	env := openEnv(t, t.TempDir(), func(e *Env) { require.NoError(t, e.SetMaxTables(1)) })
	defer env.Close()

	w := begin(t, env, false)
	defer w.Abort()
	id, err := w.OpenTable("dups", engine.Create|engine.DupSort)
	require.NoError(t, err)
	c := cursor(t, w, id)
	for _, kv := range [][2]string{{"a", "1"}, {"b", "1"}, {"b", "2"}, {"c", "1"}} {
		require.NoError(t, c.Put([]byte(kv[0]), []byte(kv[1]), engine.Upsert))
	}

	k, v, err := c.Get([]byte("b"), nil, engine.Set)
	require.NoError(t, err)
	require.Equal(t, "b=1", string(k)+"="+string(v))

	_, v, err = c.Get(nil, nil, engine.LastDup)
	require.NoError(t, err)
	require.Equal(t, "2", string(v))

	k, _, err = c.Get(nil, nil, engine.NextNoDup)
	require.NoError(t, err)
	require.Equal(t, "c", string(k))

	k, v, err = c.Get(nil, nil, engine.PrevNoDup)
	require.NoError(t, err)
	require.Equal(t, "b=2", string(k)+"="+string(v))

	require.NoError(t, c.Del(engine.AllDups))
	require.Equal(t, []string{"a=1", "c=1"}, collect(t, c))
}

func TestReserve(t *testing.T) {
	env := openEnv(t, t.TempDir(), nil)
	defer env.Close()

	w := begin(t, env, false)
	c := cursor(t, w, engine.MainTable)
	buf, err := c.Reserve([]byte("k"), 5, engine.Reserve)
	require.NoError(t, err)
	copy(buf, "hello")
	require.NoError(t, w.Commit())

	r := begin(t, env, true)
	defer r.Abort()
	_, v, err := cursor(t, r, engine.MainTable).Get([]byte("k"), nil, engine.Set)
	require.NoError(t, err)
	require.Equal(t, "hello", string(v))
}

func TestNestedUnsupported(t *testing.T) {
	env := openEnv(t, t.TempDir(), nil)
	defer env.Close()

	w := begin(t, env, false)
	defer w.Abort()
	_, err := env.BeginTxn(w, false)
	require.Equal(t, engine.ErrIncompatible, engine.CodeOf(err))
}

func TestLocked(t *testing.T) {
	dir := t.TempDir()
	env := openEnv(t, dir, nil)
	defer env.Close()

	err := NewEnv().Open(dir, engine.EnvDefaults, 0o644)
	require.Equal(t, engine.ErrAgain, engine.CodeOf(err))

	err = NewEnv().Open(filepath.Join(dir, "missing"), engine.EnvDefaults, 0o644)
	require.Equal(t, engine.ErrNoEnt, engine.CodeOf(err))
}

func TestLimits(t *testing.T) {
	env := openEnv(t, t.TempDir(), func(e *Env) {
		require.NoError(t, e.SetMapSize(64<<10))
		require.NoError(t, e.SetMaxReaders(1))
	})
	defer env.Close()

	w := begin(t, env, false)
	_, err := w.OpenTable("named", engine.Create)
	require.Equal(t, engine.ErrDBsFull, engine.CodeOf(err))

	c := cursor(t, w, engine.MainTable)
	err = c.Put([]byte("big"), make([]byte, 128<<10), engine.Upsert)
	require.Equal(t, engine.ErrMapFull, engine.CodeOf(err))
	w.Abort()

	r := begin(t, env, true)
	_, err = env.BeginTxn(nil, true)
	require.Equal(t, engine.ErrReadersFull, engine.CodeOf(err))
	r.Abort()
	require.Equal(t, engine.ErrBadTxn, engine.CodeOf(r.Commit()))
}

func TestDropTable(t *testing.T) {
	env := openEnv(t, t.TempDir(), func(e *Env) { require.NoError(t, e.SetMaxTables(1)) })
	defer env.Close()

	w := begin(t, env, false)
	id, err := w.OpenTable("t", engine.Create|engine.DupSort)
	require.NoError(t, err)
	c := cursor(t, w, id)
	require.NoError(t, c.Put([]byte("k"), []byte("v"), engine.Upsert))

	require.NoError(t, w.DropTable(id, false))
	require.Empty(t, collect(t, cursor(t, w, id)))

	require.NoError(t, w.DropTable(id, true))
	_, err = w.OpenCursor(id)
	require.Equal(t, engine.ErrBadDBI, engine.CodeOf(err))
	_, err = w.OpenTable("t", engine.TableDefaults)
	require.True(t, engine.IsNotFound(err))

	// The slot is free again.
	_, err = w.OpenTable("u", engine.Create)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
}
