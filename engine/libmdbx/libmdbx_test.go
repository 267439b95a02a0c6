package libmdbx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/tablekv/engine"
)

func openEnv(t *testing.T, maxTables int) engine.Env {
	t.Helper()
	d, ok := engine.Lookup(Name)
	require.True(t, ok)
	env, err := d.NewEnv()
	require.NoError(t, err)
	require.NoError(t, env.SetMaxTables(maxTables))
	require.NoError(t, env.SetMapSize(64<<20))
	require.NoError(t, env.Open(t.TempDir(), engine.EnvDefaults, 0o644))
	t.Cleanup(func() { env.Close() })
	return env
}

func TestRoundTrip(t *testing.T) {
	env := openEnv(t, 4)

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	id, err := txn.OpenTable("dups", engine.Create|engine.DupSort)
	require.NoError(t, err)

	c, err := txn.OpenCursor(id)
	require.NoError(t, err)
	for _, v := range []string{"2", "1"} {
		require.NoError(t, c.Put([]byte("k"), []byte(v), engine.Upsert))
	}
	err = c.Put([]byte("k"), []byte("1"), engine.NoDupData)
	require.True(t, engine.IsKeyExist(err))
	c.Close()
	require.NoError(t, txn.Commit())

	ro, err := env.BeginTxn(nil, true)
	require.NoError(t, err)
	defer ro.Abort()

	// Flags of an existing table win over the ones passed.
	again, err := ro.OpenTable("dups", engine.TableDefaults)
	require.NoError(t, err)
	c, err = ro.OpenCursor(again)
	require.NoError(t, err)
	defer c.Close()

	_, v, err := c.Get([]byte("k"), nil, engine.Set)
	require.NoError(t, err)
	require.Equal(t, "1", string(v))
	_, v, err = c.Get(nil, nil, engine.NextDup)
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
	_, _, err = c.Get(nil, nil, engine.NextDup)
	require.True(t, engine.IsNotFound(err))

	err = c.Put([]byte("x"), []byte("y"), engine.Upsert)
	require.Equal(t, engine.ErrAccess, engine.CodeOf(err))
}

func TestNested(t *testing.T) {
	env := openEnv(t, 0)

	root, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	defer root.Abort()

	child, err := env.BeginTxn(root, false)
	require.NoError(t, err)
	c, err := child.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	require.NoError(t, c.Put([]byte("k"), []byte("v"), engine.Upsert))
	c.Close()
	require.NoError(t, child.Commit())

	c, err = root.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	defer c.Close()
	_, v, err := c.Get([]byte("k"), nil, engine.Set)
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}

func TestErrors(t *testing.T) {
	env := openEnv(t, 0)

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	defer txn.Abort()

	_, err = txn.OpenTable("named", engine.Create)
	require.Equal(t, engine.ErrDBsFull, engine.CodeOf(err))

	d, _ := engine.Lookup(Name)
	missing, err := d.NewEnv()
	require.NoError(t, err)
	defer missing.Close()
	err = missing.Open(filepath.Join(t.TempDir(), "a", "b"), engine.EnvDefaults, 0o644)
	require.Error(t, err)
	require.True(t, engine.CodeOf(err).IsErrno())
}

func TestOpenTableModes(t *testing.T) {
	env := openEnv(t, 4)

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	defer txn.Abort()

	_, err = txn.OpenTable("missing", engine.TableDefaults)
	require.Equal(t, engine.ErrNotFound, engine.CodeOf(err))

	id, err := txn.OpenTable("rev", engine.Create|engine.ReverseKey|engine.DupSort|engine.ReverseDup)
	require.NoError(t, err)
	flags, err := txn.TableFlags(id)
	require.NoError(t, err)
	require.Equal(t, engine.ReverseKey|engine.DupSort|engine.ReverseDup, flags)

	again, err := txn.OpenTable("rev", engine.Create|engine.IntegerKey)
	require.NoError(t, err)
	require.Equal(t, id, again)
	flags, err = txn.TableFlags(again)
	require.NoError(t, err)
	require.Equal(t, engine.ReverseKey|engine.DupSort|engine.ReverseDup, flags)
}

func TestNotFound(t *testing.T) {
	env := openEnv(t, 0)

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	defer txn.Abort()
	c, err := txn.OpenCursor(engine.MainTable)
	require.NoError(t, err)
	defer c.Close()

	_, _, err = c.Get(nil, nil, engine.First)
	require.Equal(t, engine.ErrNotFound, engine.CodeOf(err))
	_, _, err = c.Get([]byte("absent"), nil, engine.SetKey)
	require.True(t, engine.IsNotFound(err))
}

func TestDupEndsReturnKey(t *testing.T) {
	env := openEnv(t, 2)

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	defer txn.Abort()
	id, err := txn.OpenTable("dups", engine.Create|engine.DupSort)
	require.NoError(t, err)
	c, err := txn.OpenCursor(id)
	require.NoError(t, err)
	defer c.Close()

	for _, kv := range [][2]string{{"a", "1"}, {"a", "2"}, {"b", "3"}} {
		require.NoError(t, c.Put([]byte(kv[0]), []byte(kv[1]), engine.Upsert))
	}
	_, _, err = c.Get([]byte("a"), []byte("2"), engine.GetBoth)
	require.NoError(t, err)

	k, v, err := c.Get(nil, nil, engine.FirstDup)
	require.NoError(t, err)
	require.Equal(t, "a", string(k))
	require.Equal(t, "1", string(v))

	k, v, err = c.Get(nil, nil, engine.LastDup)
	require.NoError(t, err)
	require.Equal(t, "a", string(k))
	require.Equal(t, "2", string(v))
}
