// Package tests checks that the pure-Go engines behave like libmdbx for
// the cursor operations tablekv uses.
package tests

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/tablekv/engine"
	_ "github.com/Giulio2002/tablekv/engine/boltdb"
	_ "github.com/Giulio2002/tablekv/engine/libmdbx"
	_ "github.com/Giulio2002/tablekv/engine/memdb"
)

const reference = "mdbx"

type result struct {
	k, v string
	code engine.Code
}

func (r result) String() string {
	if r.code != 0 {
		return r.code.String()
	}
	return fmt.Sprintf("%q=%q", r.k, r.v)
}

// side is one engine under test: an open write transaction and a cursor.
type side struct {
	name string
	env  engine.Env
	txn  engine.Txn
	cur  engine.Cursor
}

func openSide(t *testing.T, driver string, flags engine.TableFlags) *side {
	t.Helper()
	d, ok := engine.Lookup(driver)
	require.True(t, ok, driver)
	env, err := d.NewEnv()
	require.NoError(t, err)
	require.NoError(t, env.SetMaxTables(4))
	require.NoError(t, env.SetMapSize(64<<20))
	require.NoError(t, env.Open(t.TempDir(), engine.EnvDefaults, 0o644))

	txn, err := env.BeginTxn(nil, false)
	require.NoError(t, err)
	id, err := txn.OpenTable("compat", engine.Create|flags)
	require.NoError(t, err)
	cur, err := txn.OpenCursor(id)
	require.NoError(t, err)

	s := &side{name: driver, env: env, txn: txn, cur: cur}
	t.Cleanup(func() {
		s.cur.Close()
		s.txn.Abort()
		s.env.Close()
	})
	return s
}

// current reads the cursor position after a successful op. Seek ops may
// not return the key they were given, so positions are compared through
// GetCurrent.
func (s *side) current() result {
	k, v, err := s.cur.Get(nil, nil, engine.GetCurrent)
	return result{k: string(k), v: string(v), code: engine.CodeOf(err)}
}

func (s *side) get(op engine.Op, key, val []byte) result {
	_, _, err := s.cur.Get(key, val, op)
	if err != nil {
		return result{code: engine.CodeOf(err)}
	}
	return s.current()
}

func (s *side) put(key, val []byte, flags engine.PutFlags) result {
	if err := s.cur.Put(key, val, flags); err != nil {
		return result{code: engine.CodeOf(err)}
	}
	return s.current()
}

func (s *side) del(flags engine.DelFlags) result {
	return result{code: engine.CodeOf(s.cur.Del(flags))}
}

// scan walks the whole table.
func (s *side) scan() []string {
	var out []string
	k, v, err := s.cur.Get(nil, nil, engine.First)
	for err == nil {
		out = append(out, string(k)+"="+string(v))
		k, v, err = s.cur.Get(nil, nil, engine.Next)
	}
	return out
}

// step is one operation. reset reports whether the cursor must be
// repositioned afterwards even on success.
type step struct {
	run   func(s *side) result
	reset bool
}

func randomBytes(rng *rand.Rand, prefix string, n int) []byte {
	return []byte(fmt.Sprintf("%s%02d", prefix, rng.Intn(n)))
}

// script builds a random sequence of steps. A failed step and a delete
// are followed by First, so no step starts from an unpositioned cursor
// or a deleted entry.
func script(rng *rand.Rand, n int, dup bool) []step {
	nav := []engine.Op{engine.First, engine.Last, engine.Next, engine.Prev, engine.NextNoDup}
	if dup {
		nav = append(nav, engine.NextDup, engine.PrevDup, engine.PrevNoDup, engine.FirstDup, engine.LastDup)
	}

	var steps []step
	for i := 0; i < n; i++ {
		key := randomBytes(rng, "k", 40)
		val := randomBytes(rng, "v", 8)
		switch r := rng.Intn(10); {
		case r < 4:
			flags := engine.Upsert
			switch rng.Intn(3) {
			case 1:
				flags = engine.NoOverwrite
			case 2:
				if dup {
					flags = engine.NoDupData
				}
			}
			steps = append(steps, step{run: func(s *side) result { return s.put(key, val, flags) }})
		case r < 7:
			op := nav[rng.Intn(len(nav))]
			steps = append(steps, step{run: func(s *side) result { return s.get(op, nil, nil) }})
		case r < 8:
			op := engine.SetKey
			if rng.Intn(2) == 0 {
				op = engine.SetRange
			}
			steps = append(steps, step{run: func(s *side) result { return s.get(op, key, nil) }})
		case r < 9 && dup:
			op := engine.GetBoth
			if rng.Intn(2) == 0 {
				op = engine.GetBothRange
			}
			steps = append(steps, step{run: func(s *side) result { return s.get(op, key, val) }})
		default:
			flags := engine.DelCurrent
			if dup && rng.Intn(2) == 0 {
				flags = engine.AllDups
			}
			steps = append(steps, step{run: func(s *side) result {
				if r := s.get(engine.SetRange, key, nil); r.code != 0 {
					return r
				}
				return s.del(flags)
			}, reset: true})
		}
	}
	return steps
}

func runCompat(t *testing.T, flags engine.TableFlags) {
	for _, driver := range engine.Drivers() {
		if driver == reference {
			continue
		}
		t.Run(driver, func(t *testing.T) {
			want := openSide(t, reference, flags)
			got := openSide(t, driver, flags)

			// Seed keys sort before every scripted key, so deletes never reach
			// them and First always lands.
			for i := 0; i < 20; i++ {
				key := []byte(fmt.Sprintf("a%02d", i))
				require.Equal(t, want.put(key, []byte("s"), engine.Upsert), got.put(key, []byte("s"), engine.Upsert))
			}

			rng := rand.New(rand.NewSource(7))
			for i, st := range script(rng, 2000, flags.IsDup()) {
				w, g := st.run(want), st.run(got)
				require.Equal(t, w, g, "step %d: %s returned %v, %s returned %v", i, reference, w, driver, g)
				if w.code != 0 || st.reset {
					_, _, errW := want.cur.Get(nil, nil, engine.First)
					_, _, errG := got.cur.Get(nil, nil, engine.First)
					require.Equal(t, engine.CodeOf(errW), engine.CodeOf(errG), "step %d: reposition", i)
				}
			}
			require.Equal(t, want.scan(), got.scan())
		})
	}
}

func TestCursorCompatPlain(t *testing.T) {
	runCompat(t, 0)
}

func TestCursorCompatDupSort(t *testing.T) {
	runCompat(t, engine.DupSort)
}
