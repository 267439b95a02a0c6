// Package memdb is a volatile storage engine kept entirely in memory.
//
// Every committed transaction publishes an immutable B-tree snapshot;
// readers hold on to the snapshot they started from while the single
// writer works on a lazy copy of the latest one. Nested transactions
// copy their parent's working tree the same way, so aborting a child
// only drops the copy.
//
// The engine still honours the environment contract of the persistent
// engines: the path must exist and is locked exclusively, and map size,
// table and reader limits are enforced.
package memdb

import "github.com/Giulio2002/tablekv/engine"

// Name is the name the engine is registered under.
const Name = "memory"

type driver struct{}

func (driver) Name() string { return Name }

func (driver) NewEnv() (engine.Env, error) {
	return NewEnv(), nil
}

func init() {
	engine.Register(driver{})
}
