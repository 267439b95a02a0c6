// Package boltdb is a persistent pure-Go storage engine on top of bbolt.
//
// Every table is a bucket named after its table ID, and a catalog
// bucket maps table names to IDs and flags. Tables without DupSort store
// pairs as they are. DupSort tables store each pair as a single bucket
// key built from the escaped key, a terminator and the value, so that
// bbolt's byte order is the (key, value) order.
//
// bbolt has no nested transactions; beginning a child transaction fails
// with Incompatible.
package boltdb

import "github.com/Giulio2002/tablekv/engine"

// Name is the name the engine is registered under.
const Name = "bolt"

type driver struct{}

func (driver) Name() string { return Name }

func (driver) NewEnv() (engine.Env, error) {
	return NewEnv(), nil
}

func init() {
	engine.Register(driver{})
}
