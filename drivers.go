package tablekv

import (
	"github.com/Giulio2002/tablekv/engine"

	// Engines register themselves under their driver names.
	_ "github.com/Giulio2002/tablekv/engine/boltdb"
	_ "github.com/Giulio2002/tablekv/engine/libmdbx"
	_ "github.com/Giulio2002/tablekv/engine/memdb"
)

// Drivers returns the names of the available storage engines.
func Drivers() []string {
	return engine.Drivers()
}
