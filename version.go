package tablekv

import "fmt"

// Version constants
const (
	// Major is the major version number
	Major = 0

	// Minor is the minor version number
	Minor = 3

	// Patch is the patch version number
	Patch = 0
)

// VersionInfo describes the library and the engines it was built with.
type VersionInfo struct {
	Major   uint8
	Minor   uint8
	Patch   uint8
	Drivers []string
}

// Version returns the version string of tablekv.
func Version() string {
	return fmt.Sprintf("tablekv %d.%d.%d", Major, Minor, Patch)
}

// GetVersionInfo returns version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Major:   Major,
		Minor:   Minor,
		Patch:   Patch,
		Drivers: Drivers(),
	}
}
