package production

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// ModuleEntry is one module stack inside a machine or beacon.
type ModuleEntry struct {
	Module  *gamedata.Good
	Quality *gamedata.Quality
	Count   int
}

// BeaconConfig describes the beacons affecting a row's machines.
type BeaconConfig struct {
	Entity  *gamedata.Entity
	Count   int
	Modules []ModuleEntry
}

// ModuleTemplate is a row's module configuration: explicit module stacks,
// an optional filler module for the remaining slots, and optional beacons.
type ModuleTemplate struct {
	Modules []ModuleEntry

	// FillerModule fills machine slots the explicit list leaves empty.
	FillerModule *gamedata.Good

	Beacon *BeaconConfig
}

// IsEmpty reports whether the template changes nothing.
func (m *ModuleTemplate) IsEmpty() bool {
	return m == nil || (len(m.Modules) == 0 && m.FillerModule == nil && m.Beacon == nil)
}
