package components

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/ld51/config"
)

// TurretData is a placed structure. Cost is what was paid at placement and
// fixes the refund, whatever upgrades were bought later.
type TurretData struct {
	Kind config.TurretKind
	Cost uint64
	Cell int
}

var Turret = donburi.NewComponentType[TurretData]()
