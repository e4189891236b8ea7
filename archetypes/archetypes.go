package archetypes

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/ld51/components"
	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/tags"
)

var (
	Blaster = newArchetype(
		tags.Turret,
		tags.Blaster,
		components.Turret,
	)
	Wave = newArchetype(
		tags.Turret,
		tags.Wave,
		components.Turret,
	)
	Laser = newArchetype(
		tags.Turret,
		tags.Laser,
		components.Turret,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	return w.Entry(w.Create(append(a.components, cs...)...))
}

// Turret returns the archetype for kind.
func Turret(kind config.TurretKind) *archetype {
	switch kind {
	case config.TurretWave:
		return Wave
	case config.TurretLaser:
		return Laser
	default:
		return Blaster
	}
}

// SpawnTurret creates a turret entity of the given kind on cell.
func SpawnTurret(w donburi.World, kind config.TurretKind, cost uint64, cell int) *donburi.Entry {
	e := Turret(kind).Spawn(w)
	components.Turret.SetValue(e, components.TurretData{
		Kind: kind,
		Cost: cost,
		Cell: cell,
	})
	return e
}
