package game

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/yohamta/donburi"

	"github.com/automoto/ld51/archetypes"
	"github.com/automoto/ld51/board"
	"github.com/automoto/ld51/components"
)

// Snapshot is a value copy of the mutable world state.
type Snapshot struct {
	Board   *board.Board
	Player  Player
	Time    Time
	Step    uint32
	Restart bool
	Turrets []components.TurretData
}

// TakeSnapshot copies the mutable state of w.
func TakeSnapshot(w *World) Snapshot {
	return Snapshot{
		Board:   w.Board.Clone(),
		Player:  w.Player,
		Time:    w.Time,
		Step:    w.Step,
		Restart: w.restart,
		Turrets: w.PlacedTurrets(),
	}
}

// Restore replaces the mutable state of w with s. Turret entities are
// rebuilt in cell order. s stays usable for further restores.
func Restore(w *World, s Snapshot) {
	w.Board = s.Board.Clone()
	w.Player = s.Player
	w.Time = s.Time
	w.Step = s.Step
	w.restart = s.Restart
	w.entities = donburi.NewWorld()
	for _, t := range s.Turrets {
		archetypes.SpawnTurret(w.entities, t.Kind, t.Cost, t.Cell)
	}
}

// Checksum hashes the canonical state of w. Entity IDs are left out so
// worlds rebuilt by Restore hash the same as the originals.
func Checksum(w *World) uint64 {
	d := xxhash.New()
	var buf [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	putF64 := func(v float64) {
		putU64(math.Float64bits(v))
	}
	putBool := func(v bool) {
		if v {
			putU64(1)
		} else {
			putU64(0)
		}
	}

	putU64(w.Seed)
	putU64(uint64(w.Step))
	putBool(w.restart)

	putU64(uint64(w.Time.SpeedTenths))
	putBool(w.Time.Paused)

	putU64(w.Player.Credits)
	putF64(w.Player.Health)
	putU64(w.Player.Kills)
	for _, m := range w.Player.Upgrades {
		putF64(m)
	}
	putF64(w.Player.LevelTime)
	putU64(uint64(w.Player.Level))

	putU64(uint64(w.Board.Width))
	putU64(uint64(w.Board.Height))
	cells := make([]byte, len(w.Board.Cells))
	for i, c := range w.Board.Cells {
		if c.Filled {
			cells[i] |= 1
		}
		if c.Turret {
			cells[i] |= 2
		}
	}
	d.Write(cells)

	for _, t := range w.PlacedTurrets() {
		putU64(uint64(t.Kind))
		putU64(t.Cost)
		putU64(uint64(t.Cell))
	}

	return d.Sum64()
}
