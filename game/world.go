package game

import (
	"math/rand/v2"
	"sort"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/automoto/ld51/board"
	"github.com/automoto/ld51/components"
	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/tags"
)

var turretQuery = donburi.NewQuery(filter.Contains(tags.Turret))

// World is the complete deterministic game state advanced by Step.
type World struct {
	Rules   config.RulesConfig
	Turrets config.TurretConfig
	TimeCfg config.TimeConfig
	Board   *board.Board
	Player  Player
	Time    Time
	Step    uint32 // Simulation step, the clock of recording and playback
	Seed    uint64

	layout   *board.Board
	restart  bool
	entities donburi.World
}

// New returns a world at step 0 on a copy of layout, or on the default
// board when layout is nil.
func New(seed uint64, layout *board.Board) *World {
	if layout == nil {
		layout = board.New(config.Board)
	}
	w := &World{
		Rules:   config.Rules,
		Turrets: config.Turrets,
		TimeCfg: config.Time,
		Seed:    seed,
		layout:  layout.Clone(),
		Time:    NewTime(config.Time),
	}
	w.reset()
	return w
}

// Reset reinitialises board, player, turrets and the step counter after a
// restart. The speed setting survives.
func Reset(w *World) {
	speed := w.Time.SpeedTenths
	w.reset()
	w.Time = Time{SpeedTenths: speed}
}

func (w *World) reset() {
	w.Board = w.layout.Clone()
	w.Player = NewPlayer(w.Rules)
	w.Step = 0
	w.restart = false
	w.entities = donburi.NewWorld()
}

// RestartRequested reports whether a RestartGame action was applied since
// the last Reset.
func (w *World) RestartRequested() bool {
	return w.restart
}

// Rand returns the generator for the current step. It depends only on the
// seed and step, so every peer and every replay draws the same numbers.
func (w *World) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(w.Seed, uint64(w.Step)))
}

// Entities returns the ECS world holding turret entities.
func (w *World) Entities() donburi.World {
	return w.entities
}

// PlacedTurrets returns every placed turret ordered by cell.
func (w *World) PlacedTurrets() []components.TurretData {
	var out []components.TurretData
	turretQuery.Each(w.entities, func(e *donburi.Entry) {
		out = append(out, *components.Turret.Get(e))
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cell < out[j].Cell
	})
	return out
}

func (w *World) turretAt(cell int) (*donburi.Entry, bool) {
	var found *donburi.Entry
	turretQuery.Each(w.entities, func(e *donburi.Entry) {
		if found == nil && components.Turret.Get(e).Cell == cell {
			found = e
		}
	})
	return found, found != nil
}
