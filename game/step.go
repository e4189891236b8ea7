package game

import (
	"math/rand/v2"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/archetypes"
	"github.com/automoto/ld51/components"
	"github.com/automoto/ld51/config"
)

// Simulator advances enemies, turrets and combat by one tick. It must be
// deterministic and draw randomness only from rng.
type Simulator interface {
	Simulate(w *World, rng *rand.Rand)
}

// SimulatorFunc adapts a function to Simulator.
type SimulatorFunc func(w *World, rng *rand.Rand)

func (f SimulatorFunc) Simulate(w *World, rng *rand.Rand) {
	f(w, rng)
}

// Step applies the resolved actions of one tick in order, then advances
// the simulation and the step counter while the game is running and the
// player is alive. Actions are still applied while paused so the game can
// be resumed. Invalid or unaffordable actions are dropped silently.
func Step(w *World, actions []action.Action, sim Simulator) {
	for _, a := range actions {
		Apply(w, a)
	}

	if !w.Time.Running() || !w.Player.Alive() {
		return
	}

	if sim != nil {
		sim.Simulate(w, w.Rand())
	}
	w.Player.AddLevelTime(w.TimeCfg.Timestep(), w.Rules)
	w.Step++
}

// Apply applies a single action to w.
func Apply(w *World, a action.Action) {
	switch a.Tag {
	case action.TagBlasterUpgrade:
		upgrade(w, config.TurretBlaster)
	case action.TagWaveUpgrade:
		upgrade(w, config.TurretWave)
	case action.TagLaserUpgrade:
		upgrade(w, config.TurretLaser)
	case action.TagBlasterPlace:
		place(w, config.TurretBlaster, a.X, a.Y)
	case action.TagWavePlace:
		place(w, config.TurretWave, a.X, a.Y)
	case action.TagLaserPlace:
		place(w, config.TurretLaser, a.X, a.Y)
	case action.TagSellTurret:
		sell(w, a.X, a.Y)
	case action.TagGameSpeedDec, action.TagGameSpeedInc, action.TagGamePause:
		if w.Rules.FixedLockstep && a.Tag != action.TagGamePause {
			// Peers tick uniformly; speed is a local presentation setting.
			return
		}
		w.Time.Apply(a, w.TimeCfg)
	case action.TagRestartGame:
		w.restart = true
	case action.TagCheatCredits:
		if w.Rules.CheatsEnabled {
			w.Player.Credits += w.Rules.CheatCredits
		}
	case action.TagCheatHealth:
		if w.Rules.CheatsEnabled {
			w.Player.Health += w.Rules.CheatHealth
		}
	case action.TagCheatLevel:
		if w.Rules.CheatsEnabled {
			w.Player.AddLevelTime(w.Rules.CheatLevelTime, w.Rules)
		}
	}
}

func upgrade(w *World, kind config.TurretKind) {
	cost := w.Player.UpgradeCost(kind, w.Rules)
	if w.Player.Credits <= cost {
		return
	}
	w.Player.Credits -= cost
	w.Player.Upgrades[kind] *= w.Rules.UpgradeGrowth
}

func place(w *World, kind config.TurretKind, x, y uint8) {
	idx := w.Board.IndexXY(x, y)
	if !w.Board.CanPlace(idx) {
		return
	}
	cost := w.Turrets.Cost[kind]
	if w.Player.Credits < cost {
		return
	}
	w.Player.Credits -= cost
	w.Board.Occupy(idx)
	archetypes.SpawnTurret(w.entities, kind, cost, idx)
}

func sell(w *World, x, y uint8) {
	idx := w.Board.IndexXY(x, y)
	if !w.Board.HasTurret(idx) {
		return
	}
	if e, ok := w.turretAt(idx); ok {
		w.Player.Credits += components.Turret.Get(e).Cost / w.Rules.RefundDivisor
		w.entities.Remove(e.Entity())
	}
	w.Board.Vacate(idx)
}
