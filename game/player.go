package game

import (
	"math"

	"github.com/automoto/ld51/config"
)

// Player holds the economy and level progress of the defending player.
type Player struct {
	Credits   uint64
	Health    float64
	Kills     uint64
	Upgrades  [config.TurretKindCount]float64 // Damage multiplier per turret kind
	LevelTime float64                         // Seconds of level clock
	Level     uint32
}

// NewPlayer returns a player with the starting values of rules.
func NewPlayer(rules config.RulesConfig) Player {
	p := Player{
		Credits: rules.StartingCredits,
		Health:  rules.StartingHealth,
	}
	for i := range p.Upgrades {
		p.Upgrades[i] = 1.0
	}
	return p
}

// Alive reports whether the player still has health.
func (p *Player) Alive() bool {
	return p.Health > 0
}

// UpgradeCost is the price of the next upgrade for kind. It grows with the
// square of the current multiplier.
func (p *Player) UpgradeCost(kind config.TurretKind, rules config.RulesConfig) uint64 {
	m := p.Upgrades[kind]
	return uint64(m * m * rules.UpgradeCostBase)
}

// AddLevelTime advances the level clock and recomputes the level.
func (p *Player) AddLevelTime(seconds float64, rules config.RulesConfig) {
	p.LevelTime += seconds
	if rules.LevelDuration > 0 {
		p.Level = uint32(math.Floor(p.LevelTime / rules.LevelDuration))
	}
}
