package config

import "time"

// RulesConfig contains the economy and cheat values applied by the game step.
type RulesConfig struct {
	// Economy
	StartingCredits uint64
	StartingHealth  float64
	UpgradeGrowth   float64 // Multiplier applied to an upgrade on purchase
	UpgradeCostBase float64 // Upgrade cost = multiplier^2 * base
	RefundDivisor   uint64  // Selling refunds cost / RefundDivisor

	// Level clock
	LevelDuration float64 // Seconds of level time per level

	// Cheats (never applied unless CheatsEnabled)
	CheatsEnabled  bool
	CheatCredits   uint64
	CheatHealth    float64
	CheatLevelTime float64

	// FixedLockstep keeps game-speed actions out of the shared simulation.
	// Set for networked sessions where every peer must tick uniformly.
	FixedLockstep bool
}

// Point is a board cell in board-local coordinates.
type Point struct {
	X, Y int
}

// BoardConfig contains the default board geometry
type BoardConfig struct {
	Width  int
	Height int
	Start  Point
	Dest   Point
}

// TurretKind identifies a placeable structure.
type TurretKind uint8

const (
	TurretBlaster TurretKind = iota
	TurretWave
	TurretLaser
	TurretKindCount // Must be last - used for array sizing
)

func (k TurretKind) String() string {
	switch k {
	case TurretBlaster:
		return "blaster"
	case TurretWave:
		return "wave"
	case TurretLaser:
		return "laser"
	}
	return "unknown"
}

// TurretConfig contains per-kind structure values
type TurretConfig struct {
	Cost [TurretKindCount]uint64
}

// TimeConfig contains fixed-timestep and game-speed values.
// Game speed is held in integer tenths so that repeated steps stay exact.
type TimeConfig struct {
	TickRate     int // Simulation ticks per second
	SpeedDefault int // Tenths
	SpeedStep    int // Tenths
	SpeedMin     int // Tenths
	SpeedMax     int // Tenths
}

// Timestep returns the fixed simulated duration of one tick in seconds.
func (t TimeConfig) Timestep() float64 {
	return 1.0 / float64(t.TickRate)
}

// NetConfig contains rollback session defaults
type NetConfig struct {
	InputDelay        int // Frames
	MaxPrediction     int // Frames simulated ahead of the last confirmed frame
	DisconnectTimeout time.Duration
	StatsInterval     time.Duration
	RelayPort         uint
	Version           string
}

// DebugConfig contains debug/testing command-line options
type DebugConfig struct {
	LogQueueDepth bool // Warn when more than one local action is queued in a tick
}

var Rules RulesConfig
var Board BoardConfig
var Turrets TurretConfig
var Time TimeConfig
var Net NetConfig
var Debug DebugConfig

func init() {
	Rules = RulesConfig{
		StartingCredits: 500,
		StartingHealth:  1.0,
		UpgradeGrowth:   1.05,
		UpgradeCostBase: 10.0,
		RefundDivisor:   2,

		LevelDuration: 10.0,

		CheatsEnabled:  BuildMode == BuildDebug,
		CheatCredits:   1000,
		CheatHealth:    1000.0,
		CheatLevelTime: 10.0,
	}

	Board = BoardConfig{
		Width:  24,
		Height: 24,
		Start:  Point{X: 0, Y: 0},
		Dest:   Point{X: 22, Y: 22},
	}

	Turrets = TurretConfig{
		Cost: [TurretKindCount]uint64{
			TurretBlaster: 100,
			TurretWave:    200,
			TurretLaser:   300,
		},
	}

	Time = TimeConfig{
		TickRate:     120,
		SpeedDefault: 10,
		SpeedStep:    1,
		SpeedMin:     0,
		SpeedMax:     100,
	}

	Net = NetConfig{
		InputDelay:        20,
		MaxPrediction:     1, // 1 for lockstep
		DisconnectTimeout: 20 * time.Second,
		StatsInterval:     2 * time.Second,
		RelayPort:         7373,
		Version:           "ld51-1",
	}

	Debug = DebugConfig{
		LogQueueDepth: true,
	}
}
