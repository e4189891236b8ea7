package game

import (
	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/config"
)

// Time is the game speed control. Speed is held in tenths so repeated
// increments stay exact.
type Time struct {
	SpeedTenths int
	Paused      bool
}

// NewTime returns the default speed, unpaused.
func NewTime(c config.TimeConfig) Time {
	return Time{SpeedTenths: c.SpeedDefault}
}

// Multiplier returns the speed as a factor of real time.
func (t Time) Multiplier() float64 {
	return float64(t.SpeedTenths) / 10
}

// Running reports whether ticks currently advance the simulation.
func (t Time) Running() bool {
	return !t.Paused && t.SpeedTenths > 0
}

// Apply changes speed or pause for a speed action and reports whether a
// was one.
func (t *Time) Apply(a action.Action, c config.TimeConfig) bool {
	switch a.Tag {
	case action.TagGameSpeedDec:
		t.SpeedTenths = max(t.SpeedTenths-c.SpeedStep, c.SpeedMin)
	case action.TagGameSpeedInc:
		t.SpeedTenths = min(t.SpeedTenths+c.SpeedStep, c.SpeedMax)
	case action.TagGamePause:
		t.Paused = !t.Paused
	default:
		return false
	}
	return true
}
