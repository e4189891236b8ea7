package action

import "fmt"

// Tag is the discriminant byte of an encoded action. Values are part of the
// wire and replay formats: append new tags, never reorder or reuse one.
type Tag uint8

const (
	TagEmpty Tag = iota
	TagBlasterUpgrade
	TagWaveUpgrade
	TagLaserUpgrade
	TagBlasterPlace
	TagWavePlace
	TagLaserPlace
	TagSellTurret
	TagGameSpeedDec
	TagGameSpeedInc
	TagGamePause
	TagRestartGame
	TagCheatCredits
	TagCheatHealth
	TagCheatLevel
	TagCount // Must be last - first unassigned tag
)

var tagNames = [TagCount]string{
	TagEmpty:          "Empty",
	TagBlasterUpgrade: "BlasterUpgrade",
	TagWaveUpgrade:    "WaveUpgrade",
	TagLaserUpgrade:   "LaserUpgrade",
	TagBlasterPlace:   "BlasterPlace",
	TagWavePlace:      "WavePlace",
	TagLaserPlace:     "LaserPlace",
	TagSellTurret:     "SellTurret",
	TagGameSpeedDec:   "GameSpeedDec",
	TagGameSpeedInc:   "GameSpeedInc",
	TagGamePause:      "GamePause",
	TagRestartGame:    "RestartGame",
	TagCheatCredits:   "CheatCredits",
	TagCheatHealth:    "CheatHealth",
	TagCheatLevel:     "CheatLevel",
}

func (t Tag) String() string {
	if t < TagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Valid reports whether t is an assigned tag.
func (t Tag) Valid() bool {
	return t < TagCount
}

// HasCoords reports whether actions with this tag carry a board coordinate.
func (t Tag) HasCoords() bool {
	switch t {
	case TagBlasterPlace, TagWavePlace, TagLaserPlace, TagSellTurret:
		return true
	}
	return false
}

// Action is a single player intent. X and Y are only meaningful for tags
// that carry coordinates and are zero otherwise.
type Action struct {
	Tag Tag
	X   uint8
	Y   uint8
}

// Empty is the no-op action.
var Empty = Action{}

func BlasterUpgrade() Action { return Action{Tag: TagBlasterUpgrade} }
func WaveUpgrade() Action    { return Action{Tag: TagWaveUpgrade} }
func LaserUpgrade() Action   { return Action{Tag: TagLaserUpgrade} }
func GameSpeedDec() Action   { return Action{Tag: TagGameSpeedDec} }
func GameSpeedInc() Action   { return Action{Tag: TagGameSpeedInc} }
func GamePause() Action      { return Action{Tag: TagGamePause} }
func RestartGame() Action    { return Action{Tag: TagRestartGame} }
func CheatCredits() Action   { return Action{Tag: TagCheatCredits} }
func CheatHealth() Action    { return Action{Tag: TagCheatHealth} }
func CheatLevel() Action     { return Action{Tag: TagCheatLevel} }

func BlasterPlace(x, y uint8) Action { return Action{Tag: TagBlasterPlace, X: x, Y: y} }
func WavePlace(x, y uint8) Action    { return Action{Tag: TagWavePlace, X: x, Y: y} }
func LaserPlace(x, y uint8) Action   { return Action{Tag: TagLaserPlace, X: x, Y: y} }
func SellTurret(x, y uint8) Action   { return Action{Tag: TagSellTurret, X: x, Y: y} }

// IsEmpty reports whether a is the no-op action.
func (a Action) IsEmpty() bool {
	return a.Tag == TagEmpty
}

// Recordable reports whether a belongs in a replay log. Speed, pause and
// restart only affect the local session and are never replayed.
func (a Action) Recordable() bool {
	switch a.Tag {
	case TagEmpty, TagGameSpeedDec, TagGameSpeedInc, TagGamePause, TagRestartGame:
		return false
	}
	return a.Tag.Valid()
}

// IsSpeed reports whether a changes the game speed or pause state.
func (a Action) IsSpeed() bool {
	switch a.Tag {
	case TagGameSpeedDec, TagGameSpeedInc, TagGamePause:
		return true
	}
	return false
}

func (a Action) String() string {
	if a.Tag.HasCoords() {
		return fmt.Sprintf("%s %d %d", a.Tag, a.X, a.Y)
	}
	return a.Tag.String()
}
