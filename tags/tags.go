package tags

import "github.com/yohamta/donburi"

var (
	Turret  = donburi.NewTag().SetName("Turret")
	Blaster = donburi.NewTag().SetName("Blaster")
	Wave    = donburi.NewTag().SetName("Wave")
	Laser   = donburi.NewTag().SetName("Laser")
)
