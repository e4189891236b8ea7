package config

// BuildModeID distinguishes release binaries from debug binaries. Cheat
// actions only take effect in debug binaries.
type BuildModeID int

const (
	BuildRelease BuildModeID = iota
	BuildDebug
)

func (m BuildModeID) String() string {
	if m == BuildDebug {
		return "debug"
	}
	return "release"
}
