package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalPlayer is the players entry that marks the local handle.
const LocalPlayer = "localhost"

var ErrInvalidSession = errors.New("invalid session config")

// SessionConfig describes a networked match as read from YAML.
type SessionConfig struct {
	Relay             string        `yaml:"relay"`
	Players           []string      `yaml:"players"`
	Spectators        []string      `yaml:"spectators,omitempty"` // Expected spectators; the match waits for them
	Spectate          bool          `yaml:"spectate,omitempty"` // Join as a spectator instead of a player
	InputDelay        *int          `yaml:"input_delay,omitempty"`
	MaxPrediction     *int          `yaml:"max_prediction,omitempty"`
	DisconnectTimeout time.Duration `yaml:"disconnect_timeout,omitempty"`
	Seed              uint64        `yaml:"seed,omitempty"`
}

// LoadSessionConfig reads and validates a session file. Unset tunables
// take their defaults from Net.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", path, err)
	}
	return ParseSessionConfig(data)
}

// ParseSessionConfig decodes and validates YAML session data.
func ParseSessionConfig(data []byte) (*SessionConfig, error) {
	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SessionConfig) applyDefaults() {
	if c.InputDelay == nil {
		d := Net.InputDelay
		c.InputDelay = &d
	}
	if c.MaxPrediction == nil {
		p := Net.MaxPrediction
		c.MaxPrediction = &p
	}
	if c.DisconnectTimeout == 0 {
		c.DisconnectTimeout = Net.DisconnectTimeout
	}
}

// Validate checks the player list and tunables.
func (c *SessionConfig) Validate() error {
	if len(c.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidSession)
	}
	locals := 0
	for _, p := range c.Players {
		if strings.EqualFold(p, LocalPlayer) {
			locals++
		}
	}
	switch {
	case c.Spectate && locals != 0:
		return fmt.Errorf("%w: a spectator cannot also be a player", ErrInvalidSession)
	case !c.Spectate && locals != 1:
		return fmt.Errorf("%w: expected exactly one %q player, found %d", ErrInvalidSession, LocalPlayer, locals)
	}
	if len(c.Players) > 1 && c.Relay == "" {
		return fmt.Errorf("%w: remote players need a relay address", ErrInvalidSession)
	}
	if c.InputDelay != nil && *c.InputDelay < 0 {
		return fmt.Errorf("%w: negative input delay", ErrInvalidSession)
	}
	if c.MaxPrediction != nil && *c.MaxPrediction < 0 {
		return fmt.Errorf("%w: negative max prediction", ErrInvalidSession)
	}
	if len(c.Players) > 1 && c.InputDelay != nil && c.MaxPrediction != nil && *c.InputDelay+*c.MaxPrediction < 1 {
		return fmt.Errorf("%w: remote players need input_delay or max_prediction above zero", ErrInvalidSession)
	}
	if c.DisconnectTimeout < 0 {
		return fmt.Errorf("%w: negative disconnect timeout", ErrInvalidSession)
	}
	return nil
}

// LocalHandle returns the index of the local player, or -1 when spectating.
func (c *SessionConfig) LocalHandle() int {
	for i, p := range c.Players {
		if strings.EqualFold(p, LocalPlayer) {
			return i
		}
	}
	return -1
}

// NumPlayers returns the number of players, spectators excluded.
func (c *SessionConfig) NumPlayers() int {
	return len(c.Players)
}
