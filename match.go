package main

import (
	"fmt"
	"math"
)

// GameMode selects who controls player two
type GameMode int

const (
	ModeLocal    GameMode = 0 // two players, one keyboard
	ModeVersusAI GameMode = 1
	ModeNetwork  GameMode = 2
)

func (m GameMode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeVersusAI:
		return "ai"
	case ModeNetwork:
		return "network"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ControlConfig tunes the input intent processor
type ControlConfig struct {
	RotateStep    float64 // radians per rotate intent
	ThrustImpulse float64 // velocity added per thrust intent
	FireImpulse   float64 // torpedo launch speed relative to the ship
	FireCooldown  float64 // sim seconds between shots, 0 = none
	MaxTorpedoes  int     // live torpedoes per ship, 0 = unlimited
}

// HashConfig tunes the spatial hash. Scale and the stamp radii together
// approximate each body's size.
type HashConfig struct {
	Scale              float64 // cells per arena unit
	ShipRadiusCells    int
	TorpedoRadiusCells int
}

// MatchConfig holds the rules of a duel
type MatchConfig struct {
	Mode               GameMode
	ShipCollisionFatal bool
	FriendlyFire       bool
	WrapTorpedoes      bool
	TorpedoLifetime    float64 // seconds, 0 = until out of bounds
	MaxFrameDelta      float64 // upper clamp on dt, 0 = none
	Controls           ControlConfig
	Hash               HashConfig
}

// DefaultConfig returns the rules the prototypes played with
func DefaultConfig(mode GameMode) MatchConfig {
	return MatchConfig{
		Mode:          mode,
		MaxFrameDelta: 0.25,
		Controls: ControlConfig{
			RotateStep:    0.1,
			ThrustImpulse: 0.08,
			FireImpulse:   0.34,
		},
		Hash: HashConfig{
			Scale:              1000,
			ShipRadiusCells:    10,
			TorpedoRadiusCells: 5,
		},
	}
}

// maxHashScale bounds the cell count per axis so span fits an int32
const maxHashScale = 1 << 20

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Validate checks the config for values the engine cannot run with
func (c MatchConfig) Validate() error {
	ctl := c.Controls
	switch {
	case c.Mode < ModeLocal || c.Mode > ModeNetwork:
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(c.Mode))
	case !finite(ctl.RotateStep, ctl.ThrustImpulse, ctl.FireImpulse, ctl.FireCooldown, c.TorpedoLifetime, c.MaxFrameDelta):
		return fmt.Errorf("%w: non-finite rule value", ErrInvalidConfig)
	case !(ctl.RotateStep >= 0.1 && ctl.RotateStep <= 0.3):
		return fmt.Errorf("%w: rotate step %g outside [0.1, 0.3]", ErrInvalidConfig, ctl.RotateStep)
	case !(ctl.ThrustImpulse >= 0 && ctl.FireImpulse >= 0):
		return fmt.Errorf("%w: negative impulse", ErrInvalidConfig)
	case !(ctl.FireCooldown >= 0) || ctl.MaxTorpedoes < 0:
		return fmt.Errorf("%w: negative fire limit", ErrInvalidConfig)
	case !(c.TorpedoLifetime >= 0 && c.MaxFrameDelta >= 0):
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	case !(c.Hash.Scale >= 1 && c.Hash.Scale <= maxHashScale):
		return fmt.Errorf("%w: hash scale %g outside [1, %d]", ErrInvalidConfig, c.Hash.Scale, maxHashScale)
	case 2*c.Hash.Scale != math.Trunc(2*c.Hash.Scale):
		// cells must tile the arena exactly or the wrap drifts
		return fmt.Errorf("%w: hash scale %g must be a multiple of 0.5", ErrInvalidConfig, c.Hash.Scale)
	case c.Hash.ShipRadiusCells < 0 || c.Hash.TorpedoRadiusCells < 0:
		return fmt.Errorf("%w: negative stamp radius", ErrInvalidConfig)
	}
	return nil
}
