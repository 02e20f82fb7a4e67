package main

import (
	"fmt"
	"strconv"
)

// Intent is a decoded input event for one ship
type Intent int

const (
	RotateLeft Intent = iota + 1
	RotateRight
	Thrust
	Fire
)

var intentNames = map[Intent]string{
	RotateLeft:  "rotate_left",
	RotateRight: "rotate_right",
	Thrust:      "thrust",
	Fire:        "fire",
}

func (i Intent) String() string {
	if n, ok := intentNames[i]; ok {
		return n
	}
	return "intent(" + strconv.Itoa(int(i)) + ")"
}

// Valid reports whether i is one of the four intents
func (i Intent) Valid() bool {
	return i >= RotateLeft && i <= Fire
}

// ParseIntent accepts the wire names ("thrust") or the numeric codes ("3")
func ParseIntent(s string) (Intent, error) {
	for i, n := range intentNames {
		if n == s {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Intent(n).Valid() {
		return Intent(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// Controller turns intents into mutations of one ship. There is one per
// ship; it keeps that ship's fire bookkeeping.
type Controller struct {
	player   PlayerID
	cfg      ControlConfig
	fired    bool
	lastFire float64
}

// NewController creates the intent processor for a ship
func NewController(player PlayerID, cfg ControlConfig) *Controller {
	return &Controller{player: player, cfg: cfg}
}

// Player returns the ship this controller drives
func (c *Controller) Player() PlayerID {
	return c.player
}

// apply mutates s for one intent. The caller holds the state lock.
func (c *Controller) apply(s *GameState, intent Intent) error {
	ship := s.ship(c.player)
	switch intent {
	case RotateLeft:
		ship.Orientation += c.cfg.RotateStep
	case RotateRight:
		ship.Orientation -= c.cfg.RotateStep
	case Thrust:
		// Thrust only adds to momentum; heading and course can differ.
		ship.AddImpulse(ship.Orientation, c.cfg.ThrustImpulse)
	case Fire:
		if !c.canFire(s) {
			return ErrFireLimited
		}
		s.torpedoes = append(s.torpedoes, NewTorpedo(c.player, ship, c.cfg.FireImpulse, s.simTime))
		c.fired = true
		c.lastFire = s.simTime
	default:
		return fmt.Errorf("%w: %d", ErrUnknownIntent, int(intent))
	}
	return nil
}

func (c *Controller) canFire(s *GameState) bool {
	if c.cfg.MaxTorpedoes > 0 && c.inFlight(s) >= c.cfg.MaxTorpedoes {
		return false
	}
	if c.cfg.FireCooldown > 0 && c.fired && s.simTime-c.lastFire < c.cfg.FireCooldown {
		return false
	}
	return true
}

// inFlight counts this ship's own torpedoes; the cap is per ship
func (c *Controller) inFlight(s *GameState) int {
	n := 0
	for i := range s.torpedoes {
		if s.torpedoes[i].Owner == c.player {
			n++
		}
	}
	return n
}

// reset forgets fire history, used on rematch
func (c *Controller) reset() {
	c.fired = false
	c.lastFire = 0
}
