package main

// Torpedo is a Vehicle fired by a ship. It inherits the ship's momentum and
// never wraps: leaving the arena removes it.
type Torpedo struct {
	Vehicle
	Owner PlayerID
	Born  float64 // simulation seconds at launch
	// Armed is set once the torpedo has cleared its owner's hull; only an
	// armed torpedo can strike its own ship.
	Armed bool
}

// NewTorpedo launches a torpedo from ship along its facing with the given
// impulse magnitude added to the ship's velocity.
func NewTorpedo(owner PlayerID, ship *Vehicle, impulse, now float64) Torpedo {
	t := Torpedo{
		Vehicle: Vehicle{
			X:           ship.X,
			Y:           ship.Y,
			Orientation: ship.Orientation,
		},
		Owner: owner,
		Born:  now,
	}
	ix, iy := ToCartesian(ship.Orientation, impulse)
	t.SetVelocity(ship.VX+ix, ship.VY+iy)
	return t
}

// Expired reports whether the torpedo has outlived lifetime seconds.
// A zero lifetime never expires.
func (t *Torpedo) Expired(now, lifetime float64) bool {
	return lifetime > 0 && now-t.Born >= lifetime
}

