package main

import "math"

// clampDelta guards the frame delta: negative or NaN deltas from timer
// jitter become 0, and a positive max caps long stalls.
func clampDelta(dt, limit float64) float64 {
	if !(dt > 0) {
		return 0
	}
	if limit > 0 && dt > limit {
		return limit
	}
	if math.IsInf(dt, 1) {
		return 0
	}
	return dt
}

// integrate advances every entity by dt. Ships wrap around the arena;
// torpedoes drift straight and the indices of those that left the arena are
// returned in ascending order. Caller holds the state lock.
func integrate(s *GameState, dt float64) []int {
	for i := range s.ships {
		s.ships[i].Integrate(dt)
	}
	var outOfBounds []int
	for i := range s.torpedoes {
		t := &s.torpedoes[i]
		if s.cfg.WrapTorpedoes {
			t.Integrate(dt)
			continue
		}
		t.Drift(dt)
		if !t.InBounds() {
			outOfBounds = append(outOfBounds, i)
		}
	}
	return outOfBounds
}

// torusDelta is the shortest signed distance from a to b on one axis.
func torusDelta(a, b float64) float64 {
	return Wrap(b - a)
}

// torusMidpoint is the midpoint of a and b along the shorter arc.
func torusMidpoint(a, b float64) float64 {
	return Wrap(a + torusDelta(a, b)/2)
}
