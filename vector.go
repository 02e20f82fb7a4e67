package main

import "math"

// ToCartesian converts a polar velocity (angle in radians, magnitude) into
// its dx, dy components.
func ToCartesian(angle, mag float64) (float64, float64) {
	return mag * math.Cos(angle), mag * math.Sin(angle)
}

// ToPolar converts dx, dy into (angle, magnitude) using the full
// four-quadrant arctangent. The zero vector maps to (0, 0).
func ToPolar(dx, dy float64) (float64, float64) {
	if dx == 0 && dy == 0 {
		return 0, 0
	}
	return math.Atan2(dy, dx), math.Hypot(dx, dy)
}

// Wrap maps v onto the toroidal axis [-1, 1).
func Wrap(v float64) float64 {
	w := math.Mod(v+1, 2)
	if w < 0 {
		w += 2
	}
	w--
	// Mod of a tiny negative can round up to exactly 2, yielding 1.
	if w >= 1 {
		w = -1
	}
	return w
}

// InArena reports whether v lies on the open-ended axis [-1, 1).
func InArena(v float64) bool {
	return v >= -1 && v < 1
}
