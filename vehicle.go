package main

import "math"

// Vehicle is one simulated body: a ship or a torpedo. Velocity is held in
// both polar and cartesian form; mutate it only through the setters so the
// two stay consistent.
type Vehicle struct {
	X, Y        float64 // arena position, each axis in [-1, 1)
	Orientation float64 // facing, radians, unbounded
	VelAngle    float64
	VelMag      float64
	VX, VY      float64
}

// EntitySnapshot is a read-only copy of what a renderer needs.
type EntitySnapshot struct {
	X           float64 `json:"x" msgpack:"x"`
	Y           float64 `json:"y" msgpack:"y"`
	Orientation float64 `json:"r" msgpack:"r"`
}

// SetVelocity sets the cartesian velocity and re-derives the polar pair.
func (v *Vehicle) SetVelocity(dx, dy float64) {
	v.VX, v.VY = dx, dy
	v.VelAngle, v.VelMag = ToPolar(dx, dy)
}

// SetPolarVelocity sets the polar velocity and re-derives dx, dy.
func (v *Vehicle) SetPolarVelocity(angle, mag float64) {
	if mag < 0 {
		angle, mag = angle+math.Pi, -mag
	}
	v.VelAngle, v.VelMag = angle, mag
	v.VX, v.VY = ToCartesian(angle, mag)
}

// AddImpulse vector-sums an impulse of the given magnitude along angle into
// the current velocity.
func (v *Vehicle) AddImpulse(angle, mag float64) {
	ix, iy := ToCartesian(angle, mag)
	v.SetVelocity(v.VX+ix, v.VY+iy)
}

// Integrate advances the position by dt seconds on the torus.
func (v *Vehicle) Integrate(dt float64) {
	v.X = Wrap(v.X + v.VX*dt)
	v.Y = Wrap(v.Y + v.VY*dt)
}

// Drift advances the position by dt seconds without wrapping. Callers check
// InBounds afterwards.
func (v *Vehicle) Drift(dt float64) {
	v.X += v.VX * dt
	v.Y += v.VY * dt
}

// InBounds reports whether the position is inside the arena.
func (v *Vehicle) InBounds() bool {
	return InArena(v.X) && InArena(v.Y)
}

// Snapshot copies position and orientation, the latter normalized to
// [-π, π) for the renderer.
func (v *Vehicle) Snapshot() EntitySnapshot {
	return EntitySnapshot{X: v.X, Y: v.Y, Orientation: NormalizeAngle(v.Orientation)}
}
