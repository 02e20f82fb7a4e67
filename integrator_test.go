package main

import (
	"math"
	"testing"
)

func TestClampDelta(t *testing.T) {
	tests := []struct {
		dt, limit, want float64
	}{
		{0.016, 0.25, 0.016},
		{-0.01, 0.25, 0},
		{math.NaN(), 0.25, 0},
		{1.0, 0.25, 0.25},
		{1.0, 0, 1.0},
		{math.Inf(1), 0, 0},
		{math.Inf(1), 0.25, 0.25},
	}
	for _, tt := range tests {
		if got := clampDelta(tt.dt, tt.limit); got != tt.want {
			t.Errorf("clampDelta(%g, %g): expected %g, got %g", tt.dt, tt.limit, tt.want, got)
		}
	}
}

func TestIntegrateShipsWrap(t *testing.T) {
	s := newTestState(t, func(c *MatchConfig) { c.MaxFrameDelta = 0 })
	ship := s.ship(PlayerOne)
	ship.X, ship.Y = 0.999, 0
	ship.SetVelocity(0.01, 0)

	integrate(s, 1.0)
	if !approx(ship.X, -0.991) {
		t.Errorf("expected -0.991, got %g", ship.X)
	}
}

func TestIntegrateReportsTorpedoesOutOfBounds(t *testing.T) {
	s := newTestState(t, nil)
	s.torpedoes = []Torpedo{
		{Vehicle: Vehicle{X: 0.999, VX: 1}},
		{Vehicle: Vehicle{X: 0, VX: 1}},
		{Vehicle: Vehicle{Y: -0.999, VY: -1}},
	}
	out := integrate(s, 0.01)
	if len(out) != 2 || out[0] != 0 || out[1] != 2 {
		t.Errorf("expected out of bounds [0 2], got %v", out)
	}
	if !approx(s.torpedoes[0].X, 1.009) {
		t.Errorf("torpedo should drift past the edge, got %g", s.torpedoes[0].X)
	}
}

func TestIntegrateWrapTorpedoes(t *testing.T) {
	s := newTestState(t, func(c *MatchConfig) { c.WrapTorpedoes = true })
	s.torpedoes = []Torpedo{{Vehicle: Vehicle{X: 0.999, VX: 1}}}
	if out := integrate(s, 0.01); len(out) != 0 {
		t.Errorf("expected no out of bounds, got %v", out)
	}
	if !approx(s.torpedoes[0].X, -0.991) {
		t.Errorf("expected wrapped torpedo at -0.991, got %g", s.torpedoes[0].X)
	}
}

func TestTorusHelpers(t *testing.T) {
	if d := torusDelta(0.9, -0.9); !approx(d, 0.2) {
		t.Errorf("expected delta 0.2 across the edge, got %g", d)
	}
	if m := torusMidpoint(0.9, -0.9); !approx(math.Abs(m), 1) {
		t.Errorf("expected midpoint on the edge, got %g", m)
	}
	if m := torusMidpoint(-0.2, 0.4); !approx(m, 0.1) {
		t.Errorf("expected midpoint 0.1, got %g", m)
	}
}
