package main

import (
	"errors"
	"math"
	"testing"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"rotate_left", RotateLeft},
		{"rotate_right", RotateRight},
		{"thrust", Thrust},
		{"fire", Fire},
		{"1", RotateLeft},
		{"4", Fire},
	}
	for _, tt := range tests {
		got, err := ParseIntent(tt.in)
		if err != nil {
			t.Errorf("ParseIntent(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIntent(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
	for _, bad := range []string{"", "boost", "0", "5"} {
		if _, err := ParseIntent(bad); !errors.Is(err, ErrUnknownIntent) {
			t.Errorf("ParseIntent(%q): expected ErrUnknownIntent, got %v", bad, err)
		}
	}
}

func TestRotateIntents(t *testing.T) {
	s := newTestState(t, nil)
	start := s.ship(PlayerOne).Orientation

	s.ApplyInput(PlayerOne, RotateLeft)
	s.ApplyInput(PlayerOne, RotateLeft)
	s.ApplyInput(PlayerOne, RotateRight)
	if got := s.ship(PlayerOne).Orientation; !approx(got, start+0.1) {
		t.Errorf("expected orientation %g, got %g", start+0.1, got)
	}
	if s.ship(PlayerTwo).Orientation != PlayerTwoSpawnFacing {
		t.Error("player two should not rotate")
	}
}

func TestRotationIsUnbounded(t *testing.T) {
	s := newTestState(t, nil)
	for i := 0; i < 100; i++ {
		s.ApplyInput(PlayerOne, RotateLeft)
	}
	if got := s.ship(PlayerOne).Orientation; got < 2*math.Pi {
		t.Errorf("expected orientation past 2π, got %g", got)
	}
}

func TestThrustAddsToMomentum(t *testing.T) {
	s := newTestState(t, nil)
	ship := s.ship(PlayerOne)
	ship.Orientation = 0
	ship.SetVelocity(0, 0.05)

	if err := s.ApplyInput(PlayerOne, Thrust); err != nil {
		t.Fatalf("thrust: %v", err)
	}
	if !approx(ship.VX, 0.08) || !approx(ship.VY, 0.05) {
		t.Errorf("expected velocity (0.08, 0.05), got (%g, %g)", ship.VX, ship.VY)
	}
	if ship.Orientation != 0 {
		t.Error("thrust should not change heading")
	}
	wantAngle, wantMag := ToPolar(0.08, 0.05)
	if !approx(ship.VelAngle, wantAngle) || !approx(ship.VelMag, wantMag) {
		t.Errorf("polar velocity out of sync: (%g, %g)", ship.VelAngle, ship.VelMag)
	}
}

func TestFireSpawnsTorpedo(t *testing.T) {
	s := newTestState(t, nil)
	ship := s.ship(PlayerOne)
	*ship = Vehicle{}

	if err := s.ApplyInput(PlayerOne, Fire); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if len(s.torpedoes) != 1 {
		t.Fatalf("expected 1 torpedo, got %d", len(s.torpedoes))
	}
	tp := s.torpedoes[0]
	if tp.X != 0 || tp.Y != 0 {
		t.Errorf("expected torpedo at (0, 0), got (%g, %g)", tp.X, tp.Y)
	}
	if !approx(tp.VX, 0.34) || !approx(tp.VY, 0) {
		t.Errorf("expected velocity (0.34, 0), got (%g, %g)", tp.VX, tp.VY)
	}
	if tp.Owner != PlayerOne {
		t.Errorf("expected owner one, got %v", tp.Owner)
	}
}

func TestFireUnlimitedByDefault(t *testing.T) {
	s := newTestState(t, nil)
	for i := 0; i < 50; i++ {
		if err := s.ApplyInput(PlayerTwo, Fire); err != nil {
			t.Fatalf("fire %d: %v", i, err)
		}
	}
	if s.TorpedoCount() != 50 {
		t.Errorf("expected 50 torpedoes, got %d", s.TorpedoCount())
	}
}

func TestFireMaxTorpedoes(t *testing.T) {
	s := newTestState(t, func(c *MatchConfig) { c.Controls.MaxTorpedoes = 2 })
	s.ApplyInput(PlayerOne, Fire)
	s.ApplyInput(PlayerOne, Fire)
	if err := s.ApplyInput(PlayerOne, Fire); !errors.Is(err, ErrFireLimited) {
		t.Errorf("expected ErrFireLimited, got %v", err)
	}
	if s.TorpedoCount() != 2 {
		t.Errorf("expected 2 torpedoes, got %d", s.TorpedoCount())
	}
}

func TestFireMaxTorpedoesPerShip(t *testing.T) {
	s := newTestState(t, func(c *MatchConfig) { c.Controls.MaxTorpedoes = 2 })
	s.ApplyInput(PlayerOne, Fire)
	s.ApplyInput(PlayerOne, Fire)
	for i := 0; i < 2; i++ {
		if err := s.ApplyInput(PlayerTwo, Fire); err != nil {
			t.Fatalf("player two shot %d blocked by player one's torpedoes: %v", i, err)
		}
	}
	if err := s.ApplyInput(PlayerTwo, Fire); !errors.Is(err, ErrFireLimited) {
		t.Errorf("expected ErrFireLimited, got %v", err)
	}
	if s.TorpedoCount() != 4 {
		t.Errorf("expected 4 torpedoes, got %d", s.TorpedoCount())
	}
}

func TestFireCooldown(t *testing.T) {
	s := newTestState(t, func(c *MatchConfig) { c.Controls.FireCooldown = 0.5 })
	if err := s.ApplyInput(PlayerOne, Fire); err != nil {
		t.Fatalf("first shot: %v", err)
	}
	if err := s.ApplyInput(PlayerOne, Fire); !errors.Is(err, ErrFireLimited) {
		t.Errorf("expected ErrFireLimited, got %v", err)
	}
	// The other ship has its own cooldown
	if err := s.ApplyInput(PlayerTwo, Fire); err != nil {
		t.Errorf("player two should fire: %v", err)
	}

	s.Advance(0.2)
	s.Advance(0.2)
	s.Advance(0.2)
	if err := s.ApplyInput(PlayerOne, Fire); err != nil {
		t.Errorf("expected shot after cooldown, got %v", err)
	}
}

func TestApplyInputRejectsUnknown(t *testing.T) {
	s := newTestState(t, nil)
	if err := s.ApplyInput(PlayerID(3), Fire); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
	if err := s.ApplyInput(PlayerOne, Intent(9)); !errors.Is(err, ErrUnknownIntent) {
		t.Errorf("expected ErrUnknownIntent, got %v", err)
	}
}
