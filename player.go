package main

import (
	"fmt"
	"strconv"
)

// PlayerID identifies one of the two controllable ships.
type PlayerID int

const (
	PlayerOne PlayerID = 1
	PlayerTwo PlayerID = 2
)

// Spawn placement for a fresh duel.
const (
	PlayerOneSpawnX      = 0.341
	PlayerOneSpawnY      = 0.283
	PlayerOneSpawnFacing = 0.3
	PlayerTwoSpawnX      = -0.4
	PlayerTwoSpawnY      = -0.4
	PlayerTwoSpawnFacing = -0.3
)

// Valid reports whether id names one of the two ships.
func (id PlayerID) Valid() bool {
	return id == PlayerOne || id == PlayerTwo
}

// Opponent returns the other ship's ID.
func (id PlayerID) Opponent() PlayerID {
	if id == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// index maps the ID onto a [2]T slot.
func (id PlayerID) index() int {
	return int(id) - 1
}

func (id PlayerID) String() string {
	switch id {
	case PlayerOne:
		return "one"
	case PlayerTwo:
		return "two"
	}
	return "player(" + strconv.Itoa(int(id)) + ")"
}

// ParsePlayerID accepts "1", "2", "one" or "two".
func ParsePlayerID(s string) (PlayerID, error) {
	switch s {
	case "1", "one":
		return PlayerOne, nil
	case "2", "two":
		return PlayerTwo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlayer, s)
}

// NewShip places a ship at its spawn point, at rest.
func NewShip(id PlayerID) Vehicle {
	if id == PlayerTwo {
		return Vehicle{X: PlayerTwoSpawnX, Y: PlayerTwoSpawnY, Orientation: PlayerTwoSpawnFacing, VelAngle: PlayerTwoSpawnFacing}
	}
	return Vehicle{X: PlayerOneSpawnX, Y: PlayerOneSpawnY, Orientation: PlayerOneSpawnFacing, VelAngle: PlayerOneSpawnFacing}
}
