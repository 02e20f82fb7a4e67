package main

import (
	"slices"
	"sort"
)

// EventKind classifies a frame event
type EventKind string

const (
	EventKill             EventKind = "kill"
	EventVehicleCollision EventKind = "collision"
)

// Event is an outcome of one frame for the renderer to react to. For kills
// Player is the struck ship and By the ship credited; for vehicle collisions
// both are zero and the position is the contact midpoint.
type Event struct {
	Kind   EventKind `json:"k" msgpack:"k"`
	Player PlayerID  `json:"p,omitempty" msgpack:"p,omitempty"`
	By     PlayerID  `json:"by,omitempty" msgpack:"by,omitempty"`
	X      float64   `json:"x" msgpack:"x"`
	Y      float64   `json:"y" msgpack:"y"`
}

// resolve turns the detector's pairs into events and applies torpedo
// removals. Rules run in a fixed order: ship-ship contact, torpedo hits,
// out-of-bounds torpedoes, expired torpedoes. Nothing is removed until every
// rule has run. Caller holds the state lock.
func resolve(s *GameState, pairs []CollisionPair, outOfBounds []int) []Event {
	var events []Event
	var removals []int
	removed := make(map[int]bool)
	remove := func(i int) {
		if !removed[i] {
			removed[i] = true
			removals = append(removals, i)
		}
	}

	for _, p := range pairs {
		if p.A.Kind != KindShip || p.B.Kind != KindShip {
			continue
		}
		one, two := s.ship(PlayerOne), s.ship(PlayerTwo)
		events = append(events, Event{
			Kind: EventVehicleCollision,
			X:    torusMidpoint(one.X, two.X),
			Y:    torusMidpoint(one.Y, two.Y),
		})
		if s.cfg.ShipCollisionFatal {
			events = append(events, s.recordKill(PlayerOne, PlayerTwo))
			events = append(events, s.recordKill(PlayerTwo, PlayerOne))
		}
	}

	// Ship refs sort before torpedo refs, so A is always the ship here.
	touchingOwner := make(map[int]bool)
	for _, p := range pairs {
		if p.A.Kind != KindShip || p.B.Kind != KindTorpedo {
			continue
		}
		victim, i := PlayerID(p.A.Idx), p.B.Idx
		if removed[i] {
			continue
		}
		t := &s.torpedoes[i]
		if t.Owner == victim {
			touchingOwner[i] = true
			if !s.cfg.FriendlyFire || !t.Armed {
				continue
			}
		}
		events = append(events, s.recordKill(victim, t.Owner))
		remove(i)
	}

	for _, i := range outOfBounds {
		remove(i)
	}

	if s.cfg.TorpedoLifetime > 0 {
		for i := range s.torpedoes {
			if s.torpedoes[i].Expired(s.simTime, s.cfg.TorpedoLifetime) {
				remove(i)
			}
		}
	}

	for i := range s.torpedoes {
		if !touchingOwner[i] {
			s.torpedoes[i].Armed = true
		}
	}

	s.torpedoes = removeIndices(s.torpedoes, removals)
	return events
}

// recordKill credits a kill against victim and remembers it as the latest
// kill for the renderer.
func (s *GameState) recordKill(victim, by PlayerID) Event {
	ship := s.ship(victim)
	ev := Event{Kind: EventKill, Player: victim, By: by, X: ship.X, Y: ship.Y}
	s.scores[victim.Opponent().index()]++
	kill := ev
	s.lastKill = &kill
	return ev
}

// removeIndices deletes the given indices from list in one pass, highest
// first, so earlier indices stay valid while later ones go.
func removeIndices[T any](list []T, indices []int) []T {
	if len(indices) == 0 {
		return list
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, i := range indices {
		list = slices.Delete(list, i, i+1)
	}
	return list
}
