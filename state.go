package main

import (
	"fmt"
	"sync"
	"time"
)

// FrameReport is what one Advance hands to the renderer
type FrameReport struct {
	Tick      uint64
	Elapsed   time.Duration
	ShipOne   EntitySnapshot
	ShipTwo   EntitySnapshot
	Torpedoes []EntitySnapshot
	Kill      *Event // latest kill this frame, nil if none
	Events    []Event
	Scores    [2]int
}

// GameState owns every entity of a duel. Input handlers and the frame loop
// share it; a single mutex serializes them, so an intent never observes a
// half-advanced frame and vice versa.
type GameState struct {
	mu          sync.Mutex
	cfg         MatchConfig
	ships       [2]Vehicle
	controllers [2]*Controller
	torpedoes   []Torpedo
	hash        *SpatialHash

	startTime time.Time
	now       func() time.Time
	simTime   float64 // sum of clamped frame deltas
	tick      uint64
	scores    [2]int
	lastKill  *Event
}

// NewGameState sets up a duel with both ships at their spawn points
func NewGameState(cfg MatchConfig) (*GameState, error) {
	return newGameStateAt(cfg, time.Now)
}

func newGameStateAt(cfg MatchConfig, now func() time.Time) (*GameState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != ModeLocal {
		return nil, fmt.Errorf("%w: %s", ErrModeUnsupported, cfg.Mode)
	}
	s := &GameState{
		cfg:       cfg,
		hash:      NewSpatialHash(cfg.Hash),
		startTime: now(),
		now:       now,
	}
	s.controllers[PlayerOne.index()] = NewController(PlayerOne, cfg.Controls)
	s.controllers[PlayerTwo.index()] = NewController(PlayerTwo, cfg.Controls)
	s.spawn()
	return s, nil
}

func (s *GameState) spawn() {
	s.ships[PlayerOne.index()] = NewShip(PlayerOne)
	s.ships[PlayerTwo.index()] = NewShip(PlayerTwo)
	s.torpedoes = s.torpedoes[:0]
}

func (s *GameState) ship(id PlayerID) *Vehicle {
	return &s.ships[id.index()]
}

// Config returns the rules this state was built with
func (s *GameState) Config() MatchConfig {
	return s.cfg
}

// Elapsed is the wall-clock time since the session started
func (s *GameState) Elapsed() time.Duration {
	return s.now().Sub(s.startTime)
}

// ApplyInput applies one decoded intent to a ship immediately.
func (s *GameState) ApplyInput(player PlayerID, intent Intent) error {
	if !player.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, int(player))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers[player.index()].apply(s, intent)
}

// Advance runs one frame: integrate, detect, resolve. dt is in seconds.
func (s *GameState) Advance(dt float64) FrameReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt = clampDelta(dt, s.cfg.MaxFrameDelta)
	s.tick++
	s.simTime += dt

	outOfBounds := integrate(s, dt)
	pairs := s.detect(outOfBounds)
	events := resolve(s, pairs, outOfBounds)

	report := s.reportLocked(events)
	s.lastKill = nil
	return report
}

// detect rebuilds the spatial hash from current positions. Torpedoes that
// left the arena this frame are not inserted.
func (s *GameState) detect(outOfBounds []int) []CollisionPair {
	s.hash.Clear()
	for _, id := range []PlayerID{PlayerOne, PlayerTwo} {
		sh := s.ship(id)
		s.hash.Insert(sh.X, sh.Y, s.cfg.Hash.ShipRadiusCells, EntityRef{Kind: KindShip, Idx: int(id)})
	}
	skip := 0
	for i := range s.torpedoes {
		if skip < len(outOfBounds) && outOfBounds[skip] == i {
			skip++
			continue
		}
		t := &s.torpedoes[i]
		s.hash.Insert(t.X, t.Y, s.cfg.Hash.TorpedoRadiusCells, EntityRef{Kind: KindTorpedo, Idx: i})
	}
	return s.hash.Pairs()
}

// Snapshot reports the current state without advancing it
func (s *GameState) Snapshot() FrameReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportLocked(nil)
}

func (s *GameState) reportLocked(events []Event) FrameReport {
	r := FrameReport{
		Tick:      s.tick,
		Elapsed:   s.Elapsed(),
		ShipOne:   s.ship(PlayerOne).Snapshot(),
		ShipTwo:   s.ship(PlayerTwo).Snapshot(),
		Torpedoes: make([]EntitySnapshot, len(s.torpedoes)),
		Events:    events,
		Scores:    s.scores,
	}
	for i := range s.torpedoes {
		r.Torpedoes[i] = s.torpedoes[i].Snapshot()
	}
	if s.lastKill != nil {
		k := *s.lastKill
		r.Kill = &k
	}
	return r
}

// Reset puts both ships back at spawn for a rematch and zeroes the score.
func (s *GameState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawn()
	s.scores = [2]int{}
	s.lastKill = nil
	for _, c := range s.controllers {
		c.reset()
	}
}

// TorpedoCount returns the number of torpedoes in flight
func (s *GameState) TorpedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.torpedoes)
}

// Scores returns kills per player, indexed [one, two]
func (s *GameState) Scores() [2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores
}
