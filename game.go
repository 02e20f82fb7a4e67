package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultTickRate      = 60 // frames per second
	DefaultBroadcastRate = 30 // frames sent to clients per second
)

const maxClientsPerSession = 8

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game drives one duel: it ticks the GameState at a fixed rate, measuring
// the real delta between frames, and streams frames to attached clients.
type Game struct {
	ID      string
	state   *GameState
	keymap  Keymap
	journal *Journal

	mu       sync.RWMutex
	clients  map[string]Broadcaster
	running  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	tickRate       int
	broadcastEvery uint64
	now            func() time.Time
	lastFrame      time.Time
}

// GameOptions carries driver settings that are not rules of the duel
type GameOptions struct {
	TickRate      int
	BroadcastRate int
	Keymap        Keymap
	Journal       *Journal
}

// NewGame creates a Game for the given rules
func NewGame(id string, cfg MatchConfig, opts GameOptions) (*Game, error) {
	state, err := NewGameState(cfg)
	if err != nil {
		return nil, err
	}
	tickRate := opts.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	broadcastRate := opts.BroadcastRate
	if broadcastRate <= 0 || broadcastRate > tickRate {
		broadcastRate = tickRate
	}
	keymap := opts.Keymap
	if keymap == nil {
		keymap = DefaultKeymap()
	}
	return &Game{
		ID:             id,
		state:          state,
		keymap:         keymap,
		journal:        opts.Journal,
		clients:        make(map[string]Broadcaster),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		tickRate:       tickRate,
		broadcastEvery: uint64(tickRate / broadcastRate),
		now:            time.Now,
	}, nil
}

// Run starts the frame loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()
	defer close(g.done)

	g.journal.Track(EvtSessionStart, g.ID, 0, "")
	log.Info("session started", "sid", g.ID, "tick_rate", g.tickRate)

	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.step()
		case <-g.stop:
			scores := g.state.Scores()
			g.journal.Track(EvtSessionEnd, g.ID, 0, scoresJSON(scores))
			log.Info("session stopped", "sid", g.ID, "score_one", scores[0], "score_two", scores[1])
			return
		}
	}
}

// Stop terminates the frame loop and waits for it to exit if it was
// running. Safe to call more than once.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.mu.RLock()
	running := g.running
	g.mu.RUnlock()
	if running {
		<-g.done
	}
}

// step measures the delta since the previous frame and advances the state.
// The first frame after start advances by zero.
func (g *Game) step() FrameReport {
	now := g.now()
	var dt float64
	if !g.lastFrame.IsZero() {
		dt = now.Sub(g.lastFrame).Seconds()
	}
	g.lastFrame = now

	report := g.state.Advance(dt)
	for _, ev := range report.Events {
		g.announce(ev)
	}
	if report.Tick%g.broadcastEvery == 0 || len(report.Events) > 0 {
		g.broadcastFrame(report)
	}
	return report
}

// announce logs and journals one event and pushes it to clients as JSON
func (g *Game) announce(ev Event) {
	data, _ := json.Marshal(ev)
	switch ev.Kind {
	case EventKill:
		log.Info("kill", "sid", g.ID, "victim", ev.Player, "by", ev.By, "x", ev.X, "y", ev.Y)
		g.journal.Track(EvtKill, g.ID, ev.Player, string(data))
		g.broadcastMsg(Envelope{T: MsgKill, Data: ev})
	case EventVehicleCollision:
		log.Debug("vehicle collision", "sid", g.ID, "x", ev.X, "y", ev.Y)
		g.journal.Track(EvtCollision, g.ID, 0, string(data))
		g.broadcastMsg(Envelope{T: MsgCollision, Data: ev})
	}
}

// HandleIntent applies a decoded intent
func (g *Game) HandleIntent(player PlayerID, intent Intent) error {
	return g.state.ApplyInput(player, intent)
}

// HandleKey decodes a key code with the session keymap and applies it.
// Unbound keys are ignored.
func (g *Game) HandleKey(code int) error {
	b, ok := g.keymap.Decode(code)
	if !ok {
		return nil
	}
	return g.state.ApplyInput(b.Player, b.Intent)
}

// Reset starts a rematch
func (g *Game) Reset() {
	g.state.Reset()
	g.journal.Track(EvtRematch, g.ID, 0, "")
	g.broadcastFrame(g.state.Snapshot())
}

// Snapshot returns the current frame without advancing
func (g *Game) Snapshot() FrameReport {
	return g.state.Snapshot()
}

// Scores returns kills per player
func (g *Game) Scores() [2]int {
	return g.state.Scores()
}

// AddClient attaches a connection. Returns false when the session is full.
func (g *Game) AddClient(id string, client Broadcaster) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.clients[id]; !ok && len(g.clients) >= maxClientsPerSession {
		return false
	}
	g.clients[id] = client
	return true
}

// RemoveClient detaches a connection
func (g *Game) RemoveClient(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, id)
}

// ClientCount returns the number of attached connections
func (g *Game) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

func (g *Game) broadcastFrame(r FrameReport) {
	data, err := EncodeFrame(r)
	if err != nil {
		log.Error("encode frame", "sid", g.ID, "err", err)
		return
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.clients {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.clients {
		c.SendJSON(msg)
	}
}

func scoresJSON(s [2]int) string {
	b, _ := json.Marshal(map[string]int{"one": s[0], "two": s[1]})
	return string(b)
}
