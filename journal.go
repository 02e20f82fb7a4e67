package main

import (
	"database/sql"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Event types recorded in the journal
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtKill         = "kill"
	EvtCollision    = "vehicle_collision"
	EvtRematch      = "rematch"
)

const (
	journalQueueSize = 1024
	journalBatchSize = 50
)

var journalFlushInterval = 5 * time.Second

// JournalEvent is a single recorded event
type JournalEvent struct {
	Type      string
	SessionID string
	Player    PlayerID
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Journal appends match events to the database from a background writer.
// It is write-only: nothing read back from it ever reaches a running game.
// A nil *Journal discards everything.
type Journal struct {
	db     *DB
	events chan JournalEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped uint64
	once    sync.Once
}

// NewJournal creates and starts the journal writer
func NewJournal(db *DB) *Journal {
	j := &Journal{
		db:     db,
		events: make(chan JournalEvent, journalQueueSize),
		stop:   make(chan struct{}),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// Track enqueues an event for async persistence (non-blocking)
func (j *Journal) Track(evtType, sessionID string, player PlayerID, data string) {
	if j == nil {
		return
	}
	select {
	case j.events <- JournalEvent{
		Type:      evtType,
		SessionID: sessionID,
		Player:    player,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Queue full: drop rather than stall the frame loop
		j.mu.Lock()
		j.dropped++
		j.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the queue was full
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Stop flushes pending events and shuts down the writer
func (j *Journal) Stop() {
	if j == nil {
		return
	}
	j.once.Do(func() { close(j.stop) })
	j.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (j *Journal) writer() {
	defer j.wg.Done()

	batch := make([]JournalEvent, 0, journalBatchSize)
	ticker := time.NewTicker(journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-j.events:
			batch = append(batch, evt)
			if len(batch) >= journalBatchSize {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-j.stop:
			// Drain what is already queued
		drain:
			for {
				select {
				case evt := <-j.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				j.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (j *Journal) flush(events []JournalEvent) {
	if j.db == nil || len(events) == 0 {
		return
	}
	tx, err := j.db.conn.Begin()
	if err != nil {
		log.Error("journal: begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO journal_events (event_type, session_id, player, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Error("journal: prepare", "err", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		player := sql.NullInt64{Int64: int64(evt.Player), Valid: evt.Player.Valid()}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, sid, player, data, evt.Timestamp.Format(time.RFC3339Nano)); err != nil {
			log.Error("journal: insert", "type", evt.Type, "err", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error("journal: commit", "err", err)
	}
}
