package main

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgCreate = "create" // create session
	MsgJoin   = "join"
	MsgLeave  = "leave"
	MsgInput  = "input" // decoded intent
	MsgKey    = "key"   // raw key code, decoded with the server keymap
	MsgReset  = "reset" // rematch
	MsgList   = "list"  // list sessions
	MsgCheck  = "check" // check if session exists
)

// Server -> Client message types
const (
	MsgState     = "state" // sent as binary msgpack, see EncodeFrame
	MsgCreated   = "created"
	MsgJoined    = "joined"
	MsgKill      = "kill"
	MsgCollision = "collision"
	MsgSessions  = "sessions"
	MsgChecked   = "checked"
	MsgError     = "error"
)

// Binary input frames: [binaryInputTag, player<<4 | intent]
const binaryInputTag = 0x01

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; Data stays raw until the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputMsg carries one decoded intent. I is an intent name or number.
type InputMsg struct {
	P int    `json:"p"`
	I string `json:"i"`
}

// KeyMsg carries a browser key code
type KeyMsg struct {
	Code int `json:"code"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	SessionName string `json:"sname"`
}

// JoinMsg is sent to join a session. A valid seat token grants input rights,
// without one the connection only watches.
type JoinMsg struct {
	SessionID string `json:"sid"`
	Token     string `json:"token,omitempty"`
}

// CreatedMsg answers a create with the seat token for the new session
type CreatedMsg struct {
	SID   string `json:"sid"`
	Token string `json:"token"`
}

// JoinedMsg confirms a join
type JoinedMsg struct {
	SID    string `json:"sid"`
	Seated bool   `json:"seated"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Clients int    `json:"clients"`
	Scores  [2]int `json:"scores"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID    string `json:"sid"`
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// FrameState is one frame on the wire
type FrameState struct {
	Tick      uint64           `msgpack:"tick"`
	ElapsedMs int64            `msgpack:"ms"`
	Ships     []EntitySnapshot `msgpack:"s"`
	Torpedoes []EntitySnapshot `msgpack:"t"`
	Kill      *Event           `msgpack:"k,omitempty"`
	Events    []Event          `msgpack:"e,omitempty"`
	Scores    []int            `msgpack:"sc"`
}

// NewFrameState converts a report for the wire
func NewFrameState(r FrameReport) FrameState {
	return FrameState{
		Tick:      r.Tick,
		ElapsedMs: r.Elapsed.Milliseconds(),
		Ships:     []EntitySnapshot{r.ShipOne, r.ShipTwo},
		Torpedoes: r.Torpedoes,
		Kill:      r.Kill,
		Events:    r.Events,
		Scores:    r.Scores[:],
	}
}

// EncodeFrame msgpack-encodes a report
func EncodeFrame(r FrameReport) ([]byte, error) {
	return msgpack.Marshal(NewFrameState(r))
}

// DecodeBinaryInput unpacks a two-byte input frame
func DecodeBinaryInput(msg []byte) (PlayerID, Intent, bool) {
	if len(msg) != 2 || msg[0] != binaryInputTag {
		return 0, 0, false
	}
	p, i := PlayerID(msg[1]>>4), Intent(msg[1]&0x0f)
	if !p.Valid() || !i.Valid() {
		return 0, 0, false
	}
	return p, i, true
}

// EncodeBinaryInput packs an intent into a two-byte input frame
func EncodeBinaryInput(p PlayerID, i Intent) []byte {
	return []byte{binaryInputTag, byte(p)<<4 | byte(i)}
}
