package main

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4096
	sendBufSize        = 256
	maxMessagesPerSec  = 120 // two players share one keyboard
	maxSessionNameLen  = 30
	defaultSessionName = "Torpedo Duel"
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	mu        sync.Mutex
	sessionID string
	seated    bool // holds a valid seat token for sessionID
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(8),
		remoteAddr: remoteAddr,
	}
}

// Session returns the joined session ID, or ""
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) seat() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.seated
}

func (c *Client) setSession(sid string, seated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sid
	c.seated = seated
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ws error", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Warn("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send may already be closed
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug("unmarshal", "addr", c.remoteAddr, "err", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgKey:
		c.handleKey(env.D)
	case MsgReset:
		c.handleReset()
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad create message")
			return
		}
	}
	sname := msg.SessionName
	if sname == "" {
		sname = defaultSessionName
	}
	if len(sname) > maxSessionNameLen {
		sname = sname[:maxSessionNameLen]
	}

	sess, err := c.hub.sessions.CreateSession(sname)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	token, err := c.hub.seats.Issue(sess.ID)
	if err != nil {
		log.Error("issue seat", "sid", sess.ID, "err", err)
		c.sendError("could not issue seat")
		return
	}

	c.hub.sessions.MarkActive(sess.ID)
	log.Info("session created", "sid", sess.ID, "name", sname, "addr", c.remoteAddr)
	c.SendJSON(Envelope{T: MsgCreated, Data: CreatedMsg{SID: sess.ID, Token: token}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad join message")
		return
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	seated := false
	if msg.Token != "" {
		if err := c.hub.seats.Verify(msg.Token, sess.ID); err != nil {
			c.sendError(err.Error())
			return
		}
		seated = true
	}

	c.handleLeave()
	if !sess.Game.AddClient(c.id, c) {
		c.sendError("session full")
		return
	}
	c.setSession(sess.ID, seated)
	c.hub.sessions.MarkActive(sess.ID)

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{SID: sess.ID, Seated: seated}})
	if frame, err := EncodeFrame(sess.Game.Snapshot()); err == nil {
		c.SendBinary(frame)
	}
}

// seatedGame returns the session's game if this connection may drive it
func (c *Client) seatedGame() *Game {
	sid, seated := c.seat()
	if sid == "" || !seated {
		return nil
	}
	sess := c.hub.sessions.GetSession(sid)
	if sess == nil {
		return nil
	}
	return sess.Game
}

// handleBinaryInput decodes a compact two-byte input frame
func (c *Client) handleBinaryInput(msg []byte) {
	player, intent, ok := DecodeBinaryInput(msg)
	if !ok {
		return
	}
	game := c.seatedGame()
	if game == nil {
		return
	}
	c.reportInputErr(game.HandleIntent(player, intent))
}

func (c *Client) handleInput(data json.RawMessage) {
	game := c.seatedGame()
	if game == nil {
		c.sendError("not seated")
		return
	}
	var msg InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad input message")
		return
	}
	intent, err := ParseIntent(msg.I)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.reportInputErr(game.HandleIntent(PlayerID(msg.P), intent))
}

func (c *Client) handleKey(data json.RawMessage) {
	game := c.seatedGame()
	if game == nil {
		c.sendError("not seated")
		return
	}
	var msg KeyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad key message")
		return
	}
	c.reportInputErr(game.HandleKey(msg.Code))
}

// reportInputErr tells the client about rejected input. A fire blocked by
// cooldown is routine and stays silent.
func (c *Client) reportInputErr(err error) {
	if err == nil || errors.Is(err, ErrFireLimited) {
		return
	}
	c.sendError(err.Error())
}

func (c *Client) handleReset() {
	game := c.seatedGame()
	if game == nil {
		c.sendError("not seated")
		return
	}
	game.Reset()
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:    msg.SID,
		Exists: true,
		Name:   sess.Name,
	}})
}

func (c *Client) handleLeave() {
	if sid := c.Session(); sid != "" {
		c.hub.sessions.RemoveClient(sid, c.id)
		c.setSession("", false)
	}
}
