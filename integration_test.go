package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server with a Hub and returns
// the server, its WebSocket URL, and the hub.
func startTestServer(t *testing.T) (*httptest.Server, string, *Hub) {
	t.Helper()

	// Create a temp client dir with a minimal index.html
	tmpDir := t.TempDir()
	jsDir := filepath.Join(tmpDir, "js")
	os.MkdirAll(jsDir, 0o755)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)
	os.WriteFile(filepath.Join(jsDir, "main.js"), []byte("// test"), 0o644)

	cfg := DefaultServerConfig()
	cfg.ClientDir = tmpDir
	cfg.DBPath = filepath.Join(t.TempDir(), "arena.db")
	cfg.SeatSecret = "integration"
	cfg.PublicURL = "http://duel.test/"

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	journal := NewJournal(db)
	hub := NewHub(cfg, db, journal)
	stop := make(chan struct{})
	go hub.Run(stop)

	srv := httptest.NewServer(SetupRoutes(hub))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	t.Cleanup(func() {
		srv.Close()
		close(stop)
		hub.Shutdown()
		db.Close()
	})
	return srv, wsURL, hub
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads JSON messages until one of the given type arrives,
// skipping binary frames and other messages.
func readEnvelope(t *testing.T, conn *websocket.Conn, typ string) Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS waiting for %s: %v", typ, err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.T == typ {
			return env
		}
	}
}

// readFrame reads until a binary frame arrives and decodes it.
func readFrame(t *testing.T, conn *websocket.Conn) FrameState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS waiting for frame: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		var fs FrameState
		if err := msgpack.Unmarshal(raw, &fs); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return fs
	}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// createSession creates a session and returns its ID and seat token.
func createSession(t *testing.T, conn *websocket.Conn, sname string) (string, string) {
	t.Helper()
	sendMsg(t, conn, MsgCreate, map[string]string{"sname": sname})
	d := dataMap(t, readEnvelope(t, conn, MsgCreated))
	sid, _ := d["sid"].(string)
	token, _ := d["token"].(string)
	if sid == "" || token == "" {
		t.Fatalf("expected sid and token, got %v", d)
	}
	return sid, token
}

// joinSession joins with an optional token and returns the seated flag.
func joinSession(t *testing.T, conn *websocket.Conn, sid, token string) bool {
	t.Helper()
	sendMsg(t, conn, MsgJoin, map[string]string{"sid": sid, "token": token})
	d := dataMap(t, readEnvelope(t, conn, MsgJoined))
	if d["sid"] != sid {
		t.Fatalf("expected sid %s, got %v", sid, d["sid"])
	}
	return d["seated"] == true
}

// ---------- sessions ----------

func TestCreateJoinSeated(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)

	sid, token := createSession(t, c, "Arena")
	if !uuidRegex.MatchString(sid) {
		t.Errorf("session ID %q is not a valid UUID v4", sid)
	}
	if !joinSession(t, c, sid, token) {
		t.Error("expected seated with the creator's token")
	}
	fs := readFrame(t, c)
	if len(fs.Ships) != 2 {
		t.Errorf("expected 2 ships in frame, got %d", len(fs.Ships))
	}
}

func TestSpectatorCannotSteer(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	owner := dialWS(t, wsURL)
	sid, _ := createSession(t, owner, "Arena")

	watcher := dialWS(t, wsURL)
	if joinSession(t, watcher, sid, "") {
		t.Fatal("joining without a token should spectate")
	}
	sendMsg(t, watcher, MsgInput, map[string]interface{}{"p": 1, "i": "fire"})
	errMsg := readEnvelope(t, watcher, MsgError)
	if dataMap(t, errMsg)["msg"] != "not seated" {
		t.Errorf("expected not seated, got %v", dataMap(t, errMsg))
	}
}

func TestJoinWithWrongToken(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)
	sidA, _ := createSession(t, c, "A")
	_, tokenB := createSession(t, c, "B")

	sendMsg(t, c, MsgJoin, map[string]string{"sid": sidA, "token": tokenB})
	errMsg := readEnvelope(t, c, MsgError)
	if !strings.Contains(dataMap(t, errMsg)["msg"].(string), "invalid seat") {
		t.Errorf("expected invalid seat error, got %v", dataMap(t, errMsg))
	}
}

func TestJoinNonExistentSession(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)
	sendMsg(t, c, MsgJoin, map[string]string{"sid": "00000000-0000-4000-8000-000000000000"})
	errMsg := readEnvelope(t, c, MsgError)
	if dataMap(t, errMsg)["msg"] != "session not found" {
		t.Errorf("expected session not found, got %v", dataMap(t, errMsg))
	}
}

func TestInputReachesGame(t *testing.T) {
	_, wsURL, hub := startTestServer(t)
	c := dialWS(t, wsURL)
	sid, token := createSession(t, c, "Arena")
	joinSession(t, c, sid, token)

	// Messages are handled in order, so two torpedoes imply the thrust landed
	c.WriteMessage(websocket.BinaryMessage, EncodeBinaryInput(PlayerOne, Thrust))
	sendMsg(t, c, MsgInput, map[string]interface{}{"p": 1, "i": "fire"})
	sendMsg(t, c, MsgKey, map[string]int{"code": 32}) // player two fires

	game := hub.sessions.GetSession(sid).Game
	deadline := time.Now().Add(2 * time.Second)
	for game.state.TorpedoCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := game.state.TorpedoCount(); n != 2 {
		t.Fatalf("expected 2 torpedoes in flight, got %d", n)
	}
	game.state.mu.Lock()
	thrusting := game.state.ship(PlayerOne).VelMag > 0
	game.state.mu.Unlock()
	if !thrusting {
		t.Error("expected binary thrust to reach player one")
	}

	var sawTorpedo bool
	for i := 0; i < 10 && !sawTorpedo; i++ {
		sawTorpedo = len(readFrame(t, c).Torpedoes) > 0
	}
	if !sawTorpedo {
		t.Error("expected torpedoes in streamed frames")
	}
}

func TestBadInputReportsError(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)
	sid, token := createSession(t, c, "Arena")
	joinSession(t, c, sid, token)

	sendMsg(t, c, MsgInput, map[string]interface{}{"p": 1, "i": "warp"})
	errMsg := readEnvelope(t, c, MsgError)
	if !strings.Contains(dataMap(t, errMsg)["msg"].(string), "unknown intent") {
		t.Errorf("expected unknown intent, got %v", dataMap(t, errMsg))
	}
	sendMsg(t, c, MsgInput, map[string]interface{}{"p": 3, "i": "fire"})
	errMsg = readEnvelope(t, c, MsgError)
	if !strings.Contains(dataMap(t, errMsg)["msg"].(string), "unknown player") {
		t.Errorf("expected unknown player, got %v", dataMap(t, errMsg))
	}
}

func TestCheckSession(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c1 := dialWS(t, wsURL)
	sid, _ := createSession(t, c1, "Arena")

	c2 := dialWS(t, wsURL)
	sendMsg(t, c2, MsgCheck, map[string]string{"sid": sid})
	d := dataMap(t, readEnvelope(t, c2, MsgChecked))
	if d["exists"] != true || d["name"] != "Arena" {
		t.Errorf("unexpected check result %v", d)
	}

	sendMsg(t, c2, MsgCheck, map[string]string{"sid": "nope"})
	d = dataMap(t, readEnvelope(t, c2, MsgChecked))
	if d["exists"] != false {
		t.Errorf("expected exists=false, got %v", d)
	}
}

func TestListSessions(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)

	sendMsg(t, c, MsgList, nil)
	raw, _ := json.Marshal(readEnvelope(t, c, MsgSessions).Data)
	var sessions []SessionInfo
	json.Unmarshal(raw, &sessions)
	if len(sessions) != 0 {
		t.Errorf("expected 0 sessions, got %d", len(sessions))
	}

	c2 := dialWS(t, wsURL)
	sid, token := createSession(t, c2, "Arena1")
	joinSession(t, c2, sid, token)

	sendMsg(t, c, MsgList, nil)
	raw, _ = json.Marshal(readEnvelope(t, c, MsgSessions).Data)
	json.Unmarshal(raw, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Name != "Arena1" || sessions[0].Clients != 1 {
		t.Errorf("unexpected session %+v", sessions[0])
	}
}

func TestLeaveDetachesClient(t *testing.T) {
	_, wsURL, hub := startTestServer(t)
	c := dialWS(t, wsURL)
	sid, token := createSession(t, c, "Arena")
	joinSession(t, c, sid, token)

	game := hub.sessions.GetSession(sid).Game
	sendMsg(t, c, MsgLeave, nil)
	deadline := time.Now().Add(2 * time.Second)
	for game.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if game.ClientCount() != 0 {
		t.Error("client should be detached after leave")
	}
}

func TestUnknownMessageType(t *testing.T) {
	_, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)
	sendMsg(t, c, "teleport", nil)
	if dataMap(t, readEnvelope(t, c, MsgError))["msg"] != "unknown message type" {
		t.Error("expected unknown message type error")
	}
}

// ---------- HTTP routes ----------

func TestSPARouting(t *testing.T) {
	srv, _, _ := startTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/", 200},
		{"/3f2504e0-4f89-41d3-9a0c-0305e82c3301", 200},
		{"/js/main.js", 200},
		{"/not-a-uuid", 404},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := startTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body)
	}
}

func TestQRCode(t *testing.T) {
	srv, wsURL, _ := startTestServer(t)
	c := dialWS(t, wsURL)
	sid, _ := createSession(t, c, "Arena")

	resp, err := http.Get(srv.URL + "/qr?sid=" + sid)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected PNG, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("invalid PNG: %v", err)
	}

	resp2, err := http.Get(srv.URL + "/qr?sid=missing")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != 404 {
		t.Errorf("expected 404 for unknown session, got %d", resp2.StatusCode)
	}
}

func TestStatsAfterKill(t *testing.T) {
	srv, wsURL, hub := startTestServer(t)
	c := dialWS(t, wsURL)
	sid, _ := createSession(t, c, "Arena")

	joinSession(t, c, sid, "")

	game := hub.sessions.GetSession(sid).Game
	game.state.mu.Lock()
	placeTorpedo(game.state, PlayerOne, PlayerTwo, false)
	game.state.mu.Unlock()

	// The kill is journaled before it is broadcast
	kill := dataMap(t, readEnvelope(t, c, MsgKill))
	if kill["p"] != float64(PlayerTwo) || kill["by"] != float64(PlayerOne) {
		t.Fatalf("unexpected kill %v", kill)
	}
	hub.journal.Stop() // flush

	resp, err := http.Get(srv.URL + "/stats?sid=" + sid)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Counts map[string]int `json:"counts"`
		Kills  []KillRow      `json:"kills"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Counts[EvtKill] != 1 {
		t.Errorf("expected 1 kill recorded, got %v", body.Counts)
	}
	if len(body.Kills) != 1 || body.Kills[0].SessionID != sid || body.Kills[0].Victim != int(PlayerTwo) {
		t.Errorf("unexpected kills %+v", body.Kills)
	}

	bad, err := http.Get(srv.URL + "/stats?limit=-1")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != 400 {
		t.Errorf("expected 400 for bad limit, got %d", bad.StatusCode)
	}
}
