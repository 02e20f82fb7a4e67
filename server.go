package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrSize          = 256
	defaultKillRows = 20
	maxKillRows     = 200
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	clientDir := hub.cfg.ClientDir

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and session paths
		if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade", "addr", ip, "err", err)
			return
		}

		client := NewClient(hub, conn, ip)
		if !hub.join(client) {
			conn.Close()
			return
		}
		hub.TrackConnect(ip)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		handleQR(hub, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": hub.sessions.Count(),
			"clients":  hub.ClientCount(),
			"uptime_s": int(time.Since(hub.started).Seconds()),
			"dropped":  hub.journal.Dropped(),
		})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		handleStats(hub, w, r)
	})

	return mux
}

// handleQR renders a PNG QR code linking to a session, for a second device
// to open the same duel
func handleQR(hub *Hub, w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")
	if hub.sessions.GetSession(sid) == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	link := strings.TrimRight(hub.cfg.PublicURL, "/") + "/" + sid
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		log.Error("qr encode", "sid", sid, "err", err)
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// handleStats reports journal aggregates. ?sid= narrows the counts to one
// session, ?limit= caps the recent kill list.
func handleStats(hub *Hub, w http.ResponseWriter, r *http.Request) {
	if hub.db == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	limit := defaultKillRows
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxKillRows)
	}
	counts, err := hub.db.EventCounts(r.URL.Query().Get("sid"))
	if err != nil {
		log.Error("stats", "err", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	kills, err := hub.db.RecentKills(limit)
	if err != nil {
		log.Error("stats", "err", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts": counts,
		"kills":  kills,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json", "err", err)
	}
}
