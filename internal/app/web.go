package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/culturelab/serlogger/internal/chart"
	"github.com/culturelab/serlogger/internal/sample"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// ServeWeb exposes the live renderer: the latest-sample JSON API, the full
// history, the windowed chart PNG redrawn per request, a websocket sample
// stream, and the static viewer page.
func (s *Session) ServeWeb() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/latest", s.handleLatest)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/chart.png", s.handleChart)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", s.cfg.WebServerPort)
	log.Printf("web: live view listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Session) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.store.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *Session) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.All()); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *Session) handleChart(w http.ResponseWriter, r *http.Request) {
	window := s.store.Window(s.cfg.WindowPoints())
	targets := chart.Targets{Temp: s.cfg.TargetTemp, CO2: s.cfg.TargetCO2}

	w.Header().Set("Content-Type", "image/png")
	if err := chart.RenderLive(window, targets, w); err != nil {
		log.Printf("web: chart render error: %v", err)
	}
}

func (s *Session) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// The viewer only listens; the read loop just detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsHub fans accepted samples out to every connected viewer.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *wsHub) broadcast(smp sample.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(smp); err != nil {
			log.Printf("web: websocket write error: %v", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
