// Package debugserver exposes an HTTP/WebSocket inspection and
// injection surface over the on-board core, grounded on
// Costigan-warp/server/server.go's gorilla/mux + gorilla/websocket
// ground-telemetry-session pattern, adapted from a packet-stream
// viewer into a TC-injection and state-inspection surface for the
// dispatcher this module implements.
package debugserver

import (
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

// Inspectable is implemented by anything the server can render as a
// JSON snapshot: the schedule, housekeeping and event-action
// packages each expose one.
type Inspectable interface {
	Snapshot() interface{}
}

// Server is the debug HTTP/WS surface. Dispatch ingests an injected
// TC; Schedule/Housekeeping/Events/EventAction back the corresponding
// read-only inspection routes.
type Server struct {
	Options    ccsds.Options
	Context    *dispatch.Context
	Dispatcher *dispatch.Dispatcher

	Schedule     Inspectable
	Housekeeping Inspectable
	Events       Inspectable
	EventAction  Inspectable

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds a Server; call Handler to obtain its http.Handler.
func New() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler builds the mux.Router exposing every debug route.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/schedule", s.handleSnapshot(func() Inspectable { return s.Schedule })).Methods(http.MethodGet)
	r.HandleFunc("/housekeeping", s.handleSnapshot(func() Inspectable { return s.Housekeeping })).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleSnapshot(func() Inspectable { return s.Events })).Methods(http.MethodGet)
	r.HandleFunc("/eventaction", s.handleSnapshot(func() Inspectable { return s.EventAction })).Methods(http.MethodGet)
	r.HandleFunc("/tc", s.handleInjectTC).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleSnapshot(get func() Inspectable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insp := get()
		if insp == nil {
			http.Error(w, "not available", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(insp.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type injectRequest struct {
	Hex string `json:"hex"`
}

// handleInjectTC accepts a hex-encoded composed TC packet, parses it,
// and routes it through the dispatcher exactly as the uplink task
// would, per spec.md §6's TCHandlingTask collaborator.
func (s *Server) handleInjectTC(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := hex.DecodeString(req.Hex)
	if err != nil {
		http.Error(w, "invalid hex", http.StatusBadRequest)
		return
	}
	msg, err := ccsds.Parse(s.Options, data, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Dispatcher.Dispatch(s.Context, msg); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("debugserver: upgrade failed: %v", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastTM pushes a composed TM packet's bytes to every connected
// websocket client, hex-encoded for readability over the wire.
func (s *Server) BroadcastTM(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := hex.EncodeToString(data)
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			log.Printf("debugserver: write failed: %v", err)
		}
	}
}
