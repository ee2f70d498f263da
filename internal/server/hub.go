package server

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/progress"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The host binds to localhost and serves its own UI; cross-origin
	// WebSocket hijacking is not a concern for this surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushMessage is one frame on a surface's event channel.
type pushMessage struct {
	Type      string          `json:"type"`
	SurfaceID string          `json:"surface_id,omitempty"`
	Event     *progress.Event `json:"event,omitempty"`
	ID        int64           `json:"id,omitempty"`
	Data      string          `json:"data,omitempty"`
	ExitCode  *int            `json:"exit_code,omitempty"`
}

// surface is one connected UI window. The mutex serializes frame writes;
// gorilla connections do not allow concurrent writers.
type surface struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub tracks live UI surfaces and routes push notifications to them.
// Sending to a surface that has disconnected is an explicit no-op at send
// time — nothing is queued for dead surfaces.
//
// Hub implements terminal.Sink.
type Hub struct {
	mu       sync.Mutex
	surfaces map[string]*surface
}

func NewHub() *Hub {
	return &Hub{surfaces: make(map[string]*surface)}
}

// HandleWS upgrades the connection, assigns a surface id, and keeps the
// surface registered until the peer disconnects. The first frame is always
// the hello carrying the assigned id.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already wrote the response
	}

	id := uuid.NewString()
	s := &surface{conn: conn}

	h.mu.Lock()
	h.surfaces[id] = s
	h.mu.Unlock()

	log.Info().Str("surface_id", id).Msg("UI surface connected")

	s.write(pushMessage{Type: "hello", SurfaceID: id})

	// Inbound frames are not part of the protocol; the read loop only
	// notices disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.surfaces, id)
	h.mu.Unlock()
	_ = conn.Close()

	log.Info().Str("surface_id", id).Msg("UI surface disconnected")
}

// send routes one frame to a surface, dropping it when the surface is gone.
func (h *Hub) send(surfaceID string, msg pushMessage) {
	h.mu.Lock()
	s := h.surfaces[surfaceID]
	h.mu.Unlock()
	if s == nil {
		return
	}
	s.write(msg)
}

func (s *surface) write(msg pushMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Msg("surface write failed")
	}
}

// UploadProgress pushes an analysis progress event to its surface.
func (h *Hub) UploadProgress(surfaceID string, e progress.Event) {
	h.send(surfaceID, pushMessage{Type: "uploadProgress", Event: &e})
}

// TerminalData forwards shell output to the surface owning the session.
func (h *Hub) TerminalData(surfaceID string, id int64, data []byte) {
	h.send(surfaceID, pushMessage{
		Type: "terminalData",
		ID:   id,
		Data: base64.StdEncoding.EncodeToString(data),
	})
}

// TerminalExit tells the owning surface that a session is gone. This is the
// last frame sent for that session id.
func (h *Hub) TerminalExit(surfaceID string, id int64, exitCode int) {
	h.send(surfaceID, pushMessage{Type: "terminalExit", ID: id, ExitCode: &exitCode})
}

// CloseAll disconnects every surface; used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*surface, 0, len(h.surfaces))
	for id, s := range h.surfaces {
		conns = append(conns, s)
		delete(h.surfaces, id)
	}
	h.mu.Unlock()

	for _, s := range conns {
		_ = s.conn.Close()
	}
}
