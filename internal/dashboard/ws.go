package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// clientBroadcaster sends queued updates to all connected WebSocket clients
func (s *Server) clientBroadcaster() {
	for {
		select {
		case u := <-s.broadcastChannel:
			s.broadcastToClients(u)
		case <-s.stopChannel:
			return
		}
	}
}

// broadcastToClients writes one update to every client; clients that cannot
// keep up are dropped.
func (s *Server) broadcastToClients(u Update) {
	data, err := json.Marshal(u)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal update for broadcast")
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Msg("Dropping WebSocket client")
			client.Close()
			delete(s.clients, client)
			s.metricsWrapper.WSClients().Add(-1)
		}
	}
	s.metricsWrapper.WSMessagesSent().Inc()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.metricsWrapper.WSClients().Set(0)
}

func (s *Server) clientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// handleWebSocket registers a client for update notifications
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	s.metricsWrapper.WSClients().Add(1)

	// Keep connection alive; the page never sends anything meaningful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		s.metricsWrapper.WSClients().Add(-1)
	}
	s.clientsMu.Unlock()
}
