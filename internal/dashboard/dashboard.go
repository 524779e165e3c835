// Package dashboard serves the operator web page. It renders every widget on
// the server, accepts the order and position forms, and pushes "resource
// updated" notifications over a WebSocket so open pages reload the affected
// widgets.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"quantum-dashboard/internal/charts"
	"quantum-dashboard/internal/feed"
	"quantum-dashboard/internal/metrics"
	"quantum-dashboard/internal/orders"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Widgets that are not bound to a single backend subscription.
const (
	ResourceCharts = "charts"
	ResourceOrders = "orders"
)

// Update is the message pushed to WebSocket clients.
type Update struct {
	Resource string `json:"resource"`
	State    string `json:"state,omitempty"`
}

// Server is the dashboard web front-end.
type Server struct {
	hub            *feed.Hub                // Shared resource subscriptions
	orders         *orders.Manager          // Operator actions
	orchestrator   *charts.Orchestrator     // Chart selection and rendering
	metricsWrapper *metrics.MetricsWrapper  // Metrics for pages and push channel
	writeTimeout   time.Duration            // Deadline applied to order actions
	templates      *template.Template       // Parsed page and fragment templates
	router         *mux.Router              // Routes, exposed through Handler
	server         *http.Server             // HTTP server for the dashboard
	upgrader       websocket.Upgrader       // WebSocket upgrader for push updates
	clients        map[*websocket.Conn]bool // Connected WebSocket clients
	clientsMu      sync.RWMutex             // Mutex for client map access

	broadcastChannel chan Update   // Channel for broadcasting updates
	stopChannel      chan struct{} // Channel for shutdown signaling
	isRunning        bool
	mu               sync.RWMutex
}

// NewServer wires the dashboard routes on the given port. Subscription
// updates from hub are pushed to connected pages.
func NewServer(hub *feed.Hub, manager *orders.Manager, orchestrator *charts.Orchestrator,
	metricsWrapper *metrics.MetricsWrapper, port int, writeTimeout time.Duration) (*Server, error) {
	tmpl, err := template.New("dashboard").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		hub:              hub,
		orders:           manager,
		orchestrator:     orchestrator,
		metricsWrapper:   metricsWrapper,
		writeTimeout:     writeTimeout,
		templates:        tmpl,
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]bool),
		broadcastChannel: make(chan Update, 100),
		stopChannel:      make(chan struct{}),
	}
	hub.OnUpdate(s.Notify)

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/widgets/{name}", s.handleWidget).Methods("GET")
	r.HandleFunc("/positions/{ticket:[0-9]+}/close", s.handleClose).Methods("POST")
	r.HandleFunc("/positions/{ticket:[0-9]+}/modify", s.handleModify).Methods("POST")
	r.HandleFunc("/orders", s.handleOrder).Methods("POST")
	r.HandleFunc("/refresh/{resource}", s.handleRefresh).Methods("POST")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the broadcaster and the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go s.clientBroadcaster()

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	log.Info().Msg("Dashboard started successfully")
	return nil
}

// Stop closes every WebSocket client and shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)
	s.closeClients()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

// Notify queues an update for the named resource. It never blocks.
func (s *Server) Notify(resource string) {
	u := Update{Resource: resource}
	if state, ok := s.hub.States()[resource]; ok {
		u.State = state.String()
	}

	select {
	case s.broadcastChannel <- u:
	default:
		log.Warn().Str("resource", resource).Msg("Broadcast channel full, dropping update")
	}
}
