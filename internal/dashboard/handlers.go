package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/feed"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func (s *Server) render(w http.ResponseWriter, name string, data any, metricName string) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		s.metricsWrapper.ErrorsInc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.metricsWrapper.PageRendered(metricName)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleIndex serves the full dashboard page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "page", s.pageView(r), "index")
}

// handleWidget serves a single widget fragment for in-place reloads
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	switch name {
	case ResourceCharts:
		s.render(w, "charts", s.chartsView(r), name)
	case ResourceOrders:
		s.render(w, "orders", s.ordersView(), name)
	default:
		p, ok := s.panel(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.render(w, "panel", p, name)
	}
}

// actionContext bounds an order action and carries the caller's request ID.
func (s *Server) actionContext(r *http.Request) (context.Context, context.CancelFunc) {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	ctx := backend.WithRequestID(r.Context(), id)
	if s.writeTimeout > 0 {
		return context.WithTimeout(ctx, s.writeTimeout)
	}
	return context.WithCancel(ctx)
}

func ticketFrom(r *http.Request) (int64, bool) {
	ticket, err := strconv.ParseInt(mux.Vars(r)["ticket"], 10, 64)
	return ticket, err == nil
}

// handleClose closes a position; there is no confirmation step.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	ticket, ok := ticketFrom(r)
	if !ok {
		http.Error(w, "invalid ticket", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.actionContext(r)
	defer cancel()

	if _, err := s.orders.Close(ctx, backend.CloseRequest{Ticket: ticket}); err != nil {
		log.Error().Err(err).Int64("ticket", ticket).Msg("Close position failed")
	}
	s.Notify(ResourceOrders)
	http.Redirect(w, r, "/#positions", http.StatusSeeOther)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	ticket, ok := ticketFrom(r)
	if !ok {
		http.Error(w, "invalid ticket", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.actionContext(r)
	defer cancel()

	req := backend.ModifyRequest{Ticket: ticket, SL: r.PostForm.Get("sl"), TP: r.PostForm.Get("tp")}
	if _, err := s.orders.Modify(ctx, req); err != nil {
		log.Error().Err(err).Int64("ticket", ticket).Msg("Modify position failed")
	}
	s.Notify(ResourceOrders)
	http.Redirect(w, r, "/#positions", http.StatusSeeOther)
}

// handleOrder submits the order form. Values are forwarded unvalidated.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	orderType := r.PostForm.Get("type")
	if orderType == "" {
		orderType = "buy"
	}
	req := backend.OrderRequest{
		Symbol: r.PostForm.Get("symbol"),
		Type:   orderType,
		Size:   r.PostForm.Get("volume"),
		SL:     r.PostForm.Get("sl"),
		TP:     r.PostForm.Get("tp"),
	}

	ctx, cancel := s.actionContext(r)
	defer cancel()

	if _, err := s.orders.Send(ctx, req); err != nil {
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("Send order failed")
	}
	s.Notify(ResourceOrders)
	http.Redirect(w, r, "/#orders", http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	if err := s.hub.Refresh(resource); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Resources map[string]string `json:"resources"`
	Clients   int               `json:"clients"`
}

// handleHealth reports "ok" once every resource has loaded without error.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Resources: map[string]string{},
		Clients:   s.clientCount(),
	}
	for name, state := range s.hub.States() {
		resp.Resources[name] = state.String()
		if state != feed.Ready {
			resp.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
	}
}
