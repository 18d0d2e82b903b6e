package server

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hupe1980/grocerymesh/agent"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/engine"
)

type catalogResponse struct {
	Items   []core.CatalogItem `json:"items"`
	Recipes []core.Recipe      `json:"recipes"`
}

type cartResponse struct {
	Lines   []core.CartLine `json:"lines"`
	Total   int             `json:"total"`
	Summary string          `json:"summary"`
}

type addItemRequest struct {
	Item     string `json:"item"`
	Quantity *int   `json:"quantity,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type lineResponse struct {
	Line    core.CartLine `json:"line"`
	Message string        `json:"message"`
}

type recipeResponse struct {
	Recipe core.Recipe `json:"recipe"`
	Added  []string    `json:"added"`
}

type ordersResponse struct {
	Orders []core.IndexEntry `json:"orders"`
}

type statusResponse struct {
	OrderID        string           `json:"orderId"`
	Status         core.OrderStatus `json:"status"`
	PreviousStatus core.OrderStatus `json:"previousStatus,omitempty"`
	Changed        bool             `json:"changed"`
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	ids := slices.Collect(s.sessions.IDs())
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: ids})
}

// deleteSession discards the session's cart. Placed orders stay in the ledger.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: "The " + HeaderSessionID + " header is required."})
		return
	}
	sess, ok := s.sessions.Lookup(id)
	if !ok || !s.sessions.Delete(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "SESSION_NOT_FOUND", Message: "Session " + id + " not found."})
		return
	}
	lines, _ := sess.Engine.Lines()
	s.logger.Info("server.session.ended", "session_id", id, "cart_lines", len(lines))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		it, ok := s.catalog.FindItem(q)
		if !ok {
			s.writeError(w, r, core.NewError(core.KindItemNotFound, "Item '%s' not found in catalog.", q))
			return
		}
		writeJSON(w, http.StatusOK, it)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Items:   slices.Collect(s.catalog.Items()),
		Recipes: slices.Collect(s.catalog.Recipes()),
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	lines, total := sessionFrom(r.Context()).Engine.Lines()
	writeJSON(w, http.StatusOK, cartResponse{Lines: lines, Total: total, Summary: engine.RenderCart(lines, total)})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Engine.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	line, err := sessionFrom(r.Context()).Engine.Add(r.Context(), req.Item, qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lineResponse{Line: line, Message: "Added to your cart."})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	line, err := sessionFrom(r.Context()).Engine.Update(r.Context(), mux.Vars(r)["item"], req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg := "Quantity updated."
	if line.Quantity == 0 {
		msg = "Removed from your cart."
	}
	writeJSON(w, http.StatusOK, lineResponse{Line: line, Message: msg})
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	line, err := sessionFrom(r.Context()).Engine.Remove(r.Context(), mux.Vars(r)["item"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lineResponse{Line: line, Message: "Removed from your cart."})
}

func (s *Server) expandRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, added, err := sessionFrom(r.Context()).Engine.Expand(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeResponse{Recipe: recipe, Added: added})
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var customer core.Customer
	if err := decodeBody(r, &customer); err != nil {
		badRequest(w, err)
		return
	}

	o, err := sessionFrom(r.Context()).Engine.Place(r.Context(), customer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	seq, err := sessionFrom(r.Context()).Engine.History(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orders := slices.Collect(seq)
	if orders == nil {
		orders = []core.IndexEntry{}
	}
	writeJSON(w, http.StatusOK, ordersResponse{Orders: orders})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	o, ok := sessionFrom(r.Context()).Engine.Order(r.Context(), id)
	if !ok {
		s.writeError(w, r, core.NewError(core.KindOrderNotFound, "Order %s not found.", id))
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) trackOrder(w http.ResponseWriter, r *http.Request) {
	res, err := sessionFrom(r.Context()).Engine.Track(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		OrderID:        res.Order.OrderID,
		Status:         res.Order.Status,
		PreviousStatus: res.Previous,
		Changed:        res.Changed(),
	})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	reply, err := sessionFrom(r.Context()).Assistant.Respond(r.Context(), req.Text)
	if err != nil && !errors.Is(err, agent.ErrMaxStepsExceeded) {
		s.logger.Error("http.chat.failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "MODEL_UNAVAILABLE", Message: "The assistant is unavailable right now."})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
