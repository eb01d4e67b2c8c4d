// Package handlers provides HTTP handlers for price alerts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/alerts"
)

// Handler handles price alert HTTP requests
type Handler struct {
	repo *alerts.Repository
	log  zerolog.Logger
}

// NewHandler creates a new alerts handler
func NewHandler(repo *alerts.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "alerts").Logger(),
	}
}

// RegisterRoutes registers alert routes under /api/clients/{clientID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", h.HandleListAlerts)
		r.Post("/", h.HandleCreateAlert)
		r.Delete("/{alertID}", h.HandleDeleteAlert)
	})
}

// HandleListAlerts returns a client's stored alerts
func (h *Handler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	list, err := h.repo.GetByClient(clientID)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Failed to list alerts")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.PriceAlert{}
	}

	h.writeJSON(w, http.StatusOK, list)
}

// HandleCreateAlert stores a new price alert
func (h *Handler) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req struct {
		Symbol      string  `json:"symbol"`
		TargetPrice float64 `json:"target_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.repo.Create(clientID, req.Symbol, req.TargetPrice)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, alert)
}

// HandleDeleteAlert removes an alert by ID
func (h *Handler) HandleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	alertID := chi.URLParam(r, "alertID")
	deleted, err := h.repo.Delete(clientID, alertID)
	if err != nil {
		h.log.Error().Err(err).Str("alert_id", alertID).Msg("Failed to delete alert")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "alert not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
