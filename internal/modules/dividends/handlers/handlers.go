// Package handlers provides HTTP handlers for the dividend income view.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/modules/dividends"
)

// Handler handles dividend HTTP requests
type Handler struct {
	service *dividends.Service
	log     zerolog.Logger
}

// NewHandler creates a new dividends handler
func NewHandler(service *dividends.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dividends").Logger(),
	}
}

// RegisterRoutes registers dividend routes under /api/clients/{clientID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dividends", h.HandleGetDividends)
}

// HandleGetDividends returns the income table for a client's portfolio
func (h *Handler) HandleGetDividends(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client ID")
		return
	}

	report, err := h.service.GetReport(clientID)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Failed to build dividends report")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, report)
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
