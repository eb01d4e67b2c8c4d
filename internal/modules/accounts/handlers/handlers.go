// Package handlers provides HTTP handlers for client accounts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/accounts"
)

// Handler handles client account HTTP requests
type Handler struct {
	repo *accounts.Repository
	log  zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(repo *accounts.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "accounts").Logger(),
	}
}

// RegisterRoutes registers account routes under /api/clients
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListClients)
	r.Post("/", h.HandleCreateClient)
	r.Get("/{clientID}", h.HandleGetClient)
}

// HandleListClients returns all clients ordered by name
func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list clients")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if clients == nil {
		clients = []domain.Client{}
	}

	h.writeJSON(w, http.StatusOK, clients)
}

// HandleCreateClient registers a new client ledger
func (h *Handler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.repo.Create(req.Name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, client)
}

// HandleGetClient returns one client by ID
func (h *Handler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid client ID")
		return
	}

	client, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", id).Msg("Failed to load client")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if client == nil {
		h.writeError(w, http.StatusNotFound, "client not found")
		return
	}

	h.writeJSON(w, http.StatusOK, client)
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
