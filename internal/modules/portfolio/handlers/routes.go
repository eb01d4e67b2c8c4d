package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio reporting routes. The router is
// expected to be mounted under /api/clients/{clientID}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
	r.Get("/portfolio/allocation", h.HandleGetAllocation)
	r.Get("/tax/current-month", h.HandleGetTaxReport)
}
