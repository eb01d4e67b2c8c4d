// Package handlers provides HTTP handlers for CSV import and export.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/modules/impexp"
)

// maxImportBytes caps uploaded import files at 10 MB.
const maxImportBytes = 10 << 20

// Handler handles import/export HTTP requests
type Handler struct {
	importer *impexp.Importer
	exporter *impexp.Exporter
	log      zerolog.Logger
}

// NewHandler creates a new import/export handler
func NewHandler(importer *impexp.Importer, exporter *impexp.Exporter, log zerolog.Logger) *Handler {
	return &Handler{
		importer: importer,
		exporter: exporter,
		log:      log.With().Str("handler", "impexp").Logger(),
	}
}

// RegisterRoutes registers import/export routes under /api/clients/{clientID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/import", h.HandleImport)
	r.Get("/export", h.HandleExport)
}

// HandleImport ingests a CSV of transactions. The file may be uploaded
// as multipart form data (field "file") or as a raw request body.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	reader := r.Body
	if err := r.ParseMultipartForm(maxImportBytes); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "multipart upload is missing the file field")
			return
		}
		defer file.Close()
		reader = file
	}

	result, err := h.importer.Import(clientID, reader)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Import failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleExport streams the current portfolio as a CSV download
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio-%d.csv"`, clientID))

	if err := h.exporter.Export(clientID, w); err != nil {
		// Headers are already out; log and abort the stream.
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Export failed")
	}
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
