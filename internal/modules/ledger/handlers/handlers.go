// Package handlers provides HTTP handlers for the transaction ledger.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/ledger"
)

// defaultStatementLimit caps how many rows a statement request returns
// when no explicit limit is given.
const defaultStatementLimit = 200

// Handler handles ledger HTTP requests
type Handler struct {
	transactions *ledger.TransactionRepository
	income       *ledger.IncomeRepository
	targets      *ledger.TargetRepository
	log          zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	transactions *ledger.TransactionRepository,
	income *ledger.IncomeRepository,
	targets *ledger.TargetRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		transactions: transactions,
		income:       income,
		targets:      targets,
		log:          log.With().Str("handler", "ledger").Logger(),
	}
}

// RegisterRoutes registers ledger routes under /api/clients/{clientID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleGetTransactions)
		r.Post("/", h.HandleCreateTransaction)
	})
	r.Route("/income", func(r chi.Router) {
		r.Get("/", h.HandleGetIncome)
		r.Post("/", h.HandleCreateIncome)
	})
	r.Route("/targets", func(r chi.Router) {
		r.Get("/", h.HandleGetTargets)
		r.Put("/", h.HandlePutTargets)
	})
}

// transactionRequest is the JSON body for recording a trade. Asset class
// and side accept the same aliases the CSV importer does.
type transactionRequest struct {
	Symbol     string  `json:"symbol"`
	AssetClass string  `json:"asset_class"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	TradeDate  string  `json:"trade_date"`
}

// HandleCreateTransaction appends a trade to the client's ledger
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx := domain.Transaction{
		ClientID: clientID,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
	}

	class, err := domain.ParseAssetClass(req.AssetClass)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.AssetClass = class

	side, err := domain.ParseTradeSide(req.Side)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.Side = side

	tradeDate, err := time.Parse("2006-01-02", req.TradeDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "trade_date must be YYYY-MM-DD")
		return
	}
	tx.TradeDate = tradeDate

	if err := h.transactions.Create(tx); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleGetTransactions returns the client's statement, most recent first
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	limit := defaultStatementLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	txs, err := h.transactions.GetStatement(clientID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Failed to load statement")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, txs)
}

// incomeRequest is the JSON body for recording a dividend or interest
// payment.
type incomeRequest struct {
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
	EventDate string  `json:"event_date"`
}

// HandleCreateIncome records a received dividend or interest payment
func (h *Handler) HandleCreateIncome(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "event_date must be YYYY-MM-DD")
		return
	}

	event := domain.IncomeEvent{
		ClientID:  clientID,
		Symbol:    req.Symbol,
		Amount:    req.Amount,
		EventDate: eventDate,
	}

	if err := h.income.Create(event); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleGetIncome returns the client's income events, most recent first
func (h *Handler) HandleGetIncome(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	events, err := h.income.GetByClient(clientID)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Failed to load income events")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []domain.IncomeEvent{}
	}

	h.writeJSON(w, http.StatusOK, events)
}

// targetRequest is one allocation target row in a PUT body.
type targetRequest struct {
	Symbol        string  `json:"symbol"`
	TargetPercent float64 `json:"target_percent"`
}

// HandlePutTargets replaces or adds allocation targets for the client.
// Each row upserts independently; the whole batch commits atomically.
func (h *Handler) HandlePutTargets(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req []targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targets := make([]domain.TargetAllocation, 0, len(req))
	for _, row := range req {
		targets = append(targets, domain.TargetAllocation{
			ClientID:      clientID,
			Symbol:        row.Symbol,
			TargetPercent: row.TargetPercent,
		})
	}

	if err := h.targets.UpsertBatch(targets); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "stored", "count": len(targets)})
}

// HandleGetTargets returns the stored allocation targets per symbol
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	targets, err := h.targets.GetByClient(clientID)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", clientID).Msg("Failed to load allocation targets")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, targets)
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
