package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

type stubTransactions struct {
	txs []domain.Transaction
}

func (s *stubTransactions) GetByClient(clientID int64) ([]domain.Transaction, error) {
	return s.txs, nil
}

type stubTargets struct{}

func (s *stubTargets) GetByClient(clientID int64) (map[string]float64, error) {
	return map[string]float64{"PETR4": 50}, nil
}

type stubPrices struct {
	quotes map[string]float64
}

func (s *stubPrices) GetQuotes(symbols []string) map[string]float64 {
	return s.quotes
}

type stubRates struct{}

func (s *stubRates) GetRate(from, to string) (float64, error) {
	return 5.0, nil
}

type stubClock struct{}

func (stubClock) Now() time.Time {
	t, _ := time.Parse("2006-01-02", "2025-06-15")
	return t
}

func newTestRouter() chi.Router {
	date, _ := time.Parse("2006-01-02", "2025-01-10")
	svc := portfolio.NewService(
		&stubTransactions{txs: []domain.Transaction{
			{
				ClientID:   1,
				Symbol:     "PETR4",
				AssetClass: domain.AssetClassEquity,
				Side:       domain.SideBuy,
				Quantity:   100,
				Price:      10,
				TradeDate:  date,
			},
		}},
		&stubTargets{},
		&stubPrices{quotes: map[string]float64{"PETR4.SA": 12}},
		&stubRates{},
		stubClock{},
		"BRL",
		5.85,
		zerolog.Nop(),
	)
	handler := NewHandler(svc, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api/clients/{clientID}", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router
}

func TestHandleGetPortfolio(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/clients/1/portfolio", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report portfolio.DashboardReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	require.Len(t, report.Positions, 1)
	assert.Equal(t, "PETR4", report.Positions[0].Symbol)
	assert.InDelta(t, 1200, report.TotalValue, 1e-9)
}

func TestHandleGetPortfolio_InvalidClientID(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/clients/abc/portfolio", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAllocation(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/clients/1/portfolio/allocation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []portfolio.AllocationEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))

	require.Len(t, entries, 1)
	assert.Equal(t, "PETR4", entries[0].Symbol)
	assert.InDelta(t, 100, entries[0].ActualPercent, 1e-9)
	assert.InDelta(t, 50, entries[0].Drift, 1e-9)
}

func TestHandleGetTaxReport(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/clients/1/tax/current-month", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report portfolio.TaxReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Zero(t, report.MonthSalesVolume)
	assert.InDelta(t, 20000, report.Threshold, 1e-9)
	assert.True(t, report.Exempt)
}
