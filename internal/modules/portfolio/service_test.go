package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type mockTransactionSource struct {
	txs []domain.Transaction
	err error
}

func (m *mockTransactionSource) GetByClient(clientID int64) ([]domain.Transaction, error) {
	return m.txs, m.err
}

type mockTargetSource struct {
	targets map[string]float64
}

func (m *mockTargetSource) GetByClient(clientID int64) (map[string]float64, error) {
	return m.targets, nil
}

type mockPriceProvider struct {
	quotes map[string]float64
}

func (m *mockPriceProvider) GetQuotes(symbols []string) map[string]float64 {
	out := make(map[string]float64)
	for _, symbol := range symbols {
		if price, ok := m.quotes[symbol]; ok {
			out[symbol] = price
		}
	}
	return out
}

type mockRateProvider struct {
	rate float64
	err  error
}

func (m *mockRateProvider) GetRate(from, to string) (float64, error) {
	return m.rate, m.err
}

func newTestService(txs []domain.Transaction, quotes map[string]float64, rates *mockRateProvider, targets map[string]float64) *Service {
	return NewService(
		&mockTransactionSource{txs: txs},
		&mockTargetSource{targets: targets},
		&mockPriceProvider{quotes: quotes},
		rates,
		fixedClock{now: day("2025-06-15")},
		"BRL",
		5.85,
		zerolog.Nop(),
	)
}

func TestGetDashboard_PricesLocalSymbolsViaSASuffix(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
	}
	svc := newTestService(txs, map[string]float64{"PETR4.SA": 12}, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetDashboard(1)
	require.NoError(t, err)

	require.Len(t, report.Positions, 1)
	pos := report.Positions[0]
	assert.True(t, pos.PriceAvailable)
	assert.InDelta(t, 12, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 1200, pos.CurrentValue, 1e-9)
	assert.InDelta(t, 200, pos.UnrealizedProfit, 1e-9)
	assert.InDelta(t, 100, pos.AllocationPct, 1e-9)
	assert.InDelta(t, 1200, report.TotalValue, 1e-9)
	assert.False(t, report.UsdRateFallback)
}

func TestGetDashboard_ForeignPositionConvertedAtUSDRate(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "AAPL", AssetClass: domain.AssetClassForeign, Side: domain.SideBuy, Quantity: 10, Price: 100, TradeDate: day("2025-01-10")},
	}
	svc := newTestService(txs, map[string]float64{"AAPL": 110}, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetDashboard(1)
	require.NoError(t, err)

	require.Len(t, report.Positions, 1)
	pos := report.Positions[0]
	assert.InDelta(t, 5.0, report.UsdRate, 1e-9)
	assert.InDelta(t, 10*110*5.0, pos.CurrentValue, 1e-9)
	assert.InDelta(t, (110-100)*10*5.0, pos.UnrealizedProfit, 1e-9)
}

func TestGetDashboard_USDFallbackWhenRateLookupFails(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "AAPL", AssetClass: domain.AssetClassForeign, Side: domain.SideBuy, Quantity: 1, Price: 100, TradeDate: day("2025-01-10")},
	}
	svc := newTestService(txs, map[string]float64{"AAPL": 100}, &mockRateProvider{err: errors.New("upstream down")}, nil)

	report, err := svc.GetDashboard(1)
	require.NoError(t, err)

	assert.True(t, report.UsdRateFallback)
	assert.InDelta(t, 5.85, report.UsdRate, 1e-9)
}

func TestGetDashboard_FixedIncomeCarriedAtCost(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "TESOURO2030", AssetClass: domain.AssetClassFixedIncome, Side: domain.SideBuy, Quantity: 2, Price: 1000, TradeDate: day("2025-01-10")},
	}
	svc := newTestService(txs, nil, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetDashboard(1)
	require.NoError(t, err)

	require.Len(t, report.Positions, 1)
	pos := report.Positions[0]
	assert.True(t, pos.PriceAvailable)
	assert.InDelta(t, 1000, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 2000, pos.CurrentValue, 1e-9)
	assert.Zero(t, pos.UnrealizedProfit)
}

func TestGetDashboard_UnpricedPositionFlagged(t *testing.T) {
	txs := []domain.Transaction{
		buy("XXXX11", 10, 50, "2025-01-10"),
	}
	svc := newTestService(txs, map[string]float64{}, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetDashboard(1)
	require.NoError(t, err)

	require.Len(t, report.Positions, 1)
	pos := report.Positions[0]
	assert.False(t, pos.PriceAvailable)
	assert.Zero(t, pos.CurrentPrice)
	assert.Zero(t, pos.CurrentValue)
}

func TestGetAllocation_DriftAgainstTargets(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
		buy("VALE3", 100, 10, "2025-01-10"),
	}
	quotes := map[string]float64{"PETR4.SA": 30, "VALE3.SA": 10}
	targets := map[string]float64{"PETR4": 50, "ITSA4": 10}

	svc := newTestService(txs, quotes, &mockRateProvider{rate: 5.0}, targets)

	entries, err := svc.GetAllocation(1)
	require.NoError(t, err)

	// Union of held and targeted symbols, sorted.
	require.Len(t, entries, 3)
	assert.Equal(t, "ITSA4", entries[0].Symbol)
	assert.Equal(t, "PETR4", entries[1].Symbol)
	assert.Equal(t, "VALE3", entries[2].Symbol)

	// PETR4 is 3000 of 4000 total = 75% actual vs 50% target.
	assert.InDelta(t, 75, entries[1].ActualPercent, 1e-9)
	assert.InDelta(t, 25, entries[1].Drift, 1e-9)

	// ITSA4 is targeted but not held.
	assert.Zero(t, entries[0].ActualPercent)
	assert.InDelta(t, -10, entries[0].Drift, 1e-9)
}

func TestGetTaxReport_ExemptionThreshold(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 5000, 10, "2025-01-10"),
		sell("PETR4", 1000, 15, "2025-06-05"),
	}
	svc := newTestService(txs, nil, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetTaxReport(1)
	require.NoError(t, err)

	assert.InDelta(t, 15000, report.MonthSalesVolume, 1e-9)
	assert.InDelta(t, 20000, report.Threshold, 1e-9)
	assert.True(t, report.Exempt)
}

func TestGetTaxReport_OverThreshold(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 5000, 10, "2025-01-10"),
		sell("PETR4", 2000, 15, "2025-06-05"),
	}
	svc := newTestService(txs, nil, &mockRateProvider{rate: 5.0}, nil)

	report, err := svc.GetTaxReport(1)
	require.NoError(t, err)

	assert.InDelta(t, 30000, report.MonthSalesVolume, 1e-9)
	assert.False(t, report.Exempt)
}

func TestTickerFor(t *testing.T) {
	assert.Equal(t, "PETR4.SA", TickerFor("PETR4", domain.AssetClassEquity))
	assert.Equal(t, "HGLG11.SA", TickerFor("HGLG11", domain.AssetClassFund))
	assert.Equal(t, "PETR4.SA", TickerFor("PETR4.SA", domain.AssetClassEquity))
	assert.Equal(t, "AAPL", TickerFor("AAPL", domain.AssetClassForeign))
	assert.Equal(t, "", TickerFor("TESOURO2030", domain.AssetClassFixedIncome))
}
