package dividends

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

type stubSnapshots struct {
	snapshot portfolio.Snapshot
}

func (s *stubSnapshots) GetSnapshot(clientID int64) (portfolio.Snapshot, error) {
	return s.snapshot, nil
}

type stubFundamentals struct {
	bySymbol map[string]*domain.Fundamentals
}

func (s *stubFundamentals) GetFundamentals(symbol string) (*domain.Fundamentals, error) {
	if fund, ok := s.bySymbol[symbol]; ok {
		return fund, nil
	}
	return nil, errors.New("no fundamentals")
}

type stubQuotes struct {
	bySymbol map[string]float64
}

func (s *stubQuotes) GetQuote(symbol string) (float64, error) {
	if price, ok := s.bySymbol[symbol]; ok {
		return price, nil
	}
	return 0, errors.New("no quote")
}

type stubIncome struct {
	totals map[string]float64
}

func (s *stubIncome) TotalBySymbol(clientID int64) (map[string]float64, error) {
	return s.totals, nil
}

func TestGetReport_IncomeTable(t *testing.T) {
	snapshot := portfolio.Snapshot{
		Positions: []portfolio.Holding{
			{Symbol: "BBAS3", AssetClass: domain.AssetClassEquity, Quantity: 100, AverageCost: 20, InvestedCapital: 2000},
			{Symbol: "HGLG11", AssetClass: domain.AssetClassFund, Quantity: 10, AverageCost: 150, InvestedCapital: 1500},
			{Symbol: "TESOURO2030", AssetClass: domain.AssetClassFixedIncome, Quantity: 2, AverageCost: 1000, InvestedCapital: 2000},
		},
	}

	svc := NewService(
		&stubSnapshots{snapshot: snapshot},
		&stubFundamentals{bySymbol: map[string]*domain.Fundamentals{
			"BBAS3.SA":  {DividendPerShare: 1.20},
			"HGLG11.SA": {DividendPerShare: 13.20},
		}},
		&stubQuotes{bySymbol: map[string]float64{"BBAS3.SA": 24, "HGLG11.SA": 165}},
		&stubIncome{totals: map[string]float64{"BBAS3": 80, "VALE3": 20}},
		zerolog.Nop(),
	)

	report, err := svc.GetReport(1)
	require.NoError(t, err)

	// Fixed income is excluded from the yield table.
	require.Len(t, report.Positions, 2)
	assert.Equal(t, "BBAS3", report.Positions[0].Symbol)
	assert.Equal(t, "HGLG11", report.Positions[1].Symbol)

	bbas := report.Positions[0]
	assert.InDelta(t, 6.0, bbas.YieldOnCost, 1e-9)     // 1.20 / 20
	assert.InDelta(t, 5.0, bbas.CurrentYield, 1e-9)    // 1.20 / 24
	assert.InDelta(t, 120, bbas.ProjectedAnnualIncome, 1e-9)
	assert.InDelta(t, 80, bbas.ReceivedIncome, 1e-9)

	assert.InDelta(t, 120+132, report.TotalProjectedAnnual, 1e-9)
	assert.InDelta(t, 252.0/12, report.TotalProjectedMonthly, 1e-9)
	// Received totals include symbols no longer held.
	assert.InDelta(t, 100, report.TotalReceived, 1e-9)
	// 252 of projected income on 3500 of variable invested capital.
	assert.InDelta(t, 252.0/3500*100, report.PortfolioYieldOnCost, 1e-9)
}

func TestGetReport_MissingFundamentalsDegradesRow(t *testing.T) {
	snapshot := portfolio.Snapshot{
		Positions: []portfolio.Holding{
			{Symbol: "XXXX3", AssetClass: domain.AssetClassEquity, Quantity: 10, AverageCost: 5, InvestedCapital: 50},
		},
	}

	svc := NewService(
		&stubSnapshots{snapshot: snapshot},
		&stubFundamentals{bySymbol: map[string]*domain.Fundamentals{}},
		&stubQuotes{bySymbol: map[string]float64{}},
		&stubIncome{totals: map[string]float64{}},
		zerolog.Nop(),
	)

	report, err := svc.GetReport(1)
	require.NoError(t, err)

	require.Len(t, report.Positions, 1)
	row := report.Positions[0]
	assert.False(t, row.PriceAvailable)
	assert.Zero(t, row.DividendPerShare)
	assert.Zero(t, row.ProjectedAnnualIncome)
	assert.Zero(t, report.TotalProjectedAnnual)
}
