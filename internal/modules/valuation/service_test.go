package valuation

import (
	"errors"
	"math"
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
	fund *domain.Fundamentals
	err  error
}

func (s *stubFundamentals) GetFundamentals(symbol string) (*domain.Fundamentals, error) {
	return s.fund, s.err
}

type stubQuotes struct {
	price float64
	err   error
}

func (s *stubQuotes) GetQuote(symbol string) (float64, error) {
	return s.price, s.err
}

func heldSnapshot(symbol string, class domain.AssetClass, avgCost float64) portfolio.Snapshot {
	return portfolio.Snapshot{
		Positions: []portfolio.Holding{
			{Symbol: symbol, AssetClass: class, Quantity: 100, AverageCost: avgCost, InvestedCapital: avgCost * 100},
		},
	}
}

func TestGetReport_AllFormulasDefined(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: heldSnapshot("BBAS3", domain.AssetClassEquity, 20)},
		&stubFundamentals{fund: &domain.Fundamentals{EarningsPerShare: 5, BookValuePerShare: 30, DividendPerShare: 1.20}},
		&stubQuotes{price: 28},
		zerolog.Nop(),
	)

	report, err := svc.GetReport(1, "bbas3")
	require.NoError(t, err)

	assert.Equal(t, "BBAS3", report.Symbol)
	assert.True(t, report.PriceAvailable)

	assert.True(t, report.GrahamOk)
	assert.InDelta(t, math.Sqrt(22.5*5*30), report.GrahamNumber, 1e-9)

	assert.True(t, report.BazinOk)
	assert.InDelta(t, 20.0, report.BazinValue, 1e-9)

	assert.True(t, report.EarningsOk)
	assert.InDelta(t, 75.0, report.EarningsPrice, 1e-9)

	// 1.20 on an average cost of 20 is 6% on cost.
	assert.InDelta(t, 6.0, report.YieldOnCost, 1e-9)
	assert.InDelta(t, 1.20/28*100, report.CurrentYield, 1e-9)
}

func TestGetReport_NegativeEarningsDisableGrahamAndMultiple(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: heldSnapshot("OIBR3", domain.AssetClassEquity, 1)},
		&stubFundamentals{fund: &domain.Fundamentals{EarningsPerShare: -2, BookValuePerShare: 4, DividendPerShare: 0}},
		&stubQuotes{price: 0.8},
		zerolog.Nop(),
	)

	report, err := svc.GetReport(1, "OIBR3")
	require.NoError(t, err)

	assert.False(t, report.GrahamOk)
	assert.False(t, report.EarningsOk)
	assert.False(t, report.BazinOk)
	assert.Zero(t, report.YieldOnCost)
}

func TestGetReport_SymbolNotHeld(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: portfolio.Snapshot{}},
		&stubFundamentals{fund: &domain.Fundamentals{}},
		&stubQuotes{},
		zerolog.Nop(),
	)

	_, err := svc.GetReport(1, "PETR4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not held")
}

func TestGetReport_FixedIncomeRejected(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: heldSnapshot("TESOURO2030", domain.AssetClassFixedIncome, 1000)},
		&stubFundamentals{fund: &domain.Fundamentals{}},
		&stubQuotes{},
		zerolog.Nop(),
	)

	_, err := svc.GetReport(1, "TESOURO2030")
	assert.Error(t, err)
}

func TestGetReport_QuoteFailureDegradesNotFails(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: heldSnapshot("BBAS3", domain.AssetClassEquity, 20)},
		&stubFundamentals{fund: &domain.Fundamentals{EarningsPerShare: 5, BookValuePerShare: 30, DividendPerShare: 1.20}},
		&stubQuotes{err: errors.New("upstream down")},
		zerolog.Nop(),
	)

	report, err := svc.GetReport(1, "BBAS3")
	require.NoError(t, err)

	assert.False(t, report.PriceAvailable)
	// Current yield has no basis without a price.
	assert.Zero(t, report.CurrentYield)
	// Formulas and yield on cost still work.
	assert.True(t, report.GrahamOk)
	assert.InDelta(t, 6.0, report.YieldOnCost, 1e-9)
}

func TestGetReport_FundamentalsFailureIsAnError(t *testing.T) {
	svc := NewService(
		&stubSnapshots{snapshot: heldSnapshot("BBAS3", domain.AssetClassEquity, 20)},
		&stubFundamentals{err: errors.New("upstream down")},
		&stubQuotes{price: 28},
		zerolog.Nop(),
	)

	_, err := svc.GetReport(1, "BBAS3")
	assert.Error(t, err)
}
