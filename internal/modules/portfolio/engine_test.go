package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func buy(symbol string, qty, price float64, date string) domain.Transaction {
	return domain.Transaction{
		Symbol:     symbol,
		AssetClass: domain.AssetClassEquity,
		Side:       domain.SideBuy,
		Quantity:   qty,
		Price:      price,
		TradeDate:  day(date),
	}
}

func sell(symbol string, qty, price float64, date string) domain.Transaction {
	tx := buy(symbol, qty, price, date)
	tx.Side = domain.SideSell
	return tx
}

func TestCompute_AverageCostAccumulation(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
		buy("PETR4", 100, 20, "2025-02-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	require.Len(t, snapshot.Positions, 1)
	pos := snapshot.Positions[0]
	assert.Equal(t, "PETR4", pos.Symbol)
	assert.InDelta(t, 200, pos.Quantity, 1e-9)
	assert.InDelta(t, 15, pos.AverageCost, 1e-9)
	assert.InDelta(t, 3000, pos.InvestedCapital, 1e-9)
	assert.Zero(t, snapshot.RealizedProfit)
}

func TestCompute_SellRealizesAgainstAverageCost(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
		buy("PETR4", 100, 20, "2025-02-10"),
		sell("PETR4", 50, 30, "2025-03-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	// Sold 50 at 30 against an average cost of 15.
	assert.InDelta(t, 750, snapshot.RealizedProfit, 1e-9)

	require.Len(t, snapshot.Positions, 1)
	pos := snapshot.Positions[0]
	assert.InDelta(t, 150, pos.Quantity, 1e-9)
	// Average cost is unchanged by a sell.
	assert.InDelta(t, 15, pos.AverageCost, 1e-9)
	assert.InDelta(t, 2250, pos.InvestedCapital, 1e-9)
}

func TestCompute_SellWithNothingHeld(t *testing.T) {
	txs := []domain.Transaction{
		sell("VALE3", 10, 5, "2025-03-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	// Zero book means average cost 0: full proceeds are profit.
	assert.InDelta(t, 50, snapshot.RealizedProfit, 1e-9)
	// The negative position never surfaces.
	assert.Empty(t, snapshot.Positions)
}

func TestCompute_OversellGoesNegativeAndStaysHidden(t *testing.T) {
	txs := []domain.Transaction{
		buy("VALE3", 10, 10, "2025-01-10"),
		sell("VALE3", 25, 10, "2025-02-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	assert.Empty(t, snapshot.Positions)
	// 25 sold at 10 against average cost 10: no profit.
	assert.InDelta(t, 0, snapshot.RealizedProfit, 1e-9)
}

func TestCompute_EmptyHistory(t *testing.T) {
	snapshot := Compute(nil, day("2025-06-15"))

	assert.Empty(t, snapshot.Positions)
	assert.Zero(t, snapshot.RealizedProfit)
	assert.Zero(t, snapshot.MonthSalesVolume)
}

func TestCompute_FullExitResetsBookExactly(t *testing.T) {
	// Three buys at prices that leave floating-point residue, then a
	// full exit. The book must land on exactly zero so a later buy
	// starts a fresh average.
	txs := []domain.Transaction{
		buy("ITUB4", 3, 10.10, "2025-01-10"),
		buy("ITUB4", 7, 33.33, "2025-01-11"),
		sell("ITUB4", 10, 40, "2025-01-12"),
		buy("ITUB4", 5, 20, "2025-01-13"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	require.Len(t, snapshot.Positions, 1)
	pos := snapshot.Positions[0]
	assert.InDelta(t, 5, pos.Quantity, 1e-12)
	assert.InDelta(t, 20, pos.AverageCost, 1e-12)
	assert.InDelta(t, 100, pos.InvestedCapital, 1e-12)
}

func TestCompute_MonthSalesVolumeUsesEvaluationMonth(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
		sell("PETR4", 10, 30, "2025-05-20"),
		sell("PETR4", 20, 25, "2025-06-05"),
		sell("PETR4", 5, 40, "2025-06-25"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	// Only the two June sells count: 20x25 + 5x40.
	assert.InDelta(t, 700, snapshot.MonthSalesVolume, 1e-9)

	// A different evaluation month moves the window.
	may := Compute(txs, day("2025-05-31"))
	assert.InDelta(t, 300, may.MonthSalesVolume, 1e-9)
}

func TestCompute_MonthBoundaryRespectsYear(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2024-01-10"),
		sell("PETR4", 10, 30, "2024-06-05"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	// Same month, different year: not counted.
	assert.Zero(t, snapshot.MonthSalesVolume)
}

func TestCompute_TieBreakPreservesInsertionOrder(t *testing.T) {
	// Same-day buy then sell. Insertion order means the buy replays
	// first, so the sell realizes against its cost.
	txs := []domain.Transaction{
		buy("BBAS3", 10, 10, "2025-03-10"),
		sell("BBAS3", 10, 12, "2025-03-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	assert.InDelta(t, 20, snapshot.RealizedProfit, 1e-9)
	assert.Empty(t, snapshot.Positions)
}

func TestCompute_OutOfOrderInputIsSortedByTradeDate(t *testing.T) {
	txs := []domain.Transaction{
		sell("PETR4", 50, 30, "2025-03-10"),
		buy("PETR4", 100, 20, "2025-02-10"),
		buy("PETR4", 100, 10, "2025-01-10"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	assert.InDelta(t, 750, snapshot.RealizedProfit, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	txs := []domain.Transaction{
		buy("PETR4", 100, 10, "2025-01-10"),
		buy("VALE3", 50, 60, "2025-01-11"),
		sell("PETR4", 30, 12, "2025-02-01"),
	}

	now := day("2025-06-15")
	first := Compute(txs, now)
	second := Compute(txs, now)

	assert.Equal(t, first, second)
}

func TestCompute_PositionsSortedBySymbol(t *testing.T) {
	txs := []domain.Transaction{
		buy("VALE3", 10, 60, "2025-01-10"),
		buy("ABEV3", 10, 14, "2025-01-11"),
		buy("PETR4", 10, 30, "2025-01-12"),
	}

	snapshot := Compute(txs, day("2025-06-15"))

	require.Len(t, snapshot.Positions, 3)
	assert.Equal(t, "ABEV3", snapshot.Positions[0].Symbol)
	assert.Equal(t, "PETR4", snapshot.Positions[1].Symbol)
	assert.Equal(t, "VALE3", snapshot.Positions[2].Symbol)
}
