package charts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/clients/yahoo"
	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

type stubHistory struct {
	points []yahoo.PricePoint
	err    error
}

func (s *stubHistory) GetDailyHistory(symbol string) ([]yahoo.PricePoint, error) {
	return s.points, s.err
}

type stubFundamentals struct {
	fund *domain.Fundamentals
	err  error
}

func (s *stubFundamentals) GetFundamentals(symbol string) (*domain.Fundamentals, error) {
	return s.fund, s.err
}

type stubSnapshots struct {
	snapshot portfolio.Snapshot
}

func (s *stubSnapshots) GetSnapshot(clientID int64) (portfolio.Snapshot, error) {
	return s.snapshot, nil
}

func flatHistory(n int, close float64) []yahoo.PricePoint {
	points := make([]yahoo.PricePoint, n)
	for i := range points {
		points[i] = yahoo.PricePoint{
			Date:  fmt.Sprintf("2025-01-%02d", i%28+1),
			Close: close,
		}
	}
	return points
}

func TestGetSeries_OverlaysAndReferenceLines(t *testing.T) {
	snapshot := portfolio.Snapshot{
		Positions: []portfolio.Holding{
			{Symbol: "BBAS3", AssetClass: domain.AssetClassEquity, Quantity: 100, AverageCost: 22},
		},
	}

	svc := NewService(
		&stubHistory{points: flatHistory(60, 25)},
		&stubFundamentals{fund: &domain.Fundamentals{EarningsPerShare: 5, BookValuePerShare: 30}},
		&stubSnapshots{snapshot: snapshot},
		zerolog.Nop(),
	)

	series, err := svc.GetSeries(1, "bbas3")
	require.NoError(t, err)

	assert.Equal(t, "BBAS3", series.Symbol)
	assert.Len(t, series.Closes, 60)
	assert.Len(t, series.SMA20, 60)
	assert.Len(t, series.EMA50, 60)

	// A flat series has its own price as every statistic.
	assert.InDelta(t, 25, series.Mean, 1e-9)
	assert.InDelta(t, 0, series.StdDev, 1e-9)
	assert.InDelta(t, 25, series.SMA20[59], 1e-9)

	assert.InDelta(t, 22, series.AverageCost, 1e-9)
	assert.Greater(t, series.GrahamNumber, 0.0)
}

func TestGetSeries_ShortHistorySkipsOverlays(t *testing.T) {
	svc := NewService(
		&stubHistory{points: flatHistory(5, 10)},
		&stubFundamentals{err: errors.New("none")},
		&stubSnapshots{},
		zerolog.Nop(),
	)

	series, err := svc.GetSeries(1, "XXXX3")
	require.NoError(t, err)

	assert.Nil(t, series.SMA20)
	assert.Nil(t, series.EMA50)
	assert.Zero(t, series.GrahamNumber)
	// Not held: no cost line.
	assert.Zero(t, series.AverageCost)
}

func TestGetSeries_FixedIncomeRejected(t *testing.T) {
	snapshot := portfolio.Snapshot{
		Positions: []portfolio.Holding{
			{Symbol: "TESOURO2030", AssetClass: domain.AssetClassFixedIncome, Quantity: 1, AverageCost: 1000},
		},
	}

	svc := NewService(&stubHistory{}, &stubFundamentals{}, &stubSnapshots{snapshot: snapshot}, zerolog.Nop())

	_, err := svc.GetSeries(1, "TESOURO2030")
	assert.Error(t, err)
}

func TestGetSeries_EmptyHistoryIsAnError(t *testing.T) {
	svc := NewService(&stubHistory{points: nil}, &stubFundamentals{}, &stubSnapshots{}, zerolog.Nop())

	_, err := svc.GetSeries(1, "PETR4")
	assert.Error(t, err)
}
