// Package charts prepares the price history series shown on the
// dashboard, with moving averages and reference lines.
package charts

import (
	"fmt"
	"strings"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/titaniumapp/titanium/internal/clients/yahoo"
	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
	"github.com/titaniumapp/titanium/internal/modules/valuation"
)

const (
	smaPeriod = 20
	emaPeriod = 50
)

// HistoryProvider fetches the daily close series for a ticker.
type HistoryProvider interface {
	GetDailyHistory(symbol string) ([]yahoo.PricePoint, error)
}

// Series is the chart payload for one symbol.
type Series struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Closes []float64 `json:"closes"`

	// Overlays aligned index-for-index with Closes. Leading entries
	// that predate a full lookback window are zero.
	SMA20 []float64 `json:"sma_20"`
	EMA50 []float64 `json:"ema_50"`

	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`

	// Horizontal reference lines. Zero when not applicable.
	AverageCost  float64 `json:"average_cost"`
	GrahamNumber float64 `json:"graham_number"`
}

// Service assembles chart series from cached market history.
type Service struct {
	history      HistoryProvider
	fundamentals valuation.FundamentalsProvider
	snapshots    valuation.SnapshotProvider
	log          zerolog.Logger
}

// NewService creates a new charts service
func NewService(
	history HistoryProvider,
	fundamentals valuation.FundamentalsProvider,
	snapshots valuation.SnapshotProvider,
	log zerolog.Logger,
) *Service {
	return &Service{
		history:      history,
		fundamentals: fundamentals,
		snapshots:    snapshots,
		log:          log.With().Str("service", "charts").Logger(),
	}
}

// GetSeries builds the chart for one of the client's symbols. The
// average-cost line only appears when the client holds the symbol, the
// Graham line only when the formula is defined.
func (s *Service) GetSeries(clientID int64, symbol string) (*Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	class := domain.AssetClassEquity
	var avgCost float64
	snapshot, err := s.snapshots.GetSnapshot(clientID)
	if err != nil {
		return nil, err
	}
	for _, pos := range snapshot.Positions {
		if pos.Symbol == symbol {
			class = pos.AssetClass
			avgCost = pos.AverageCost
			break
		}
	}
	if !class.Variable() {
		return nil, fmt.Errorf("symbol %s is fixed income and has no price history", symbol)
	}

	ticker := portfolio.TickerFor(symbol, class)

	points, err := s.history.GetDailyHistory(ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no price history available for %s", symbol)
	}

	series := &Series{
		Symbol:      symbol,
		Dates:       make([]string, len(points)),
		Closes:      make([]float64, len(points)),
		AverageCost: avgCost,
	}
	for i, point := range points {
		series.Dates[i] = point.Date
		series.Closes[i] = point.Close
	}

	if len(series.Closes) >= smaPeriod {
		series.SMA20 = talib.Sma(series.Closes, smaPeriod)
	}
	if len(series.Closes) >= emaPeriod {
		series.EMA50 = talib.Ema(series.Closes, emaPeriod)
	}

	series.Mean = stat.Mean(series.Closes, nil)
	if len(series.Closes) > 1 {
		series.StdDev = stat.StdDev(series.Closes, nil)
	}

	if fund, err := s.fundamentals.GetFundamentals(ticker); err == nil {
		if graham, ok := valuation.GrahamNumber(fund.EarningsPerShare, fund.BookValuePerShare); ok {
			series.GrahamNumber = graham
		}
	} else {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Fundamentals unavailable for chart reference line")
	}

	return series, nil
}
