package valuation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

// FundamentalsProvider fetches per-share fundamentals for a ticker.
type FundamentalsProvider interface {
	GetFundamentals(symbol string) (*domain.Fundamentals, error)
}

// QuoteProvider fetches the latest price for a ticker.
type QuoteProvider interface {
	GetQuote(symbol string) (float64, error)
}

// SnapshotProvider replays ledger holdings for a client.
type SnapshotProvider interface {
	GetSnapshot(clientID int64) (portfolio.Snapshot, error)
}

// Report carries the fair-value estimates for one held symbol. Each
// estimate comes with an Ok flag because the formulas are undefined for
// companies with negative earnings, book value or no dividend.
type Report struct {
	Symbol           string  `json:"symbol"`
	CurrentPrice     float64 `json:"current_price"`
	PriceAvailable   bool    `json:"price_available"`
	AverageCost      float64 `json:"average_cost"`
	EarningsPerShare float64 `json:"earnings_per_share"`
	BookValue        float64 `json:"book_value_per_share"`
	DividendPerShare float64 `json:"dividend_per_share"`

	GrahamNumber   float64 `json:"graham_number"`
	GrahamOk       bool    `json:"graham_ok"`
	BazinValue     float64 `json:"bazin_value"`
	BazinOk        bool    `json:"bazin_ok"`
	EarningsPrice  float64 `json:"earnings_price"`
	EarningsOk     bool    `json:"earnings_ok"`
	YieldOnCost    float64 `json:"yield_on_cost"`
	CurrentYield   float64 `json:"current_yield"`
	GrahamUpside   float64 `json:"graham_upside_percent"`
	BazinUpside    float64 `json:"bazin_upside_percent"`
}

// Service joins held positions with fundamentals and quotes.
type Service struct {
	snapshots    SnapshotProvider
	fundamentals FundamentalsProvider
	quotes       QuoteProvider
	log          zerolog.Logger
}

// NewService creates a new valuation service
func NewService(snapshots SnapshotProvider, fundamentals FundamentalsProvider, quotes QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		snapshots:    snapshots,
		fundamentals: fundamentals,
		quotes:       quotes,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// GetReport values one of the client's variable-income holdings.
func (s *Service) GetReport(clientID int64, symbol string) (*Report, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	snapshot, err := s.snapshots.GetSnapshot(clientID)
	if err != nil {
		return nil, err
	}

	var held *portfolio.Holding
	for i := range snapshot.Positions {
		if snapshot.Positions[i].Symbol == symbol {
			held = &snapshot.Positions[i]
			break
		}
	}
	if held == nil {
		return nil, fmt.Errorf("symbol %s is not held by client %d", symbol, clientID)
	}
	if !held.AssetClass.Variable() {
		return nil, fmt.Errorf("symbol %s is fixed income and has no market valuation", symbol)
	}

	ticker := portfolio.TickerFor(symbol, held.AssetClass)

	report := &Report{
		Symbol:      symbol,
		AverageCost: held.AverageCost,
	}

	if price, err := s.quotes.GetQuote(ticker); err == nil {
		report.CurrentPrice = price
		report.PriceAvailable = true
	} else {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable for valuation")
	}

	fund, err := s.fundamentals.GetFundamentals(ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}

	report.EarningsPerShare = fund.EarningsPerShare
	report.BookValue = fund.BookValuePerShare
	report.DividendPerShare = fund.DividendPerShare

	report.GrahamNumber, report.GrahamOk = GrahamNumber(fund.EarningsPerShare, fund.BookValuePerShare)
	report.BazinValue, report.BazinOk = BazinValue(fund.DividendPerShare)
	report.EarningsPrice, report.EarningsOk = EarningsMultiple(fund.EarningsPerShare)

	report.YieldOnCost = Yield(fund.DividendPerShare, held.AverageCost)
	report.CurrentYield = Yield(fund.DividendPerShare, report.CurrentPrice)

	if report.PriceAvailable && report.CurrentPrice > 0 {
		if report.GrahamOk {
			report.GrahamUpside = (report.GrahamNumber - report.CurrentPrice) / report.CurrentPrice * 100
		}
		if report.BazinOk {
			report.BazinUpside = (report.BazinValue - report.CurrentPrice) / report.CurrentPrice * 100
		}
	}

	return report, nil
}
