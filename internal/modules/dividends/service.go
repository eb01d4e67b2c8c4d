// Package dividends builds the income view of a portfolio: per-position
// yields, projected income and dividends actually received.
package dividends

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
	"github.com/titaniumapp/titanium/internal/modules/valuation"
)

// IncomeSource provides dividend/interest amounts already received.
type IncomeSource interface {
	TotalBySymbol(clientID int64) (map[string]float64, error)
}

// PositionYield is the income profile of one variable-income holding.
type PositionYield struct {
	Symbol                string  `json:"symbol"`
	Quantity              float64 `json:"quantity"`
	AverageCost           float64 `json:"average_cost"`
	CurrentPrice          float64 `json:"current_price"`
	PriceAvailable        bool    `json:"price_available"`
	DividendPerShare      float64 `json:"dividend_per_share"`
	YieldOnCost           float64 `json:"yield_on_cost"`
	CurrentYield          float64 `json:"current_yield"`
	ProjectedAnnualIncome float64 `json:"projected_annual_income"`
	ReceivedIncome        float64 `json:"received_income"`
}

// Report aggregates the income view for a whole portfolio.
type Report struct {
	Positions              []PositionYield `json:"positions"`
	TotalProjectedAnnual   float64         `json:"total_projected_annual"`
	TotalProjectedMonthly  float64         `json:"total_projected_monthly"`
	TotalReceived          float64         `json:"total_received"`
	PortfolioYieldOnCost   float64         `json:"portfolio_yield_on_cost"`
}

// Service joins holdings with fundamentals and received income events.
type Service struct {
	snapshots    valuation.SnapshotProvider
	fundamentals valuation.FundamentalsProvider
	quotes       valuation.QuoteProvider
	income       IncomeSource
	log          zerolog.Logger
}

// NewService creates a new dividends service
func NewService(
	snapshots valuation.SnapshotProvider,
	fundamentals valuation.FundamentalsProvider,
	quotes valuation.QuoteProvider,
	income IncomeSource,
	log zerolog.Logger,
) *Service {
	return &Service{
		snapshots:    snapshots,
		fundamentals: fundamentals,
		quotes:       quotes,
		income:       income,
		log:          log.With().Str("service", "dividends").Logger(),
	}
}

// GetReport builds the income table for a client's variable positions.
// Missing fundamentals or quotes degrade the affected row, never the
// whole report.
func (s *Service) GetReport(clientID int64) (*Report, error) {
	snapshot, err := s.snapshots.GetSnapshot(clientID)
	if err != nil {
		return nil, err
	}

	received, err := s.income.TotalBySymbol(clientID)
	if err != nil {
		return nil, err
	}

	report := &Report{Positions: []PositionYield{}}
	var totalInvested float64

	for _, pos := range snapshot.Positions {
		if !pos.AssetClass.Variable() {
			continue
		}

		row := PositionYield{
			Symbol:         pos.Symbol,
			Quantity:       pos.Quantity,
			AverageCost:    pos.AverageCost,
			ReceivedIncome: received[pos.Symbol],
		}

		ticker := portfolio.TickerFor(pos.Symbol, pos.AssetClass)

		if price, err := s.quotes.GetQuote(ticker); err == nil {
			row.CurrentPrice = price
			row.PriceAvailable = true
		}

		var fund *domain.Fundamentals
		if fund, err = s.fundamentals.GetFundamentals(ticker); err != nil {
			s.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Fundamentals unavailable for income row")
			fund = &domain.Fundamentals{Symbol: pos.Symbol}
		}

		row.DividendPerShare = fund.DividendPerShare
		row.YieldOnCost = valuation.Yield(fund.DividendPerShare, pos.AverageCost)
		row.CurrentYield = valuation.Yield(fund.DividendPerShare, row.CurrentPrice)
		row.ProjectedAnnualIncome = fund.DividendPerShare * pos.Quantity

		report.Positions = append(report.Positions, row)
		report.TotalProjectedAnnual += row.ProjectedAnnualIncome
		totalInvested += pos.InvestedCapital
	}

	sort.Slice(report.Positions, func(i, j int) bool {
		return report.Positions[i].Symbol < report.Positions[j].Symbol
	})

	for _, amount := range received {
		report.TotalReceived += amount
	}

	report.TotalProjectedMonthly = report.TotalProjectedAnnual / 12
	if totalInvested > 0 {
		report.PortfolioYieldOnCost = report.TotalProjectedAnnual / totalInvested * 100
	}

	return report, nil
}
