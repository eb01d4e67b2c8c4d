package portfolio

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
)

// TransactionSource provides the replay-ordered transaction history.
type TransactionSource interface {
	GetByClient(clientID int64) ([]domain.Transaction, error)
}

// TargetSource provides the stored allocation targets.
type TargetSource interface {
	GetByClient(clientID int64) (map[string]float64, error)
}

// PriceProvider provides best-effort last prices per ticker. Tickers
// that cannot be priced are absent from the map.
type PriceProvider interface {
	GetQuotes(symbols []string) map[string]float64
}

// RateProvider provides FX rates, or an error when none can be produced.
type RateProvider interface {
	GetRate(fromCurrency, toCurrency string) (float64, error)
}

// Service joins the position engine's output with market data.
// The fallback policy for failed lookups lives here: an unpriceable
// variable-income position is carried at price 0, fixed income is always
// carried at its own average cost, and a failed USD rate lookup falls
// back to the configured default.
type Service struct {
	transactions    TransactionSource
	targets         TargetSource
	prices          PriceProvider
	rates           RateProvider
	clock           domain.Clock
	baseCurrency    string
	usdFallbackRate float64
	log             zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	transactions TransactionSource,
	targets TargetSource,
	prices PriceProvider,
	rates RateProvider,
	clock domain.Clock,
	baseCurrency string,
	usdFallbackRate float64,
	log zerolog.Logger,
) *Service {
	return &Service{
		transactions:    transactions,
		targets:         targets,
		prices:          prices,
		rates:           rates,
		clock:           clock,
		baseCurrency:    baseCurrency,
		usdFallbackRate: usdFallbackRate,
		log:             log.With().Str("service", "portfolio").Logger(),
	}
}

// GetSnapshot replays the client's ledger into holdings.
func (s *Service) GetSnapshot(clientID int64) (Snapshot, error) {
	txs, err := s.transactions.GetByClient(clientID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	return Compute(txs, s.clock.Now()), nil
}

// GetDashboard builds the priced portfolio view for a client.
func (s *Service) GetDashboard(clientID int64) (*DashboardReport, error) {
	snapshot, err := s.GetSnapshot(clientID)
	if err != nil {
		return nil, err
	}

	report := &DashboardReport{
		Positions:      []EnrichedPosition{},
		RealizedProfit: snapshot.RealizedProfit,
		ByAssetClass:   make(map[string]float64),
		UsdRate:        1.0,
	}

	// Resolve exchange tickers for everything that has a market price.
	tickers := make([]string, 0, len(snapshot.Positions))
	tickerBySymbol := make(map[string]string, len(snapshot.Positions))
	needsUSD := false
	for _, pos := range snapshot.Positions {
		if !pos.AssetClass.Variable() {
			continue
		}
		ticker := TickerFor(pos.Symbol, pos.AssetClass)
		tickerBySymbol[pos.Symbol] = ticker
		tickers = append(tickers, ticker)
		if pos.AssetClass == domain.AssetClassForeign {
			needsUSD = true
		}
	}

	quotes := map[string]float64{}
	if len(tickers) > 0 && s.prices != nil {
		quotes = s.prices.GetQuotes(tickers)
	}

	if needsUSD {
		rate, err := s.rates.GetRate("USD", s.baseCurrency)
		if err != nil || rate <= 0 {
			s.log.Warn().Err(err).
				Float64("fallback", s.usdFallbackRate).
				Msg("USD rate lookup failed, using fallback")
			report.UsdRate = s.usdFallbackRate
			report.UsdRateFallback = true
		} else {
			report.UsdRate = rate
		}
	}

	for _, pos := range snapshot.Positions {
		enriched := EnrichedPosition{
			Symbol:          pos.Symbol,
			AssetClass:      pos.AssetClass,
			Quantity:        pos.Quantity,
			AverageCost:     pos.AverageCost,
			InvestedCapital: pos.InvestedCapital,
		}

		if pos.AssetClass.Variable() {
			price, ok := quotes[tickerBySymbol[pos.Symbol]]
			enriched.CurrentPrice = price
			enriched.PriceAvailable = ok
		} else {
			// Fixed income has no market quote; carried at cost.
			enriched.CurrentPrice = pos.AverageCost
			enriched.PriceAvailable = true
		}

		fx := 1.0
		if pos.AssetClass == domain.AssetClassForeign {
			fx = report.UsdRate
		}

		enriched.CurrentValue = pos.Quantity * enriched.CurrentPrice * fx
		enriched.UnrealizedProfit = (enriched.CurrentPrice - pos.AverageCost) * pos.Quantity * fx

		report.TotalValue += enriched.CurrentValue
		report.TotalInvested += pos.InvestedCapital * fx
		report.ByAssetClass[string(pos.AssetClass)] += enriched.CurrentValue

		report.Positions = append(report.Positions, enriched)
	}

	if report.TotalValue > 0 {
		for i := range report.Positions {
			report.Positions[i].AllocationPct = report.Positions[i].CurrentValue / report.TotalValue * 100
		}
	}

	report.TotalValueDisplay = DisplayAmount(report.TotalValue, s.baseCurrency)

	return report, nil
}

// GetAllocation compares target weights with actual weights per symbol.
func (s *Service) GetAllocation(clientID int64) ([]AllocationEntry, error) {
	dashboard, err := s.GetDashboard(clientID)
	if err != nil {
		return nil, err
	}

	targets, err := s.targets.GetByClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocation targets: %w", err)
	}

	actual := make(map[string]float64, len(dashboard.Positions))
	for _, pos := range dashboard.Positions {
		actual[pos.Symbol] = pos.AllocationPct
	}

	// Union of held symbols and symbols with a target.
	symbols := make(map[string]bool, len(actual)+len(targets))
	for symbol := range actual {
		symbols[symbol] = true
	}
	for symbol := range targets {
		symbols[symbol] = true
	}

	entries := make([]AllocationEntry, 0, len(symbols))
	for symbol := range symbols {
		entry := AllocationEntry{
			Symbol:        symbol,
			TargetPercent: targets[symbol],
			ActualPercent: actual[symbol],
		}
		entry.Drift = entry.ActualPercent - entry.TargetPercent
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})

	return entries, nil
}

// GetTaxReport returns the current-month sales volume check.
func (s *Service) GetTaxReport(clientID int64) (*TaxReport, error) {
	snapshot, err := s.GetSnapshot(clientID)
	if err != nil {
		return nil, err
	}

	return &TaxReport{
		MonthSalesVolume: snapshot.MonthSalesVolume,
		Threshold:        MonthlySalesExemption,
		Exempt:           snapshot.MonthSalesVolume <= MonthlySalesExemption,
	}, nil
}

// TickerFor maps a ledger symbol onto its exchange ticker. Local
// variable-income symbols get the B3 ".SA" suffix, foreign symbols are
// used as-is, fixed income has no ticker.
func TickerFor(symbol string, class domain.AssetClass) string {
	if class == domain.AssetClassFixedIncome {
		return ""
	}
	if class == domain.AssetClassForeign {
		return symbol
	}
	if strings.Contains(strings.ToUpper(symbol), ".SA") {
		return symbol
	}
	return symbol + ".SA"
}

// DisplayAmount formats an amount as localized currency for the UI.
func DisplayAmount(amount float64, currency string) string {
	return money.New(int64(math.Round(amount*100)), currency).Display()
}
