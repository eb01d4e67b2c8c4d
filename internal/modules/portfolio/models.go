package portfolio

import "github.com/titaniumapp/titanium/internal/domain"

// MonthlySalesExemption is the monthly sales volume (in the base
// currency) under which realized gains on equities are tax exempt.
const MonthlySalesExemption = 20000.0

// EnrichedPosition is a holding joined with market data, ready for the
// dashboard table.
type EnrichedPosition struct {
	Symbol           string            `json:"symbol"`
	AssetClass       domain.AssetClass `json:"asset_class"`
	Quantity         float64           `json:"quantity"`
	AverageCost      float64           `json:"average_cost"`
	InvestedCapital  float64           `json:"invested_capital"`
	CurrentPrice     float64           `json:"current_price"`
	PriceAvailable   bool              `json:"price_available"`
	CurrentValue     float64           `json:"current_value"`
	UnrealizedProfit float64           `json:"unrealized_profit"`
	AllocationPct    float64           `json:"allocation_pct"`
}

// DashboardReport is the main portfolio view.
type DashboardReport struct {
	Positions         []EnrichedPosition `json:"positions"`
	TotalValue        float64            `json:"total_value"`
	TotalValueDisplay string             `json:"total_value_display"`
	TotalInvested     float64            `json:"total_invested"`
	RealizedProfit    float64            `json:"realized_profit"`
	UsdRate           float64            `json:"usd_rate"`
	UsdRateFallback   bool               `json:"usd_rate_fallback"`
	ByAssetClass      map[string]float64 `json:"by_asset_class"`
}

// AllocationEntry compares the target weight with the actual weight for
// one symbol.
type AllocationEntry struct {
	Symbol        string  `json:"symbol"`
	TargetPercent float64 `json:"target_percent"`
	ActualPercent float64 `json:"actual_percent"`
	Drift         float64 `json:"drift"`
}

// TaxReport is the current-month sales volume check.
type TaxReport struct {
	MonthSalesVolume float64 `json:"month_sales_volume"`
	Threshold        float64 `json:"threshold"`
	Exempt           bool    `json:"exempt"`
}
