// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// AssetClass is the closed set of asset classes a transaction can carry.
// Unrecognized labels are rejected at the boundary instead of silently
// falling through to a default.
type AssetClass string

const (
	AssetClassEquity      AssetClass = "EQUITY"
	AssetClassFund        AssetClass = "FUND" // REITs / listed funds
	AssetClassForeign     AssetClass = "FOREIGN"
	AssetClassFixedIncome AssetClass = "FIXED_INCOME"
)

// Variable reports whether the class trades on an exchange and therefore
// has a market price. Fixed income entries are carried at cost.
func (a AssetClass) Variable() bool {
	return a != AssetClassFixedIncome
}

// ParseAssetClass maps user-supplied labels (including the Portuguese
// labels of legacy exports) onto the closed enum.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EQUITY", "STOCK", "ACAO", "AÇÃO":
		return AssetClassEquity, nil
	case "FUND", "REIT", "FII":
		return AssetClassFund, nil
	case "FOREIGN", "EXTERIOR":
		return AssetClassForeign, nil
	case "FIXED_INCOME", "FIXEDINCOME", "RENDA FIXA":
		return AssetClassFixedIncome, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// TradeSide is the direction of a transaction.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ParseTradeSide maps user-supplied labels onto the closed enum.
func ParseTradeSide(s string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "COMPRA":
		return SideBuy, nil
	case "SELL", "VENDA":
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown trade side %q", s)
}

// Client is the owner of a ledger. There is no delete path: ledgers are
// permanent once created.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is one immutable buy or sell record. Once written to the
// ledger it is never updated or removed.
type Transaction struct {
	ID         int64      `json:"id"`
	ClientID   int64      `json:"client_id"`
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Side       TradeSide  `json:"side"`
	Quantity   float64    `json:"quantity"`
	Price      float64    `json:"price"`
	TradeDate  time.Time  `json:"trade_date"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks the transaction before it is written to the ledger.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("transaction symbol is required")
	}
	switch t.AssetClass {
	case AssetClassEquity, AssetClassFund, AssetClassForeign, AssetClassFixedIncome:
	default:
		return fmt.Errorf("invalid asset class %q", t.AssetClass)
	}
	switch t.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("invalid trade side %q", t.Side)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("transaction quantity must be positive, got %v", t.Quantity)
	}
	if t.Price < 0 {
		return fmt.Errorf("transaction price must not be negative, got %v", t.Price)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	return nil
}

// IncomeEvent is one dividend or interest payment credited to a client.
type IncomeEvent struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Symbol    string    `json:"symbol"`
	Amount    float64   `json:"amount"`
	EventDate time.Time `json:"event_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the income event before it is written to the ledger.
func (e IncomeEvent) Validate() error {
	if strings.TrimSpace(e.Symbol) == "" {
		return fmt.Errorf("income event symbol is required")
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("income event date is required")
	}
	return nil
}

// TargetAllocation is the desired portfolio weight for one symbol.
// At most one row exists per (client, symbol); writes are upserts.
type TargetAllocation struct {
	ClientID      int64   `json:"client_id"`
	Symbol        string  `json:"symbol"`
	TargetPercent float64 `json:"target_percent"`
}

// Validate checks the allocation target before it is stored.
func (a TargetAllocation) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("allocation target symbol is required")
	}
	if a.TargetPercent < 0 || a.TargetPercent > 100 {
		return fmt.Errorf("target percent must be within [0,100], got %v", a.TargetPercent)
	}
	return nil
}

// PriceAlert is a stored price watch. Alerts are fire-and-forget: they
// are recorded for the UI, nothing evaluates them.
type PriceAlert struct {
	ID          string    `json:"id"`
	ClientID    int64     `json:"client_id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"target_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fundamentals is the per-share snapshot valuation works from.
type Fundamentals struct {
	Symbol            string  `json:"symbol"`
	EarningsPerShare  float64 `json:"earnings_per_share"`
	BookValuePerShare float64 `json:"book_value_per_share"`
	DividendPerShare  float64 `json:"dividend_per_share"`
}
