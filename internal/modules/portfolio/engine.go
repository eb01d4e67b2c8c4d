// Package portfolio folds the transaction ledger into current holdings
// and joins them with market data for the dashboard reports.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/titaniumapp/titanium/internal/domain"
)

// zeroEpsilon absorbs floating-point residue: a quantity this close to
// zero is treated as a full exit and the book resets to exactly 0.
const zeroEpsilon = 1e-9

// Holding is the running book for one symbol.
type Holding struct {
	Symbol          string            `json:"symbol"`
	AssetClass      domain.AssetClass `json:"asset_class"`
	Quantity        float64           `json:"quantity"`
	AverageCost     float64           `json:"average_cost"`
	InvestedCapital float64           `json:"invested_capital"`
}

// Snapshot is the result of replaying a transaction history.
type Snapshot struct {
	// Positions holds one entry per symbol with strictly positive
	// quantity, ordered by symbol.
	Positions []Holding
	// RealizedProfit accumulates (sale price - average cost at sale) x
	// quantity across every sell in the history.
	RealizedProfit float64
	// MonthSalesVolume sums price x quantity of the sells whose trade
	// date falls in the calendar month of the evaluation time.
	MonthSalesVolume float64
}

// Compute replays a transaction history into current holdings using
// average-cost-basis accounting.
//
// The replay order is ascending trade date with insertion order
// preserved on ties. `now` determines which sells count toward the
// current-month sales volume; everything else is a pure function of the
// history.
//
// Two historical quirks are kept deliberately:
//   - selling with nothing on the book uses an average cost of 0, so the
//     full proceeds count as realized profit;
//   - a sell larger than the held quantity drives the book negative. The
//     negative position simply never surfaces in Positions.
func Compute(txs []domain.Transaction, now time.Time) Snapshot {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradeDate.Before(ordered[j].TradeDate)
	})

	type book struct {
		assetClass domain.AssetClass
		quantity   float64
		invested   float64
	}

	books := make(map[string]*book)
	order := make([]string, 0)

	var snapshot Snapshot

	for _, tx := range ordered {
		b, ok := books[tx.Symbol]
		if !ok {
			b = &book{assetClass: tx.AssetClass}
			books[tx.Symbol] = b
			order = append(order, tx.Symbol)
		}

		switch tx.Side {
		case domain.SideBuy:
			b.quantity += tx.Quantity
			b.invested += tx.Quantity * tx.Price

		case domain.SideSell:
			averageCostBefore := 0.0
			if b.quantity > 0 {
				averageCostBefore = b.invested / b.quantity
			}

			snapshot.RealizedProfit += (tx.Price - averageCostBefore) * tx.Quantity

			if sameMonth(tx.TradeDate, now) {
				snapshot.MonthSalesVolume += tx.Quantity * tx.Price
			}

			b.quantity -= tx.Quantity
			b.invested -= averageCostBefore * tx.Quantity

			if math.Abs(b.quantity) < zeroEpsilon {
				b.quantity = 0
				b.invested = 0
			}
		}
	}

	sort.Strings(order)
	for _, symbol := range order {
		b := books[symbol]
		if b.quantity <= 0 {
			continue
		}
		snapshot.Positions = append(snapshot.Positions, Holding{
			Symbol:          symbol,
			AssetClass:      b.assetClass,
			Quantity:        b.quantity,
			AverageCost:     b.invested / b.quantity,
			InvestedCapital: b.invested,
		})
	}

	return snapshot
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
