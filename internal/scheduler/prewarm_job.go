package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

// ClientLister enumerates the clients whose quotes get prewarmed.
type ClientLister interface {
	List() ([]domain.Client, error)
}

// SnapshotSource replays ledger holdings for a client.
type SnapshotSource interface {
	GetSnapshot(clientID int64) (portfolio.Snapshot, error)
}

// QuotePrewarmJob refreshes cached quotes for every held symbol so
// dashboard requests hit warm cache instead of the upstream API.
type QuotePrewarmJob struct {
	clients   ClientLister
	snapshots SnapshotSource
	prices    portfolio.PriceProvider
	log       zerolog.Logger
}

// NewQuotePrewarmJob creates a new quote prewarm job
func NewQuotePrewarmJob(clients ClientLister, snapshots SnapshotSource, prices portfolio.PriceProvider, log zerolog.Logger) *QuotePrewarmJob {
	return &QuotePrewarmJob{
		clients:   clients,
		snapshots: snapshots,
		prices:    prices,
		log:       log.With().Str("job", "quote_prewarm").Logger(),
	}
}

// Name returns the job identifier
func (j *QuotePrewarmJob) Name() string {
	return "quote_prewarm"
}

// Run fetches quotes for the union of held tickers across all clients.
// Fetching through the price provider stores each quote in the TTL cache
// as a side effect.
func (j *QuotePrewarmJob) Run() error {
	clients, err := j.clients.List()
	if err != nil {
		return err
	}

	tickers := make(map[string]bool)
	for _, client := range clients {
		snapshot, err := j.snapshots.GetSnapshot(client.ID)
		if err != nil {
			j.log.Warn().Err(err).Int64("client_id", client.ID).Msg("Skipping client during prewarm")
			continue
		}
		for _, pos := range snapshot.Positions {
			if !pos.AssetClass.Variable() {
				continue
			}
			tickers[portfolio.TickerFor(pos.Symbol, pos.AssetClass)] = true
		}
	}

	if len(tickers) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(tickers))
	for ticker := range tickers {
		symbols = append(symbols, ticker)
	}

	quotes := j.prices.GetQuotes(symbols)
	j.log.Info().Int("requested", len(symbols)).Int("fetched", len(quotes)).Msg("Quote prewarm completed")

	return nil
}
