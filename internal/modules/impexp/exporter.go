package impexp

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

// DashboardSource provides the priced positions to export.
type DashboardSource interface {
	GetDashboard(clientID int64) (*portfolio.DashboardReport, error)
}

// Exporter writes the current portfolio as CSV.
type Exporter struct {
	dashboards DashboardSource
	log        zerolog.Logger
}

// NewExporter creates a new CSV exporter
func NewExporter(dashboards DashboardSource, log zerolog.Logger) *Exporter {
	return &Exporter{
		dashboards: dashboards,
		log:        log.With().Str("service", "exporter").Logger(),
	}
}

// Export writes one row per open position to w.
func (e *Exporter) Export(clientID int64, w io.Writer) error {
	report, err := e.dashboards.GetDashboard(clientID)
	if err != nil {
		return fmt.Errorf("failed to build portfolio for export: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	header := []string{"symbol", "asset_class", "quantity", "average_cost", "current_price", "current_value", "unrealized_profit"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, pos := range report.Positions {
		record := []string{
			pos.Symbol,
			string(pos.AssetClass),
			formatFloat(pos.Quantity),
			formatFloat(pos.AverageCost),
			formatFloat(pos.CurrentPrice),
			formatFloat(pos.CurrentValue),
			formatFloat(pos.UnrealizedProfit),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	e.log.Info().Int64("client_id", clientID).Int("positions", len(report.Positions)).Msg("Portfolio exported")
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
