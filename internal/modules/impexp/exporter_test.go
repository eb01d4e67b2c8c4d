package impexp

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
)

type stubDashboardSource struct {
	report *portfolio.DashboardReport
}

func (s *stubDashboardSource) GetDashboard(clientID int64) (*portfolio.DashboardReport, error) {
	return s.report, nil
}

func TestExport_WritesOneRowPerPosition(t *testing.T) {
	source := &stubDashboardSource{report: &portfolio.DashboardReport{
		Positions: []portfolio.EnrichedPosition{
			{
				Symbol:           "PETR4",
				AssetClass:       domain.AssetClassEquity,
				Quantity:         100,
				AverageCost:      10.5,
				CurrentPrice:     12,
				CurrentValue:     1200,
				UnrealizedProfit: 150,
			},
			{
				Symbol:      "TESOURO2030",
				AssetClass:  domain.AssetClassFixedIncome,
				Quantity:    2,
				AverageCost: 1000,
			},
		},
	}}

	exporter := NewExporter(source, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(1, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"symbol", "asset_class", "quantity", "average_cost", "current_price", "current_value", "unrealized_profit"}, records[0])
	assert.Equal(t, "PETR4", records[1][0])
	assert.Equal(t, "EQUITY", records[1][1])
	assert.Equal(t, "100", records[1][2])
	assert.Equal(t, "10.5", records[1][3])
	assert.Equal(t, "TESOURO2030", records[2][0])
	assert.Equal(t, "FIXED_INCOME", records[2][1])
}

func TestExport_EmptyPortfolioIsHeaderOnly(t *testing.T) {
	source := &stubDashboardSource{report: &portfolio.DashboardReport{Positions: []portfolio.EnrichedPosition{}}}
	exporter := NewExporter(source, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(1, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
