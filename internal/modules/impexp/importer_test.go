package impexp

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titaniumapp/titanium/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type captureWriter struct {
	batches [][]domain.Transaction
	err     error
}

func (w *captureWriter) CreateBatch(txs []domain.Transaction) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, txs)
	return nil
}

func newTestImporter(writer *captureWriter) *Importer {
	now, _ := time.Parse("2006-01-02", "2025-06-15")
	return NewImporter(writer, fixedClock{now: now}, zerolog.Nop())
}

func TestImport_BasicCSV(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	csv := strings.Join([]string{
		"symbol,asset_class,side,quantity,price,date",
		"PETR4,EQUITY,BUY,100,10.50,2025-01-10",
		"VALE3,EQUITY,SELL,50,62.00,2025-02-10",
	}, "\n")

	result, err := imp.Import(1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Quarantined)

	_, err = uuid.Parse(result.BatchID)
	assert.NoError(t, err)

	require.Len(t, writer.batches, 1)
	batch := writer.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "PETR4", batch[0].Symbol)
	assert.Equal(t, domain.SideSell, batch[1].Side)
	assert.InDelta(t, 10.50, batch[0].Price, 1e-9)
	assert.Equal(t, int64(1), batch[0].ClientID)
}

func TestImport_SemicolonDelimiterAndAliasHeaders(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	// pt-BR spreadsheet export: semicolons, localized headers and
	// decimal commas.
	csv := strings.Join([]string{
		"ativo;tipo;operacao;qtd;preco;data",
		"HGLG11;FII;COMPRA;10;162,30;10/01/2025",
	}, "\n")

	result, err := imp.Import(1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, writer.batches, 1)

	tx := writer.batches[0][0]
	assert.Equal(t, "HGLG11", tx.Symbol)
	assert.Equal(t, domain.AssetClassFund, tx.AssetClass)
	assert.Equal(t, domain.SideBuy, tx.Side)
	assert.InDelta(t, 162.30, tx.Price, 1e-9)
	assert.Equal(t, "2025-01-10", tx.TradeDate.Format("2006-01-02"))
}

func TestImport_DefaultsForOptionalColumns(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	csv := "symbol,quantity,price\nPETR4,100,10\n"

	result, err := imp.Import(1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	tx := writer.batches[0][0]
	assert.Equal(t, domain.AssetClassEquity, tx.AssetClass)
	assert.Equal(t, domain.SideBuy, tx.Side)
	assert.Equal(t, "2025-06-15", tx.TradeDate.Format("2006-01-02"))
}

func TestImport_QuarantinesMalformedRows(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	csv := strings.Join([]string{
		"symbol,quantity,price,date",
		"PETR4,100,10,2025-01-10",
		",50,10,2025-01-11",
		"VALE3,not-a-number,10,2025-01-12",
		"ITUB4,10,5,never",
	}, "\n")

	result, err := imp.Import(1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Quarantined, 3)

	assert.Equal(t, 3, result.Quarantined[0].Line)
	assert.Contains(t, result.Quarantined[0].Reason, "symbol")
	assert.Contains(t, result.Quarantined[1].Reason, "quantity")
	assert.Contains(t, result.Quarantined[2].Reason, "date")

	// The valid row still commits.
	require.Len(t, writer.batches, 1)
	assert.Len(t, writer.batches[0], 1)
}

func TestImport_RejectsFileWithoutSymbolColumn(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	csv := "quantity,price\n100,10\n"

	_, err := imp.Import(1, strings.NewReader(csv))
	assert.Error(t, err)
	assert.Empty(t, writer.batches)
}

func TestImport_AllRowsQuarantinedWritesNothing(t *testing.T) {
	writer := &captureWriter{}
	imp := newTestImporter(writer)

	csv := "symbol,quantity,price\n,10,5\n"

	result, err := imp.Import(1, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Zero(t, result.Imported)
	assert.Len(t, result.Quarantined, 1)
	assert.Empty(t, writer.batches)
}
