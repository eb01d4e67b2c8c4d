// Package impexp moves transaction history in and out of the ledger as
// CSV files.
package impexp

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
)

// TransactionWriter persists a validated batch atomically.
type TransactionWriter interface {
	CreateBatch(txs []domain.Transaction) error
}

// headerAliases maps the column names accepted in import files onto the
// canonical field. Matching is case-insensitive.
var headerAliases = map[string]string{
	"symbol": "symbol", "ticker": "symbol", "ativo": "symbol", "asset": "symbol",
	"asset_class": "asset_class", "class": "asset_class", "tipo": "asset_class", "type": "asset_class",
	"side": "side", "operation": "side", "operacao": "side",
	"quantity": "quantity", "qty": "quantity", "qtd": "quantity", "shares": "quantity",
	"price": "price", "unit_price": "price", "preco": "price",
	"date": "date", "data": "date", "trade_date": "date",
}

// QuarantinedRow is an input row that could not be turned into a
// transaction. Quarantined rows are reported, never silently dropped.
type QuarantinedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	BatchID     string           `json:"batch_id"`
	Imported    int              `json:"imported"`
	Quarantined []QuarantinedRow `json:"quarantined"`
}

// Importer parses CSV files into ledger transactions.
type Importer struct {
	writer TransactionWriter
	clock  domain.Clock
	log    zerolog.Logger
}

// NewImporter creates a new CSV importer
func NewImporter(writer TransactionWriter, clock domain.Clock, log zerolog.Logger) *Importer {
	return &Importer{
		writer: writer,
		clock:  clock,
		log:    log.With().Str("service", "importer").Logger(),
	}
}

// Import reads a CSV stream and stores every parseable row for the
// client. Valid rows commit as one batch; malformed rows are quarantined
// and reported back with their line number. Comma and semicolon
// delimiters are both accepted.
func (imp *Importer) Import(clientID int64, reader io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	csvReader := csv.NewReader(strings.NewReader(string(data)))
	csvReader.Comma = detectDelimiter(string(data))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		BatchID:     uuid.New().String(),
		Quarantined: []QuarantinedRow{},
	}

	var batch []domain.Transaction
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Quarantined = append(result.Quarantined, QuarantinedRow{
				Line:   line,
				Reason: err.Error(),
			})
			continue
		}

		tx, reason := imp.parseRow(clientID, columns, record)
		if reason != "" {
			result.Quarantined = append(result.Quarantined, QuarantinedRow{
				Line:   line,
				Reason: reason,
				Raw:    strings.Join(record, ","),
			})
			continue
		}
		batch = append(batch, tx)
	}

	if len(batch) > 0 {
		if err := imp.writer.CreateBatch(batch); err != nil {
			return nil, fmt.Errorf("failed to store imported transactions: %w", err)
		}
	}
	result.Imported = len(batch)

	imp.log.Info().Str("batch_id", result.BatchID).Int("imported", result.Imported).
		Int("quarantined", len(result.Quarantined)).Int64("client_id", clientID).
		Msg("Import completed")

	return result, nil
}

// parseRow turns one record into a transaction, or returns the
// quarantine reason. Optional columns fall back to defaults: asset class
// EQUITY, side BUY, date today.
func (imp *Importer) parseRow(clientID int64, columns map[string]int, record []string) (domain.Transaction, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	tx := domain.Transaction{ClientID: clientID}

	tx.Symbol = strings.ToUpper(field("symbol"))
	if tx.Symbol == "" {
		return tx, "missing symbol"
	}

	tx.AssetClass = domain.AssetClassEquity
	if raw := field("asset_class"); raw != "" {
		class, err := domain.ParseAssetClass(raw)
		if err != nil {
			return tx, fmt.Sprintf("invalid asset class %q", raw)
		}
		tx.AssetClass = class
	}

	tx.Side = domain.SideBuy
	if raw := field("side"); raw != "" {
		side, err := domain.ParseTradeSide(raw)
		if err != nil {
			return tx, fmt.Sprintf("invalid side %q", raw)
		}
		tx.Side = side
	}

	qty, err := parseNumber(field("quantity"))
	if err != nil || qty <= 0 {
		return tx, fmt.Sprintf("invalid quantity %q", field("quantity"))
	}
	tx.Quantity = qty

	price, err := parseNumber(field("price"))
	if err != nil || price < 0 {
		return tx, fmt.Sprintf("invalid price %q", field("price"))
	}
	tx.Price = price

	tx.TradeDate = imp.clock.Now()
	if raw := field("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return tx, fmt.Sprintf("invalid date %q", raw)
		}
		tx.TradeDate = date
	}

	return tx, ""
}

// mapHeader resolves aliased column names to field positions. A file
// without an identifiable symbol column is rejected outright.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, name := range header {
		canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, exists := columns[canonical]; !exists {
			columns[canonical] = i
		}
	}
	if _, ok := columns["symbol"]; !ok {
		return nil, fmt.Errorf("import file has no symbol column")
	}
	return columns, nil
}

// detectDelimiter picks semicolon when the header line uses it, which is
// common in pt-BR spreadsheet exports.
func detectDelimiter(data string) rune {
	firstLine := data
	if idx := strings.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// dateLayouts lists the trade date formats accepted in import files.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// parseNumber accepts both decimal point and pt-BR decimal comma.
func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty number")
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	return strconv.ParseFloat(raw, 64)
}
