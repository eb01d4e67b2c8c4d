// Package ledger provides the durable financial record: append-only
// transactions and income events plus upserted allocation targets.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/database"
	"github.com/titaniumapp/titanium/internal/domain"
)

const dateLayout = "2006-01-02"

// transactionsColumns is the list of columns for the transactions table.
// Column order must match the scan helpers below.
const transactionsColumns = `id, client_id, symbol, asset_class, side, quantity, price, trade_date, created_at`

// TransactionRepository handles transaction ledger database operations.
// The table is append-only: there is no update or delete path.
type TransactionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transaction").Logger(),
	}
}

// Create inserts a new transaction record
func (r *TransactionRepository) Create(tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	query := `
		INSERT INTO transactions
		(client_id, symbol, asset_class, side, quantity, price, trade_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		tx.ClientID,
		strings.ToUpper(strings.TrimSpace(tx.Symbol)),
		string(tx.AssetClass),
		string(tx.Side),
		tx.Quantity,
		tx.Price,
		tx.TradeDate.Format(dateLayout),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.log.Info().
		Int64("client_id", tx.ClientID).
		Str("symbol", tx.Symbol).
		Str("side", string(tx.Side)).
		Float64("quantity", tx.Quantity).
		Msg("Transaction created")

	return nil
}

// CreateBatch inserts several transactions inside one database
// transaction, so a failed import never leaves a partial batch behind.
func (r *TransactionRepository) CreateBatch(txs []domain.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("failed to create transaction batch: %w", err)
		}
	}

	return database.WithTransaction(r.ledgerDB, func(dbTx *sql.Tx) error {
		stmt, err := dbTx.Prepare(`
			INSERT INTO transactions
			(client_id, symbol, asset_class, side, quantity, price, trade_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare batch insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for _, tx := range txs {
			if _, err := stmt.Exec(
				tx.ClientID,
				strings.ToUpper(strings.TrimSpace(tx.Symbol)),
				string(tx.AssetClass),
				string(tx.Side),
				tx.Quantity,
				tx.Price,
				tx.TradeDate.Format(dateLayout),
				now,
			); err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
		}
		return nil
	})
}

// GetByClient returns a client's full transaction history in replay
// order: ascending by trade date, insertion order on ties. The position
// engine depends on this ordering.
func (r *TransactionRepository) GetByClient(clientID int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionsColumns + `
		FROM transactions
		WHERE client_id = ?
		ORDER BY trade_date ASC, id ASC`

	rows, err := r.ledgerDB.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// GetStatement returns a client's transaction history, most recent first.
func (r *TransactionRepository) GetStatement(clientID int64, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionsColumns + `
		FROM transactions
		WHERE client_id = ?
		ORDER BY trade_date DESC, id DESC
		LIMIT ?`

	rows, err := r.ledgerDB.Query(query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement: %w", err)
	}

	return txs, nil
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		tx         domain.Transaction
		assetClass string
		side       string
		tradeDate  string
		createdAt  int64
	)

	if err := rows.Scan(
		&tx.ID,
		&tx.ClientID,
		&tx.Symbol,
		&assetClass,
		&side,
		&tx.Quantity,
		&tx.Price,
		&tradeDate,
		&createdAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	parsed, err := time.Parse(dateLayout, tradeDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid trade date %q: %w", tradeDate, err)
	}

	tx.AssetClass = domain.AssetClass(assetClass)
	tx.Side = domain.TradeSide(side)
	tx.TradeDate = parsed
	tx.CreatedAt = time.Unix(createdAt, 0)

	return tx, nil
}
