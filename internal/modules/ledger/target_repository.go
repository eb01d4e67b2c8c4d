package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/database"
	"github.com/titaniumapp/titanium/internal/domain"
)

// TargetRepository handles allocation target database operations.
// Targets are the one mutable table in the ledger: INSERT OR REPLACE
// keyed on (client_id, symbol).
type TargetRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTargetRepository creates a new allocation target repository
func NewTargetRepository(ledgerDB *sql.DB, log zerolog.Logger) *TargetRepository {
	return &TargetRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "target").Logger(),
	}
}

// Upsert inserts or replaces the target for (client, symbol).
func (r *TargetRepository) Upsert(target domain.TargetAllocation) error {
	if err := target.Validate(); err != nil {
		return fmt.Errorf("failed to upsert allocation target: %w", err)
	}

	query := `INSERT OR REPLACE INTO allocation_targets (client_id, symbol, target_percent)
		VALUES (?, ?, ?)`

	_, err := r.ledgerDB.Exec(query,
		target.ClientID,
		strings.ToUpper(strings.TrimSpace(target.Symbol)),
		target.TargetPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert allocation target: %w", err)
	}

	return nil
}

// UpsertBatch replaces several targets atomically. The targets form of
// the UI saves the whole set in one submit.
func (r *TargetRepository) UpsertBatch(targets []domain.TargetAllocation) error {
	for _, target := range targets {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("failed to upsert allocation targets: %w", err)
		}
	}

	return database.WithTransaction(r.ledgerDB, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO allocation_targets
			(client_id, symbol, target_percent) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare target upsert: %w", err)
		}
		defer stmt.Close()

		for _, target := range targets {
			if _, err := stmt.Exec(
				target.ClientID,
				strings.ToUpper(strings.TrimSpace(target.Symbol)),
				target.TargetPercent,
			); err != nil {
				return fmt.Errorf("failed to upsert target for %s: %w", target.Symbol, err)
			}
		}
		return nil
	})
}

// GetByClient returns all allocation targets for a client keyed by symbol.
func (r *TargetRepository) GetByClient(clientID int64) (map[string]float64, error) {
	query := `SELECT symbol, target_percent FROM allocation_targets WHERE client_id = ?`

	rows, err := r.ledgerDB.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation targets: %w", err)
	}
	defer rows.Close()

	targets := make(map[string]float64)
	for rows.Next() {
		var symbol string
		var percent float64
		if err := rows.Scan(&symbol, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan allocation target: %w", err)
		}
		targets[symbol] = percent
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation targets: %w", err)
	}

	return targets, nil
}
