// Package alerts stores price watches entered through the dashboard.
package alerts

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
)

// Repository handles price alert persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new alerts repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "alerts").Logger(),
	}
}

// Create stores a new price alert and returns it with its generated ID.
func (r *Repository) Create(clientID int64, symbol string, targetPrice float64) (*domain.PriceAlert, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("alert symbol is required")
	}
	if targetPrice <= 0 {
		return nil, fmt.Errorf("alert target price must be positive")
	}

	alert := &domain.PriceAlert{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO price_alerts (id, client_id, symbol, target_price, created_at) VALUES (?, ?, ?, ?, ?)`,
		alert.ID, alert.ClientID, alert.Symbol, alert.TargetPrice, alert.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	r.log.Info().Str("alert_id", alert.ID).Str("symbol", alert.Symbol).
		Float64("target_price", alert.TargetPrice).Msg("Price alert created")

	return alert, nil
}

// GetByClient returns a client's alerts, newest first.
func (r *Repository) GetByClient(clientID int64) ([]domain.PriceAlert, error) {
	rows, err := r.db.Query(
		`SELECT id, client_id, symbol, target_price, created_at
		 FROM price_alerts WHERE client_id = ? ORDER BY created_at DESC, id`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.PriceAlert
	for rows.Next() {
		var alert domain.PriceAlert
		var createdAt int64
		if err := rows.Scan(&alert.ID, &alert.ClientID, &alert.Symbol, &alert.TargetPrice, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.CreatedAt = time.Unix(createdAt, 0).UTC()
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Delete removes an alert. Returns false when no such alert exists for
// the client.
func (r *Repository) Delete(clientID int64, alertID string) (bool, error) {
	result, err := r.db.Exec(
		`DELETE FROM price_alerts WHERE id = ? AND client_id = ?`,
		alertID, clientID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}
