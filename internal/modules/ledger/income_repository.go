package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
)

// IncomeRepository handles dividend/income event database operations.
// Like transactions, the table is append-only.
type IncomeRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewIncomeRepository creates a new income event repository
func NewIncomeRepository(ledgerDB *sql.DB, log zerolog.Logger) *IncomeRepository {
	return &IncomeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "income").Logger(),
	}
}

// Create inserts a new income event record
func (r *IncomeRepository) Create(event domain.IncomeEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("failed to create income event: %w", err)
	}

	query := `
		INSERT INTO income_events (client_id, symbol, amount, event_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		event.ClientID,
		strings.ToUpper(strings.TrimSpace(event.Symbol)),
		event.Amount,
		event.EventDate.Format(dateLayout),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create income event: %w", err)
	}

	r.log.Info().
		Int64("client_id", event.ClientID).
		Str("symbol", event.Symbol).
		Float64("amount", event.Amount).
		Msg("Income event created")

	return nil
}

// GetByClient returns a client's income events, most recent first.
func (r *IncomeRepository) GetByClient(clientID int64) ([]domain.IncomeEvent, error) {
	query := `SELECT id, client_id, symbol, amount, event_date, created_at
		FROM income_events
		WHERE client_id = ?
		ORDER BY event_date DESC, id DESC`

	rows, err := r.ledgerDB.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query income events: %w", err)
	}
	defer rows.Close()

	var events []domain.IncomeEvent
	for rows.Next() {
		var (
			event     domain.IncomeEvent
			eventDate string
			createdAt int64
		)
		if err := rows.Scan(
			&event.ID,
			&event.ClientID,
			&event.Symbol,
			&event.Amount,
			&eventDate,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan income event: %w", err)
		}

		parsed, err := time.Parse(dateLayout, eventDate)
		if err != nil {
			return nil, fmt.Errorf("invalid event date %q: %w", eventDate, err)
		}
		event.EventDate = parsed
		event.CreatedAt = time.Unix(createdAt, 0)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income events: %w", err)
	}

	return events, nil
}

// TotalBySymbol returns the summed income amount per symbol for a client.
func (r *IncomeRepository) TotalBySymbol(clientID int64) (map[string]float64, error) {
	query := `SELECT symbol, SUM(amount)
		FROM income_events
		WHERE client_id = ?
		GROUP BY symbol`

	rows, err := r.ledgerDB.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query income totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var symbol string
		var total float64
		if err := rows.Scan(&symbol, &total); err != nil {
			return nil, fmt.Errorf("failed to scan income total: %w", err)
		}
		totals[symbol] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income totals: %w", err)
	}

	return totals, nil
}
