// Package accounts manages the clients that own portfolio ledgers.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/domain"
)

// Repository handles client database operations. Clients are create-only:
// a ledger, once started, is never destroyed.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new client repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "accounts").Logger(),
	}
}

// Create inserts a new client and returns it with its assigned ID.
func (r *Repository) Create(name string) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}

	now := time.Now()
	result, err := r.ledgerDB.Exec(
		`INSERT INTO clients (name, created_at) VALUES (?, ?)`,
		name, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get client id: %w", err)
	}

	r.log.Info().Int64("id", id).Str("name", name).Msg("Client created")

	return &domain.Client{ID: id, Name: name, CreatedAt: now}, nil
}

// GetByID returns a client by its ID, or nil when it does not exist.
func (r *Repository) GetByID(id int64) (*domain.Client, error) {
	var client domain.Client
	var createdAt int64

	err := r.ledgerDB.QueryRow(
		`SELECT id, name, created_at FROM clients WHERE id = ?`, id,
	).Scan(&client.ID, &client.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	client.CreatedAt = time.Unix(createdAt, 0)
	return &client, nil
}

// List returns all clients ordered by name.
func (r *Repository) List() ([]domain.Client, error) {
	rows, err := r.ledgerDB.Query(`SELECT id, name, created_at FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var client domain.Client
		var createdAt int64
		if err := rows.Scan(&client.ID, &client.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		client.CreatedAt = time.Unix(createdAt, 0)
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}
