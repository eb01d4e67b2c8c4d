package database

// schemas maps database names to their embedded DDL. Every statement is
// idempotent (CREATE ... IF NOT EXISTS) so Migrate can run on each startup.
var schemas = map[string]string{
	"ledger":      ledgerSchema,
	"client_data": clientDataSchema,
}

// ledgerSchema holds the durable financial record: clients, their
// append-only transactions and income events, mutable allocation targets
// and fire-and-forget price alerts.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS clients (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id   INTEGER NOT NULL REFERENCES clients(id),
    symbol      TEXT NOT NULL,
    asset_class TEXT NOT NULL CHECK (asset_class IN ('EQUITY','FUND','FOREIGN','FIXED_INCOME')),
    side        TEXT NOT NULL CHECK (side IN ('BUY','SELL')),
    quantity    REAL NOT NULL CHECK (quantity > 0),
    price       REAL NOT NULL CHECK (price >= 0),
    trade_date  TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_client
    ON transactions(client_id, trade_date, id);

CREATE TABLE IF NOT EXISTS income_events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id  INTEGER NOT NULL REFERENCES clients(id),
    symbol     TEXT NOT NULL,
    amount     REAL NOT NULL,
    event_date TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_income_events_client
    ON income_events(client_id, event_date, id);

CREATE TABLE IF NOT EXISTS allocation_targets (
    client_id      INTEGER NOT NULL REFERENCES clients(id),
    symbol         TEXT NOT NULL,
    target_percent REAL NOT NULL CHECK (target_percent >= 0 AND target_percent <= 100),
    PRIMARY KEY (client_id, symbol)
);

CREATE TABLE IF NOT EXISTS price_alerts (
    id           TEXT PRIMARY KEY,
    client_id    INTEGER NOT NULL REFERENCES clients(id),
    symbol       TEXT NOT NULL,
    target_price REAL NOT NULL,
    created_at   INTEGER NOT NULL
);
`

// clientDataSchema holds TTL'd JSON blobs cached from external APIs.
const clientDataSchema = `
CREATE TABLE IF NOT EXISTS yahoo_quote (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS yahoo_fundamentals (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS yahoo_history (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exchangerate (
    pair       TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);
`
