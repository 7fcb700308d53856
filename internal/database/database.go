package database

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/evidenceledger/proxybid/internal/errl"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database driver and connection string
type Config struct {
	Driver string
	DSN    string
}

// Database manages the application storage
type Database struct {
	cfg Config
	db  *sql.DB
}

// New creates a new database instance. Call Initialize before use.
func New(cfg Config) *Database {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.DSN == "" && cfg.Driver == DriverSQLite {
		cfg.DSN = "./proxybid.db"
	}
	return &Database{cfg: cfg}
}

// NewWithDB wraps an already open connection
func NewWithDB(db *sql.DB, driver string) *Database {
	return &Database{cfg: Config{Driver: driver}, db: db}
}

// Initialize opens the connection if needed and creates the tables
func (d *Database) Initialize(ctx context.Context) error {
	if d.db == nil {
		switch d.cfg.Driver {
		case DriverSQLite, DriverPostgres:
		default:
			return errl.Errorf("unsupported database driver %q", d.cfg.Driver)
		}

		db, err := sql.Open(d.cfg.Driver, d.cfg.DSN)
		if err != nil {
			return errl.Errorf("failed to open database: %w", err)
		}
		if d.cfg.Driver == DriverSQLite {
			// A single writer avoids "database is locked" errors
			db.SetMaxOpenConns(1)
		}
		d.db = db
	}

	if err := d.db.PingContext(ctx); err != nil {
		return errl.Errorf("failed to connect to database: %w", err)
	}

	if err := d.createTables(ctx); err != nil {
		return errl.Errorf("failed to create tables: %w", err)
	}

	slog.Info("Database initialized", "driver", d.cfg.Driver)
	return nil
}

// createTables creates all necessary tables. Existing tables are left untouched.
func (d *Database) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bidding_applications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			application_type TEXT NOT NULL,
			court_code TEXT NOT NULL,
			court_name TEXT NOT NULL,
			case_number TEXT NOT NULL,
			print_case_number TEXT NOT NULL,
			lowest_bid_amount BIGINT NOT NULL,
			deposit_amount BIGINT NOT NULL,
			bid_date TEXT NOT NULL,
			bid_amount BIGINT NOT NULL,
			applicant_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			address TEXT NOT NULL,
			resident_id_sealed TEXT,
			company_name TEXT,
			business_number TEXT,
			representative TEXT,
			member_count INTEGER,
			members_json TEXT,
			bank TEXT NOT NULL,
			account_number_sealed TEXT NOT NULL,
			account_holder TEXT NOT NULL,
			phone_verified BOOLEAN NOT NULL,
			signature TEXT NOT NULL,
			terms_agreed BOOLEAN NOT NULL,
			privacy_agreed BOOLEAN NOT NULL,
			payment_method TEXT NOT NULL,
			depositor_name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bidding_applications_user
			ON bidding_applications (user_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return errl.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Ping checks that the database is reachable
func (d *Database) Ping(ctx context.Context) error {
	if d.db == nil {
		return errl.Errorf("database not initialized")
	}
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
