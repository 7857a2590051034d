package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteRegistry serves eligibility records from a local SQLite database.
type SQLiteRegistry struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the registry database at path.
func OpenSQLite(path string) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	r := &SQLiteRegistry{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewSQLiteRegistry wraps an existing connection (tests, custom pools).
func NewSQLiteRegistry(db *sql.DB) (*SQLiteRegistry, error) {
	r := &SQLiteRegistry{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRegistry) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS beneficiaries (
		token TEXT PRIMARY KEY,
		active INTEGER NOT NULL,
		linked INTEGER NOT NULL,
		scheme TEXT NOT NULL,
		amount INTEGER NOT NULL,
		claim_count INTEGER NOT NULL DEFAULT 0,
		last_claim TIMESTAMP NULL
	);`
	_, err := r.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("migrate registry: %w", err)
	}
	return nil
}

func (r *SQLiteRegistry) Lookup(ctx context.Context, token string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT token, active, linked, scheme, amount, claim_count, last_claim FROM beneficiaries WHERE token = ?",
		token)

	var rec Record
	var last sql.NullTime
	err := row.Scan(&rec.Token, &rec.Active, &rec.Linked, &rec.Scheme, &rec.Amount, &rec.ClaimCount, &last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	if last.Valid {
		t := last.Time
		rec.LastClaim = &t
	}
	return &rec, nil
}

func (r *SQLiteRegistry) Schemes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT scheme FROM beneficiaries ORDER BY scheme")
	if err != nil {
		return nil, fmt.Errorf("registry schemes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schemes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	return schemes, rows.Err()
}

// Seed bulk-loads records, replacing any existing row for the same token.
// Used by import tooling before the service starts; the registry is
// read-only once serving.
func (r *SQLiteRegistry) Seed(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO beneficiaries (token, active, linked, scheme, amount, claim_count, last_claim)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Token, rec.Active, rec.Linked, rec.Scheme, rec.Amount, rec.ClaimCount, rec.LastClaim)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("seed registry: %w", err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (r *SQLiteRegistry) Close() error { return r.db.Close() }
