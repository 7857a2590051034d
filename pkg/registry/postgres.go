package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRegistry serves eligibility records from PostgreSQL, for
// deployments where the registry is maintained centrally.
type PostgresRegistry struct {
	db *sql.DB
}

// OpenPostgres connects using a lib/pq connection string.
func OpenPostgres(connStr string) (*PostgresRegistry, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	return &PostgresRegistry{db: db}, nil
}

// NewPostgresRegistry wraps an existing connection.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Lookup(ctx context.Context, token string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT token, active, linked, scheme, amount, claim_count, last_claim FROM beneficiaries WHERE token = $1",
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

func (r *PostgresRegistry) Schemes(ctx context.Context) ([]string, error) {
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

// Close releases the underlying database handle.
func (r *PostgresRegistry) Close() error { return r.db.Close() }
