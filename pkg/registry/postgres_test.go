package registry

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgLookupQuery = "SELECT token, active, linked, scheme, amount, claim_count, last_claim FROM beneficiaries WHERE token = $1"

func TestPostgresRegistryLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := NewPostgresRegistry(db)
	ctx := context.Background()

	last := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"token", "active", "linked", "scheme", "amount", "claim_count", "last_claim"}).
		AddRow("tok-1", true, true, "Food", 5000, 1, last)

	mock.ExpectQuery(regexp.QuoteMeta(pgLookupQuery)).
		WithArgs("tok-1").
		WillReturnRows(rows)

	rec, err := reg.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Food", rec.Scheme)
	assert.Equal(t, int64(5000), rec.Amount)
	require.NotNil(t, rec.LastClaim)
	assert.True(t, rec.LastClaim.Equal(last))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegistryLookupNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := NewPostgresRegistry(db)

	mock.ExpectQuery(regexp.QuoteMeta(pgLookupQuery)).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"token", "active", "linked", "scheme", "amount", "claim_count", "last_claim"}))

	rec, err := reg.Lookup(context.Background(), "absent")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgresRegistryLookupBackendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := NewPostgresRegistry(db)

	mock.ExpectQuery(regexp.QuoteMeta(pgLookupQuery)).
		WithArgs("tok-1").
		WillReturnError(errors.New("connection reset"))

	_, err = reg.Lookup(context.Background(), "tok-1")
	assert.Error(t, err)
}

func TestPostgresRegistrySchemes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := NewPostgresRegistry(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT scheme FROM beneficiaries ORDER BY scheme")).
		WillReturnRows(sqlmock.NewRows([]string{"scheme"}).AddRow("Food").AddRow("Housing"))

	schemes, err := reg.Schemes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Housing"}, schemes)
}
