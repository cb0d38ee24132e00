//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func TestSQLStoreOnPostgres(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("student_roster"),
		tcpostgres.WithUsername("roster"),
		tcpostgres.WithPassword("roster"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db)
	require.NoError(t, store.EnsureSchema(ctx))

	_, err = store.Get(ctx, KeyCustomFields)
	require.ErrorIs(t, err, appErrors.ErrKeyNotFound)

	repo := NewFieldRepository(store)
	fields := []models.FieldDefinition{{ID: "cf-1", Label: "Grade", Key: "grade", Type: models.FieldDropdown, Options: []string{"A"}}}
	require.NoError(t, repo.SaveCustomFields(ctx, fields))
	fields[0].Options = []string{"A", "B"}
	require.NoError(t, repo.SaveCustomFields(ctx, fields))

	got, found, err := repo.CustomFields(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"A", "B"}, got[0].Options)
}
