package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-roster-api/pkg/config"
	"github.com/noah-isme/sma-roster-api/pkg/database"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

func TestSQLStoreOnSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLite(config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "roster.db")})
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	_, err = store.Get(ctx, KeyStudents)
	require.ErrorIs(t, err, appErrors.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, KeyStudents, []byte(`[{"id":1}]`)))
	require.NoError(t, store.Set(ctx, KeyStudents, []byte(`[{"id":2}]`)))

	got, err := store.Get(ctx, KeyStudents)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, string(got))

	require.NoError(t, store.Delete(ctx, KeyStudents))
	_, err = store.Get(ctx, KeyStudents)
	require.ErrorIs(t, err, appErrors.ErrKeyNotFound)
}
