package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/pitico/internal/encoder"
	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/logger"
)

func newSQLiteRepo(t *testing.T) URLRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "pitico_test.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestGormURLRepository_Contract(t *testing.T) {
	runContract(t, newSQLiteRepo)
}

func TestOpenSQLite_SchemaSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pitico.db")
	ctx := context.Background()

	repo, err := OpenSQLite(path, logger.Discard())
	require.NoError(t, err)
	_, _, err = repo.Register(ctx, "example.com/a", encoder.Encode)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := OpenSQLite(path, logger.Discard())
	require.NoError(t, err, "opening an existing database must be idempotent")
	defer reopened.Close()

	rec, err := reopened.FindByAlias(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "example.com/a", rec.OriginalURL)

	next, err := reopened.NextIdentifier(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestOpenSQLite_Unavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "nested", "pitico.db")

	_, err := OpenSQLite(path, logger.Discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, customerrors.ErrStorageUnavailable)
}

func TestGormURLRepository_ClosedStoreReportsStorageError(t *testing.T) {
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "pitico.db"), logger.Discard())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.FindByAlias(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, customerrors.ErrStorage)

	var storageErr *customerrors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "find_by_alias", storageErr.Op)
}
