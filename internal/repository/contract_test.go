package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/pitico/internal/encoder"
	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/models"
)

// runContract exercises the behaviour every URLRepository must share.
func runContract(t *testing.T, newRepo func(t *testing.T) URLRepository) {
	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		next, err := repo.NextIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), next)

		rec, err := repo.FindByAlias(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = repo.FindByOriginalURL(ctx, "example.com")
		require.NoError(t, err)
		assert.Nil(t, rec)

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("insert and find", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		inserted, err := repo.Insert(ctx, &models.URL{ID: 1, Alias: "1", OriginalURL: "example.com/a"})
		require.NoError(t, err)
		assert.True(t, inserted)

		byAlias, err := repo.FindByAlias(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, byAlias)
		assert.Equal(t, uint64(1), byAlias.ID)
		assert.Equal(t, "example.com/a", byAlias.OriginalURL)
		assert.False(t, byAlias.CreatedAt.IsZero())

		byURL, err := repo.FindByOriginalURL(ctx, "example.com/a")
		require.NoError(t, err)
		require.NotNil(t, byURL)
		assert.Equal(t, "1", byURL.Alias)

		next, err := repo.NextIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next)
	})

	t.Run("insert collisions are ignored", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Insert(ctx, &models.URL{ID: 1, Alias: "1", OriginalURL: "example.com/a"})
		require.NoError(t, err)

		collisions := []models.URL{
			{ID: 1, Alias: "1", OriginalURL: "example.com/x"},
			{ID: 8, Alias: "8", OriginalURL: "example.com/a"},
		}
		for _, c := range collisions {
			inserted, err := repo.Insert(ctx, &c)
			require.NoError(t, err)
			assert.False(t, inserted, "%+v must not be written", c)
		}

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "example.com/a", all[0].OriginalURL)
	})

	t.Run("insert rejects records whose alias does not encode the id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		invalid := []models.URL{
			{ID: 1, Alias: "x", OriginalURL: "example.com/x"},
			{ID: 61, Alias: "Z", OriginalURL: "example.com/y"},
			{ID: 0, Alias: "0", OriginalURL: "example.com/z"},
		}
		for _, rec := range invalid {
			inserted, err := repo.Insert(ctx, &rec)
			assert.ErrorIs(t, err, customerrors.ErrInvalidAlias, "%+v", rec)
			assert.NotErrorIs(t, err, customerrors.ErrStorage)
			assert.False(t, inserted)
		}

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("insert keeps the sequence at the highest id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Insert(ctx, &models.URL{ID: 62, Alias: "10", OriginalURL: "example.com/a"})
		require.NoError(t, err)

		next, err := repo.NextIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(63), next)

		rec, created, err := repo.Register(ctx, "example.com/b", encoder.Encode)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "11", rec.Alias)
	})

	t.Run("register is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, created, err := repo.Register(ctx, "example.com/a", encoder.Encode)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "1", first.Alias)

		second, created, err := repo.Register(ctx, "example.com/b", encoder.Encode)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "2", second.Alias)

		again, created, err := repo.Register(ctx, "example.com/a", encoder.Encode)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "1", again.Alias)

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("list orders by id and honours limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := 0; i < 70; i++ {
			_, _, err := repo.Register(ctx, fmt.Sprintf("example.com/%d", i), encoder.Encode)
			require.NoError(t, err)
		}

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 70)
		for i, rec := range all {
			assert.Equal(t, uint64(i+1), rec.ID)
			assert.Equal(t, encoder.Encode(rec.ID), rec.Alias)
		}

		some, err := repo.List(ctx, 5)
		require.NoError(t, err)
		assert.Len(t, some, 5)
	})

	t.Run("concurrent registrations of distinct urls", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const n = 25
		urls := make([]string, n)
		seen := make(map[string]bool, n)
		for i := range urls {
			u := gofakeit.URL()
			for seen[u] {
				u = gofakeit.URL()
			}
			seen[u] = true
			urls[i] = u
		}

		aliases := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range urls {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, _, err := repo.Register(ctx, urls[i], encoder.Encode)
				errs[i] = err
				if rec != nil {
					aliases[i] = rec.Alias
				}
			}(i)
		}
		wg.Wait()

		unique := make(map[string]bool, n)
		for i := range urls {
			require.NoError(t, errs[i])
			assert.NotEmpty(t, aliases[i])
			unique[aliases[i]] = true

			rec, err := repo.FindByAlias(ctx, aliases[i])
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, urls[i], rec.OriginalURL)
		}
		assert.Len(t, unique, n, "every url gets its own alias")

		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, n)
		for i, rec := range all {
			assert.Equal(t, uint64(i+1), rec.ID, "identifiers stay dense")
		}
		next, err := repo.NextIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(n+1), next)
	})

	t.Run("concurrent registrations of the same url", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const n = 20
		aliases := make([]string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, _, err := repo.Register(ctx, "example.com/same", encoder.Encode)
				if assert.NoError(t, err) {
					aliases[i] = rec.Alias
				}
			}(i)
		}
		wg.Wait()

		for _, a := range aliases {
			assert.Equal(t, aliases[0], a)
		}
		all, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, uint64(1), all[0].ID)

		// Losing registrations must not consume identifiers.
		next, err := repo.NextIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next)

		rec, created, err := repo.Register(ctx, "example.com/other", encoder.Encode)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "2", rec.Alias)
	})
}
