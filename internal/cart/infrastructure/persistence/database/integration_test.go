//go:build integration

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wyfcoding/storefront/internal/cart/domain"
	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
	catalogdb "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/database"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/db"
	"gorm.io/gorm"
)

// setupTestDB 启动 PostgreSQL 容器，依次迁移商品表与购物车表
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.Init(db.Config{
		Driver:             "postgres",
		DSN:                dsn,
		MaxOpenConns:       20,
		MaxIdleConns:       5,
		ConnMaxLifetime:    60,
		SlowQueryThreshold: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, catalogdb.AutoMigrate(database.DB))
	require.NoError(t, AutoMigrate(database.DB))
	return database.DB
}

func TestCartRepository_Postgres(t *testing.T) {
	gdb := setupTestDB(t)
	products := catalogdb.NewProductRepository(gdb)
	repo := NewCartRepository(gdb)
	ctx := context.Background()

	newProduct := func(name, price string) *catalog.Product {
		p := &catalog.Product{Name: name, Price: decimal.RequireFromString(price)}
		require.NoError(t, products.Save(ctx, p))
		return p
	}

	t.Run("add increments the same line", func(t *testing.T) {
		p := newProduct("Widget", "9.99")
		c, err := repo.Create(ctx)
		require.NoError(t, err)

		first, err := repo.AddItemQuantity(ctx, c.ID, p.ID, 2)
		require.NoError(t, err)
		second, err := repo.AddItemQuantity(ctx, c.ID, p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Quantity)

		loaded, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 1)
		require.NotNil(t, loaded.Items[0].Product)
		assert.Equal(t, "49.95", loaded.TotalPrice().StringFixed(2))
	})

	t.Run("concurrent adds end at the exact sum", func(t *testing.T) {
		p := newProduct("Hot item", "1.00")
		c, err := repo.Create(ctx)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.AddItemQuantity(ctx, c.ID, p.ID, 1)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		loaded, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, 100, loaded.Items[0].Quantity)
	})

	t.Run("unknown product or cart", func(t *testing.T) {
		c, err := repo.Create(ctx)
		require.NoError(t, err)
		_, err = repo.AddItemQuantity(ctx, c.ID, 999999, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		p := newProduct("Orphan", "1.00")
		_, err = repo.AddItemQuantity(ctx, 999999, p.ID, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("update and delete are scoped to the cart", func(t *testing.T) {
		p := newProduct("Scoped", "2.00")
		mine, err := repo.Create(ctx)
		require.NoError(t, err)
		theirs, err := repo.Create(ctx)
		require.NoError(t, err)
		item, err := repo.AddItemQuantity(ctx, theirs.ID, p.ID, 4)
		require.NoError(t, err)

		require.NoError(t, repo.SetItemQuantity(ctx, mine.ID, item.ID, 9))
		got, err := repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Quantity)

		assert.ErrorIs(t, repo.DeleteItem(ctx, mine.ID, item.ID), apperrors.ErrNotFound)

		require.NoError(t, repo.SetItemQuantity(ctx, theirs.ID, item.ID, 1))
		got, err = repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Quantity)
	})

	t.Run("quantity check constraint", func(t *testing.T) {
		p := newProduct("Checked", "2.00")
		c, err := repo.Create(ctx)
		require.NoError(t, err)
		item, err := repo.AddItemQuantity(ctx, c.ID, p.ID, 1)
		require.NoError(t, err)

		assert.ErrorIs(t, repo.SetItemQuantity(ctx, c.ID, item.ID, 0), apperrors.ErrInvalidInput)
		assert.ErrorIs(t, repo.SetItemQuantity(ctx, c.ID, item.ID, domain.MaxItemQuantity+1), apperrors.ErrInvalidInput)

		_, err = repo.AddItemQuantity(ctx, c.ID, p.ID, domain.MaxItemQuantity)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		got, err := repo.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Quantity)
	})

	t.Run("deleting a product cascades to cart items", func(t *testing.T) {
		keep := newProduct("Keep", "1.00")
		gone := newProduct("Gone", "3.00")
		c, err := repo.Create(ctx)
		require.NoError(t, err)
		_, err = repo.AddItemQuantity(ctx, c.ID, keep.ID, 1)
		require.NoError(t, err)
		_, err = repo.AddItemQuantity(ctx, c.ID, gone.ID, 2)
		require.NoError(t, err)

		require.NoError(t, products.Delete(ctx, gone.ID))

		loaded, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, keep.ID, loaded.Items[0].ProductID)
	})

	t.Run("deleting a cart cascades and clear keeps the cart", func(t *testing.T) {
		p := newProduct("Cleared", "1.00")
		c, err := repo.Create(ctx)
		require.NoError(t, err)
		item, err := repo.AddItemQuantity(ctx, c.ID, p.ID, 2)
		require.NoError(t, err)

		n, err := repo.ClearItems(ctx, c.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		loaded, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, loaded.IsEmpty())

		item, err = repo.AddItemQuantity(ctx, c.ID, p.ID, 1)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, c.ID))
		_, err = repo.GetItem(ctx, item.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestSessionStore_Postgres(t *testing.T) {
	gdb := setupTestDB(t)
	carts := NewCartRepository(gdb)
	ctx := context.Background()

	first, err := carts.Create(ctx)
	require.NoError(t, err)
	second, err := carts.Create(ctx)
	require.NoError(t, err)

	store := NewSessionStore(gdb, time.Hour)

	_, found, err := store.Lookup(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Bind(ctx, "token-a", first.ID))
	id, found, err := store.Lookup(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first.ID, id)

	require.NoError(t, store.Bind(ctx, "token-a", second.ID))
	id, _, err = store.Lookup(ctx, "token-a")
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)

	expired := NewSessionStore(gdb, -time.Minute)
	require.NoError(t, expired.Bind(ctx, "token-b", first.ID))
	_, found, err = store.Lookup(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
