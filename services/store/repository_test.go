package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreRepository(t *testing.T) {
	// Arrange
	var db *pgxpool.Pool

	// Act
	repo := NewStoreRepository(db)

	// Assert
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgresStoreRepository{}, repo)
}

// newTestPool connects to the database named by TEST_DATABASE_URL and makes
// sure the schema exists. Tests that need it are skipped when the variable
// is not set.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	config, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL,
			stock_quantity INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	return pool
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

func productStock(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()
	var stock int
	err := pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestIntegration_CreateAndListProducts(t *testing.T) {
	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	ctx := context.Background()

	// Act
	name := uniqueName("widget")
	created, err := repo.CreateProduct(ctx, name, decimal.RequireFromString("1.50"), 100)
	require.NoError(t, err)

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)

	// Assert: the listing contains exactly one entry equal to the created row
	var matches []Product
	for _, p := range products {
		if p.Name == name {
			matches = append(matches, p)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, created.ID, matches[0].ID)
	assert.Equal(t, 100, matches[0].StockQuantity)
	assert.True(t, matches[0].Price.Equal(decimal.RequireFromString("1.50")))
}

func TestIntegration_PlaceOrder_HappyPath(t *testing.T) {
	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	uc := NewStoreUseCase(repo)
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, uniqueName("widget"), decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)

	// Act
	order, err := uc.PlaceOrder(ctx, product.ID, 3)

	// Assert
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, product.ID, order.ProductID)
	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, 7, productStock(t, pool, product.ID))
}

func TestIntegration_PlaceOrder_ProductNotFound(t *testing.T) {
	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	uc := NewStoreUseCase(repo)
	ctx := context.Background()

	// Act
	order, err := uc.PlaceOrder(ctx, 2147483647, 1)

	// Assert
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestIntegration_PlaceOrder_InsufficientStock(t *testing.T) {
	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	uc := NewStoreUseCase(repo)
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, uniqueName("scarce"), decimal.RequireFromString("4.20"), 5)
	require.NoError(t, err)

	// Act
	order, err := uc.PlaceOrder(ctx, product.ID, 10)

	// Assert: no partial effect
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, productStock(t, pool, product.ID))
}

func TestIntegration_PlaceOrder_ConcurrentRace(t *testing.T) {
	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	uc := NewStoreUseCase(repo)
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, uniqueName("contested"), decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)

	// Act: two simultaneous orders of 6 against a stock of 10
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PlaceOrder(ctx, product.ID, 6)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// Assert: the row lock serializes the decrements
	successes, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 4, productStock(t, pool, product.ID))
}
