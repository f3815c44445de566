package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StoreRepository defines the interface for product and order persistence
type StoreRepository interface {
	// CreateProduct inserts a product and returns the stored row
	CreateProduct(ctx context.Context, name string, price decimal.Decimal, stockQuantity int) (*Product, error)

	// ListProducts returns every product, in no particular order
	ListProducts(ctx context.Context) ([]Product, error)

	// BeginTx starts a new transaction
	BeginTx(ctx context.Context) (Tx, error)

	// GetProductForUpdate reads a product, locking its row until the transaction ends
	GetProductForUpdate(ctx context.Context, tx Tx, productID int64) (*Product, error)

	// DecreaseStock subtracts quantity from the product's stock
	DecreaseStock(ctx context.Context, tx Tx, productID int64, quantity int) error

	// InsertOrder records the order and returns the stored row
	InsertOrder(ctx context.Context, tx Tx, productID int64, quantity int) (*Order, error)
}

// Tx interface for transactions
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresStoreRepository implements StoreRepository using PostgreSQL
type PostgresStoreRepository struct {
	db *pgxpool.Pool
}

// NewStoreRepository creates a new PostgresStoreRepository instance
func NewStoreRepository(db *pgxpool.Pool) StoreRepository {
	return &PostgresStoreRepository{
		db: db,
	}
}

// PostgresTx implements the Tx interface
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// BeginTx starts a new transaction
func (r *PostgresStoreRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// CreateProduct inserts a product and returns the stored row
func (r *PostgresStoreRepository) CreateProduct(ctx context.Context, name string, price decimal.Decimal, stockQuantity int) (*Product, error) {
	var product Product
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, price, stock_quantity)
		VALUES ($1, $2, $3)
		RETURNING id, name, price, stock_quantity
	`, name, price, stockQuantity).Scan(&product.ID, &product.Name, &product.Price, &product.StockQuantity)

	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return &product, nil
}

// ListProducts returns every product, in no particular order
func (r *PostgresStoreRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, stock_quantity
		FROM products
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.StockQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

// GetProductForUpdate reads the product with a pessimistic lock (FOR UPDATE)
func (r *PostgresStoreRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID int64) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	query := `
		SELECT id, name, price, stock_quantity
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	var product Product
	err := pgTx.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.StockQuantity,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}

	return &product, nil
}

// DecreaseStock subtracts quantity from the product's stock
func (r *PostgresStoreRepository) DecreaseStock(ctx context.Context, tx Tx, productID int64, quantity int) error {
	pgTx := tx.(*PostgresTx).tx

	updateQuery := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1
		WHERE id = $2
	`

	_, err := pgTx.Exec(ctx, updateQuery, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrease stock: %w", err)
	}

	return nil
}

// InsertOrder records the order and returns the stored row
func (r *PostgresStoreRepository) InsertOrder(ctx context.Context, tx Tx, productID int64, quantity int) (*Order, error) {
	pgTx := tx.(*PostgresTx).tx

	insertQuery := `
		INSERT INTO orders (product_id, quantity)
		VALUES ($1, $2)
		RETURNING id, product_id, quantity
	`

	var order Order
	err := pgTx.QueryRow(ctx, insertQuery, productID, quantity).Scan(&order.ID, &order.ProductID, &order.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return &order, nil
}
