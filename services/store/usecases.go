package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// StoreUseCase contains the business logic for products and orders
type StoreUseCase struct {
	repository StoreRepository
}

// NewStoreUseCase creates a new StoreUseCase instance
func NewStoreUseCase(repository StoreRepository) *StoreUseCase {
	return &StoreUseCase{
		repository: repository,
	}
}

// CreateProduct registers a new product in the catalog
func (uc *StoreUseCase) CreateProduct(ctx context.Context, name string, price decimal.Decimal, stockQuantity int) (*Product, error) {
	product, err := uc.repository.CreateProduct(ctx, name, price, stockQuantity)
	if err != nil {
		log.Printf("❌ Failed to create product: %v", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	log.Printf("✅ Product created: ID=%d | Name=%s", product.ID, product.Name)
	return product, nil
}

// ListProducts returns every product in the catalog
func (uc *StoreUseCase) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := uc.repository.ListProducts(ctx)
	if err != nil {
		log.Printf("❌ Failed to list products: %v", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// PlaceOrder sells quantity units of a product, decrementing its stock
// atomically using a pessimistic lock
func (uc *StoreUseCase) PlaceOrder(ctx context.Context, productID int64, quantity int) (*Order, error) {
	log.Printf("➡️ [PLACE ORDER] ProductID: %d | Quantity: %d", productID, quantity)

	// 1. Start the transaction
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Read the product with a PESSIMISTIC LOCK (SELECT FOR UPDATE)
	// The row stays locked until Commit or Rollback
	product, err := uc.repository.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Printf("❌ PLACE ORDER FAILED: Product not found | ProductID=%d", productID)
			return nil, err
		}
		log.Printf("❌ PLACE ORDER FAILED: GetProductForUpdate | ProductID=%d | Error=%v", productID, err)
		return nil, err
	}

	// 3. Business rule: the requested quantity must be in stock
	if product.StockQuantity < quantity {
		log.Printf("❌ PLACE ORDER FAILED: Insufficient stock | ProductID=%d | Stock=%d | Requested=%d",
			productID, product.StockQuantity, quantity)
		return nil, ErrInsufficientStock
	}

	// 4. Deduct the stock while the row lock is held
	if err := uc.repository.DecreaseStock(ctx, tx, productID, quantity); err != nil {
		log.Printf("❌ [PLACE ORDER] ProductID=%d | Failed to update stock: %v", productID, err)
		return nil, err
	}

	// 5. Record the order inside the same transaction
	order, err := uc.repository.InsertOrder(ctx, tx, productID, quantity)
	if err != nil {
		log.Printf("❌ [PLACE ORDER] ProductID=%d | Failed to insert order: %v", productID, err)
		return nil, err
	}

	// 6. Commit the transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	log.Printf("✅ [PLACE ORDER] Success: OrderID=%d | ProductID=%d | Quantity=%d",
		order.ID, productID, quantity)
	return order, nil
}
