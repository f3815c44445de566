package main

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item and its available stock
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
}

// Order represents a quantity of one product sold
type Order struct {
	ID        int64 `json:"id" db:"id"`
	ProductID int64 `json:"product_id" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}

// CreateProductRequest represents the payload to create a product.
// Price and StockQuantity are pointers so zero values pass the presence check.
type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity *int             `json:"stock_quantity" binding:"required"`
}

// PlaceOrderRequest represents the payload to place an order
type PlaceOrderRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// Business rule failures surfaced by PlaceOrder. The messages are part of
// the HTTP contract and travel verbatim in the error payload.
var (
	ErrProductNotFound   = errors.New("Product not found")
	ErrInsufficientStock = errors.New("Not enough stock")
)
