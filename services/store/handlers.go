package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StoreUseCaseInterface defines the interface for the use case
type StoreUseCaseInterface interface {
	CreateProduct(ctx context.Context, name string, price decimal.Decimal, stockQuantity int) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	PlaceOrder(ctx context.Context, productID int64, quantity int) (*Order, error)
}

// StoreHandler contains the HTTP handlers
type StoreHandler struct {
	useCase      StoreUseCaseInterface
	tracer       trace.Tracer
	queryTimeout time.Duration
	ordersPlaced metric.Int64Counter
	ordersFailed metric.Int64Counter
}

// NewStoreHandler creates a new StoreHandler instance
func NewStoreHandler(useCase StoreUseCaseInterface, tracer trace.Tracer, queryTimeout time.Duration) *StoreHandler {
	meter := otel.Meter("store-service")
	ordersPlaced, _ := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders committed successfully"))
	ordersFailed, _ := meter.Int64Counter("orders_failed_total",
		metric.WithDescription("Order placements that failed"))

	return &StoreHandler{
		useCase:      useCase,
		tracer:       tracer,
		queryTimeout: queryTimeout,
		ordersPlaced: ordersPlaced,
		ordersFailed: ordersFailed,
	}
}

// CreateProduct registers a new product
func (h *StoreHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product")
	defer span.End()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("product_name", req.Name),
		attribute.String("price", req.Price.String()),
		attribute.Int("stock_quantity", *req.StockQuantity),
	)

	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	product, err := h.useCase.CreateProduct(ctx, req.Name, *req.Price, *req.StockQuantity)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts returns every product
func (h *StoreHandler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_products")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	products, err := h.useCase.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// PlaceOrder sells a quantity of one product, decrementing its stock atomically
func (h *StoreHandler) PlaceOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "place_order")
	defer span.End()

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int64("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	order, err := h.useCase.PlaceOrder(ctx, req.ProductID, req.Quantity)
	if err != nil {
		span.RecordError(err)
		h.ordersFailed.Add(ctx, 1)
		// Placement failures, business rule or storage, answer 400 with the error message
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Int64("order_id", order.ID))
	h.ordersPlaced.Add(ctx, 1)

	c.JSON(http.StatusCreated, order)
}

// HealthCheck verifies the service health
func (h *StoreHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "store-service",
	})
}
