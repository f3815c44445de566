// Loadtest hammers a running store service with concurrent order placements
// and verifies that the final stock equals the initial stock minus the
// committed order quantities, i.e. the service never oversells.
package main

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type productResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	serviceURL := getEnv("SERVICE_URL", "http://localhost:3000")
	concurrency := atoiEnv("CONCURRENCY", 50)
	initialStock := atoiEnv("INITIAL_STOCK", 30)

	client := resty.New().
		SetBaseURL(serviceURL).
		SetTimeout(30 * time.Second)

	// Seed a fresh product so runs don't interfere with each other
	name := "loadtest-" + uuid.New().String()
	var product productResponse
	resp, err := client.R().
		SetBody(map[string]interface{}{
			"name":           name,
			"price":          9.99,
			"stock_quantity": initialStock,
		}).
		SetResult(&product).
		Post("/products")
	if err != nil {
		log.Fatalf("❌ Failed to create product: %v", err)
	}
	if resp.StatusCode() != 201 {
		log.Fatalf("❌ Failed to create product: status %d, body %s", resp.StatusCode(), resp.String())
	}

	log.Printf("🚀 Firing %d concurrent orders against ProductID=%d (stock %d)",
		concurrency, product.ID, initialStock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
		failures  int
	)

	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var apiErr errorResponse
			resp, err := client.R().
				SetBody(map[string]interface{}{
					"product_id": product.ID,
					"quantity":   1,
				}).
				SetError(&apiErr).
				Post("/orders")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures++
			case resp.StatusCode() == 201:
				committed++
			case apiErr.Error == "Not enough stock":
				rejected++
			default:
				failures++
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Read the final stock back through the public API
	var products []productResponse
	if _, err := client.R().SetResult(&products).Get("/products"); err != nil {
		log.Fatalf("❌ Failed to list products: %v", err)
	}

	finalStock := -1
	for _, p := range products {
		if p.ID == product.ID {
			finalStock = p.StockQuantity
		}
	}

	log.Printf("✅ %d committed | ❌ %d out-of-stock | ⚠️ %d errors in %s",
		committed, rejected, failures, elapsed)
	log.Printf("📦 Final stock: %d (expected %d)", finalStock, initialStock-committed)

	if finalStock != initialStock-committed {
		log.Fatalf("❌ OVERSELL DETECTED: final stock %d != %d - %d",
			finalStock, initialStock, committed)
	}
	if finalStock < 0 {
		log.Fatalf("❌ NEGATIVE STOCK: %d", finalStock)
	}
	log.Printf("✅ Stock accounting is exact")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func atoiEnv(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
