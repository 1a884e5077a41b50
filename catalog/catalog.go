// Package catalog keeps a refreshable, read-only snapshot of the product list.
// Stock authority stays with the backend; the snapshot is re-fetched after
// every sale instead of being decremented locally.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
)

// Filter narrows the product list the way the sales screen does
type Filter struct {
	Search   string // case-insensitive substring of the product name
	Category string // exact category name; empty or "Todas" means any
	LowStock bool   // only products below the low-stock threshold
}

// StockCatalog is a concurrency-safe snapshot of the product catalog
type StockCatalog struct {
	source            repository.ProductRepositoryInterface
	lowStockThreshold int

	mu         sync.RWMutex
	products   []models.Product
	byID       map[int64]int
	categories []string
	loadedAt   time.Time
	onRefresh  []func(*StockCatalog)
}

// New creates an empty StockCatalog. Call Refresh before use.
func New(source repository.ProductRepositoryInterface, lowStockThreshold int) *StockCatalog {
	return &StockCatalog{
		source:            source,
		lowStockThreshold: lowStockThreshold,
		byID:              map[int64]int{},
	}
}

// Refresh re-fetches products and categories from the backend and swaps the snapshot
func (c *StockCatalog) Refresh(ctx context.Context) error {
	products, err := c.source.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		// products are still usable without the category list
		logger.L().Warnw("⚠️ Catalog: failed to refresh categories", "error", err)
		categories = deriveCategories(products)
	}

	byID := make(map[int64]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.categories = categories
	c.loadedAt = time.Now()
	hooks := append([](func(*StockCatalog))(nil), c.onRefresh...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(c)
	}

	logger.L().Infow("✅ Catalog: refreshed", "products", len(products), "categories", len(categories))
	return nil
}

func deriveCategories(products []models.Product) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		if p.CategoryName != "" && !seen[p.CategoryName] {
			seen[p.CategoryName] = true
			out = append(out, p.CategoryName)
		}
	}
	sort.Strings(out)
	return out
}

// OnRefresh registers fn to run after every successful Refresh,
// once the new snapshot is visible.
func (c *StockCatalog) OnRefresh(fn func(*StockCatalog)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = append(c.onRefresh, fn)
}

// Product returns the last-known state of a product
func (c *StockCatalog) Product(id int64) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// Stock returns the last-known stock of a product
func (c *StockCatalog) Stock(id int64) (int, bool) {
	p, ok := c.Product(id)
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// Products returns the products matching f, in catalog order
func (c *StockCatalog) Products(f Filter) []models.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, "todas") {
		category = ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []models.Product{}
	for _, p := range c.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if category != "" && p.CategoryName != category {
			continue
		}
		if f.LowStock && p.Stock >= c.lowStockThreshold {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the category names from the last refresh
func (c *StockCatalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.categories...)
}

// LoadedAt returns when the snapshot was last refreshed; zero if never
func (c *StockCatalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// RefreshEvery refreshes the catalog on a ticker until ctx is done
func (c *StockCatalog) RefreshEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				logger.L().Warnw("⚠️ Catalog: periodic refresh failed", "error", err)
			}
		}
	}
}
