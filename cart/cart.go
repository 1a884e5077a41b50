// Package cart implements the in-progress sale: one line per product,
// quantities clamped to the last-known stock, totals in exact decimal arithmetic.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"salesdesk/logger"
	"salesdesk/models"
)

// StockSource reports the current known stock of a product.
// catalog.StockCatalog satisfies it.
type StockSource interface {
	Stock(productID int64) (int, bool)
}

// Line is a single product selection. Quantity is always within [1, Stock].
type Line struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Stock       int             `json:"stock"`
}

// Subtotal returns unit price times quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals holds the derived money fields of a cart
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals derives tax and total from a subtotal.
// tax = subtotal × rate and total = subtotal + tax, both exact.
func ComputeTotals(subtotal, taxRate decimal.Decimal) Totals {
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Cart is safe for concurrent use; it is still meant to be owned by a single session.
type Cart struct {
	mu      sync.Mutex
	taxRate decimal.Decimal
	stocks  StockSource
	lines   map[int64]*Line
	order   []int64
}

// New creates an empty cart. stocks may be nil, in which case the stock
// captured when a product was added is the ceiling.
func New(taxRate decimal.Decimal, stocks StockSource) *Cart {
	return &Cart{
		taxRate: taxRate,
		stocks:  stocks,
		lines:   map[int64]*Line{},
	}
}

func clamp(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// Add puts a product in the cart. If the product is already there the requested
// quantity is added to the existing one. The resulting quantity is clamped to
// [1, product.Stock]. A product without stock is rejected and the cart is left unchanged.
func (c *Cart) Add(product models.Product, quantity int) (Line, error) {
	if !product.InStock() {
		return Line{}, &models.OutOfStockError{ProductID: product.ID, ProductName: product.Name}
	}
	if quantity <= 0 {
		return Line{}, models.NewValidationError(models.QuantityOutOfRange, "quantity must be at least 1, got %d", quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[product.ID]; ok {
		requested := line.Quantity + quantity
		line.Stock = product.Stock
		line.Quantity = clamp(requested, product.Stock)
		if line.Quantity != requested {
			logger.L().Debugw("🛒 Cart: quantity clamped", "product", product.ID, "requested", requested, "stock", product.Stock)
		}
		return *line, nil
	}

	line := &Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    clamp(quantity, product.Stock),
		Stock:       product.Stock,
	}
	c.lines[product.ID] = line
	c.order = append(c.order, product.ID)
	return *line, nil
}

// SetQuantity replaces a line's quantity, clamped to [1, currentStock].
// A quantity of zero or less removes the line, whether or not it exists.
func (c *Cart) SetQuantity(productID int64, quantity int) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(productID)
		return Line{}, nil
	}
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, models.ErrLineNotFound
	}

	if c.stocks != nil {
		if stock, known := c.stocks.Stock(productID); known {
			line.Stock = stock
		}
	}
	if line.Stock <= 0 {
		c.removeLocked(productID)
		return Line{}, &models.OutOfStockError{ProductID: productID, ProductName: line.ProductName}
	}

	line.Quantity = clamp(quantity, line.Stock)
	return *line, nil
}

// Remove deletes a line unconditionally
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID int64) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = map[int64]*Line{}
	c.order = nil
}

// RemoveSold takes sold quantities out of the cart. Lines changed after the
// snapshot keep whatever was added on top; lines added later are untouched.
func (c *Cart) RemoveSold(sold []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range sold {
		line, ok := c.lines[s.ProductID]
		if !ok {
			continue
		}
		line.Quantity -= s.Quantity
		if line.Quantity < 1 {
			c.removeLocked(s.ProductID)
		}
	}
}

// Revalidate re-clamps every line against fresh stock. Lines whose product
// disappeared or ran out are removed; their ids are returned.
func (c *Cart) Revalidate(stocks StockSource) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []int64
	for _, id := range append([]int64(nil), c.order...) {
		stock, ok := stocks.Stock(id)
		if !ok || stock <= 0 {
			c.removeLocked(id)
			removed = append(removed, id)
			continue
		}
		line := c.lines[id]
		line.Stock = stock
		if line.Quantity > stock {
			line.Quantity = stock
		}
	}
	return removed
}

// Lines returns a copy of the lines in insertion order
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.linesLocked()
}

func (c *Cart) linesLocked() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Snapshot returns the lines and the totals computed from those same lines
func (c *Cart) Snapshot() ([]Line, Totals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.linesLocked()
	return lines, totalsOf(lines, c.taxRate)
}

func totalsOf(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	return ComputeTotals(subtotal, taxRate)
}

// Len returns the number of lines
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Totals returns subtotal, tax and total for the current lines
func (c *Cart) Totals() Totals {
	_, totals := c.Snapshot()
	return totals
}

// TaxRate returns the rate the cart applies
func (c *Cart) TaxRate() decimal.Decimal {
	return c.taxRate
}
