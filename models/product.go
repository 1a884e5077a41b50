package models

import "github.com/shopspring/decimal"

// Product represents a product as listed by the catalog backend
// Example:
// {
//   "id": 7,
//   "name": "Teclado mecánico",
//   "price": "120.50",
//   "stock": 4,
//   "categoryName": "Electrónica"
// }
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	CategoryName string          `json:"categoryName,omitempty"`
}

// InStock reports whether at least one unit can be sold
func (p Product) InStock() bool {
	return p.Stock > 0
}
