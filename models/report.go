package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportRow is one flattened sale line used by the reports. It is never persisted.
type ReportRow struct {
	SaleID      int64           `json:"saleId"`
	Date        string          `json:"date"`
	ClientID    string          `json:"clientId"`
	ClientName  string          `json:"clientName"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`

	// SoldAt is nil when the sale's date was missing or malformed
	SoldAt *time.Time `json:"-"`
}

// ReportResponse is the JSON shape of a report run
// Example:
// {
//   "mode": "date",
//   "count": 1,
//   "amount": "46.40",
//   "rows": [...]
// }
type ReportResponse struct {
	Mode   string          `json:"mode"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	Rows   []ReportRow     `json:"rows"`
}
