package models

import "github.com/shopspring/decimal"

// Sale represents a persisted sale.
// Date is kept as the raw string the backend sent; historical records are
// not guaranteed to carry a parseable timestamp.
// Example:
// {
//   "id": 10,
//   "clientId": "1032456789",
//   "clientName": "Juan Pérez",
//   "date": "2024-01-10T15:04:05Z",
//   "subtotal": "20.00",
//   "tax": "3.20",
//   "total": "23.20",
//   "items": [
//     {"productId": 7, "productName": "Teclado", "quantity": 2, "unitPrice": "10.00"}
//   ]
// }
type Sale struct {
	ID         int64           `json:"id"`
	ClientID   string          `json:"clientId"`
	ClientName string          `json:"clientName,omitempty"`
	Date       string          `json:"date"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	Items      []SaleItem      `json:"items"`
}

// SaleItem represents a line of a persisted sale
type SaleItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest is the payload sent to the backend to persist a sale
// Example: {"client": "1032456789", "subtotal": "20", "tax": "3.2", "total": "23.2",
//           "items": [{"product": 7, "quantity": 2, "unitPrice": "10"}]}
type CreateSaleRequest struct {
	Client   string                  `json:"client"`
	Subtotal decimal.Decimal         `json:"subtotal"`
	Tax      decimal.Decimal         `json:"tax"`
	Total    decimal.Decimal         `json:"total"`
	Items    []CreateSaleRequestItem `json:"items"`
}

// CreateSaleRequestItem is one line of CreateSaleRequest
type CreateSaleRequestItem struct {
	Product   int64           `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// SubmitSaleResponse is returned after a cart has been submitted
type SubmitSaleResponse struct {
	SaleID int64           `json:"saleId"`
	Total  decimal.Decimal `json:"total"`
}

// SaleListResponse represents the response for listing sales
type SaleListResponse struct {
	Sales []Sale `json:"sales"`
}
