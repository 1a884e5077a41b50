// Package report flattens sales history into report rows for one of three
// fixed views (by date, by client, by product) and derives their money fields.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesdesk/models"
)

// Mode is a report dimension
type Mode string

const (
	ByDate    Mode = "date"
	ByClient  Mode = "client"
	ByProduct Mode = "product"
)

const (
	UnspecifiedClient = "Unspecified client"
	UnknownProduct    = "Unknown product"
)

// ParseMode accepts "date", "client", "product" and their "byX" forms
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date", "bydate":
		return ByDate, nil
	case "client", "byclient":
		return ByClient, nil
	case "product", "byproduct":
		return ByProduct, nil
	}
	return "", fmt.Errorf("unknown report mode %q", s)
}

// DateRange is an inclusive, day-granular range. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Bounded reports whether at least one bound is set
func (r DateRange) Bounded() bool {
	return r.From != nil || r.To != nil
}

// Filters holds the filter of every mode; only the active mode's one applies
type Filters struct {
	Dates        DateRange
	ClientQuery  string
	ProductQuery string
}

// Result is the output of one aggregation
type Result struct {
	Mode   Mode               `json:"mode"`
	Count  int                `json:"count"`
	Amount decimal.Decimal    `json:"amount"`
	Rows   []models.ReportRow `json:"rows"`
}

// Response converts the result to its JSON DTO
func (r Result) Response() models.ReportResponse {
	rows := r.Rows
	if rows == nil {
		rows = []models.ReportRow{}
	}
	return models.ReportResponse{Mode: string(r.Mode), Count: r.Count, Amount: r.Amount, Rows: rows}
}

// Input is everything Aggregate needs. Products and Clients only feed name resolution.
type Input struct {
	Sales    []models.Sale
	Products []models.Product
	Clients  []models.Client
	TaxRate  decimal.Decimal
}

// Aggregate flattens, filters and derives the rows of one report view.
// It is a pure function: the same input always yields the same result.
// Sales whose date cannot be parsed are reported in the returned errors and
// kept out of bounded date ranges only.
func Aggregate(in Input, mode Mode, filters Filters) (Result, []error) {
	productNames := make(map[int64]string, len(in.Products))
	for _, p := range in.Products {
		productNames[p.ID] = p.Name
	}
	clientNames := make(map[string]string, len(in.Clients))
	for _, c := range in.Clients {
		clientNames[c.ID] = c.Name
	}

	var malformed []error
	rows := []models.ReportRow{}
	for _, sale := range in.Sales {
		var soldAt *time.Time
		if t, err := ParseDate(sale.Date); err == nil {
			soldAt = &t
		} else if sale.Date != "" {
			malformed = append(malformed, &models.MalformedDataError{
				SaleID: sale.ID,
				Field:  "date",
				Value:  sale.Date,
				Err:    err,
			})
		}

		clientName := resolveClient(sale, clientNames)
		for _, item := range sale.Items {
			row := models.ReportRow{
				SaleID:      sale.ID,
				Date:        sale.Date,
				ClientID:    sale.ClientID,
				ClientName:  clientName,
				ProductID:   item.ProductID,
				ProductName: resolveProduct(item, productNames),
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				SoldAt:      soldAt,
			}
			if !keep(row, mode, filters) {
				continue
			}
			derive(&row, in.TaxRate)
			rows = append(rows, row)
		}
	}

	result := Result{Mode: mode, Rows: rows, Amount: decimal.Zero}
	distinct := map[int64]bool{}
	for _, row := range rows {
		result.Amount = result.Amount.Add(row.Total)
		distinct[row.SaleID] = true
	}
	if mode == ByProduct {
		result.Count = len(rows)
	} else {
		result.Count = len(distinct)
	}
	return result, malformed
}

func resolveClient(sale models.Sale, names map[string]string) string {
	if name := strings.TrimSpace(sale.ClientName); name != "" {
		return name
	}
	if name, ok := names[sale.ClientID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return UnspecifiedClient
}

func resolveProduct(item models.SaleItem, names map[int64]string) string {
	if name := strings.TrimSpace(item.ProductName); name != "" {
		return name
	}
	if name, ok := names[item.ProductID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return UnknownProduct
}

func keep(row models.ReportRow, mode Mode, f Filters) bool {
	switch mode {
	case ByDate:
		if !f.Dates.Bounded() {
			return true
		}
		if row.SoldAt == nil {
			return false
		}
		d := day(*row.SoldAt)
		if f.Dates.From != nil && d.Before(day(*f.Dates.From)) {
			return false
		}
		if f.Dates.To != nil && d.After(day(*f.Dates.To)) {
			return false
		}
		return true
	case ByClient:
		q := strings.ToLower(strings.TrimSpace(f.ClientQuery))
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(row.ClientName), q) ||
			strings.Contains(strings.ToLower(row.ClientID), q)
	case ByProduct:
		q := strings.ToLower(strings.TrimSpace(f.ProductQuery))
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(row.ProductName), q)
	}
	return true
}

func derive(row *models.ReportRow, taxRate decimal.Decimal) {
	row.Subtotal = row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
	row.Tax = row.Subtotal.Mul(taxRate)
	row.Total = row.Subtotal.Add(row.Tax)
}
