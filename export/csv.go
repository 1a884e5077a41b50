// Package export renders report rows to CSV, to a paginated HTML document
// and, through headless Chrome, to PDF.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesdesk/models"
	"salesdesk/report"
)

// column is one CSV/document column. Quoted columns hold free text;
// Money columns are formatted as currency in documents.
type column struct {
	Header string
	Quoted bool
	Value  func(r models.ReportRow) string
	Money  func(r models.ReportRow) decimal.Decimal
}

func moneyColumn(header string, f func(r models.ReportRow) decimal.Decimal) column {
	return column{
		Header: header,
		Value:  func(r models.ReportRow) string { return f(r).String() },
		Money:  f,
	}
}

// columnsFor returns the column set of a mode. Callers compute it once per
// export and reuse it for the header and every row.
func columnsFor(mode report.Mode) []column {
	cols := []column{
		{Header: "Sale", Value: func(r models.ReportRow) string { return strconv.FormatInt(r.SaleID, 10) }},
		{Header: "Date", Quoted: true, Value: func(r models.ReportRow) string { return r.Date }},
		{Header: "Client", Quoted: true, Value: func(r models.ReportRow) string { return r.ClientName }},
	}
	if mode == report.ByProduct {
		cols = append(cols,
			column{Header: "Product", Quoted: true, Value: func(r models.ReportRow) string { return r.ProductName }},
			column{Header: "Quantity", Value: func(r models.ReportRow) string { return strconv.Itoa(r.Quantity) }},
			moneyColumn("Unit price", func(r models.ReportRow) decimal.Decimal { return r.UnitPrice }),
		)
	}
	return append(cols,
		moneyColumn("Subtotal", func(r models.ReportRow) decimal.Decimal { return r.Subtotal }),
		moneyColumn("Tax", func(r models.ReportRow) decimal.Decimal { return r.Tax }),
		moneyColumn("Total", func(r models.ReportRow) decimal.Decimal { return r.Total }),
	)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes rows as CSV. Text fields are always quoted; amounts are
// written at full precision so the file sums back to the report metrics.
func WriteCSV(w io.Writer, rows []models.ReportRow, mode report.Mode) error {
	cols := columnsFor(mode)
	bw := bufio.NewWriter(w)

	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = quote(c.Header)
	}
	if _, err := bw.WriteString(strings.Join(fields, ",") + "\r\n"); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		for i, c := range cols {
			v := c.Value(row)
			if c.Quoted {
				v = quote(v)
			}
			fields[i] = v
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\r\n"); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	return bw.Flush()
}

// CSV returns the CSV export of rows as bytes
func CSV(rows []models.ReportRow, mode report.Mode) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
