package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"salesdesk/models"
	"salesdesk/report"
	"salesdesk/utils"
)

// DefaultPageSize is the number of table rows per document page
const DefaultPageSize = 25

//go:embed templates/report.html
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// Metadata describes a document. GeneratedAt is the only field expected to
// change between two renders of the same report.
type Metadata struct {
	Title       string
	GeneratedAt time.Time
	Filters     string
	PageSize    int
}

type documentPage struct {
	Number int
	Rows   [][]documentCell
}

type documentCell struct {
	Text    string
	Numeric bool
}

// paginate splits rows into pages of size rows each
func paginate(rows [][]documentCell, size int) []documentPage {
	var pages []documentPage
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, documentPage{Number: len(pages) + 1, Rows: rows[i:end]})
	}
	if len(pages) == 0 {
		pages = append(pages, documentPage{Number: 1})
	}
	return pages
}

// Document renders rows as a printable HTML document: a summary block with
// the count and amount metrics followed by the rows split into pages.
func Document(rows []models.ReportRow, mode report.Mode, meta Metadata) ([]byte, error) {
	pageSize := meta.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	title := meta.Title
	if title == "" {
		title = defaultTitle(mode)
	}

	cols := columnsFor(mode)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}

	cells := make([][]documentCell, 0, len(rows))
	distinct := map[int64]bool{}
	amount := decimal.Zero
	for _, row := range rows {
		line := make([]documentCell, len(cols))
		for i, c := range cols {
			if c.Money != nil {
				line[i] = documentCell{Text: utils.FormatMoney(c.Money(row)), Numeric: true}
			} else {
				line[i] = documentCell{Text: c.Value(row), Numeric: !c.Quoted}
			}
		}
		cells = append(cells, line)
		distinct[row.SaleID] = true
		amount = amount.Add(row.Total)
	}

	count := len(distinct)
	if mode == report.ByProduct {
		count = len(rows)
	}
	pages := paginate(cells, pageSize)

	templateData := struct {
		Title       string
		Mode        string
		Filters     string
		GeneratedAt string
		Count       int
		Amount      string
		Headers     []string
		Pages       []documentPage
		TotalPages  int
	}{
		Title:       title,
		Mode:        string(mode),
		Filters:     meta.Filters,
		GeneratedAt: meta.GeneratedAt.Format("2006-01-02 15:04:05"),
		Count:       count,
		Amount:      utils.FormatMoney(amount),
		Headers:     headers,
		Pages:       pages,
		TotalPages:  len(pages),
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, templateData); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func defaultTitle(mode report.Mode) string {
	switch mode {
	case report.ByClient:
		return "Sales by client"
	case report.ByProduct:
		return "Sales by product"
	}
	return "Sales by date"
}
