package export

import (
	"fmt"
	"time"

	"salesdesk/report"
)

// Format is an export output format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ContentType returns the HTTP content type of f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// FileName returns the download name of an export, e.g. report_date_2024-01-10.csv
func FileName(mode report.Mode, format Format, now time.Time) string {
	return fmt.Sprintf("report_%s_%s.%s", mode, now.Format("2006-01-02"), format)
}
