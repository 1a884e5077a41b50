package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"salesdesk/export"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/report"
	"salesdesk/session"
)

// PDFPrinter prints an HTML document to PDF
type PDFPrinter interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// ReportController handles HTTP requests for the sales reports and their exports
type ReportController struct {
	sessions *session.Store
	pdf      PDFPrinter
	pageSize int
	now      func() time.Time
}

// NewReportController creates a new ReportController
func NewReportController(sessions *session.Store, pdf PDFPrinter, pageSize int) *ReportController {
	return &ReportController{
		sessions: sessions,
		pdf:      pdf,
		pageSize: pageSize,
		now:      time.Now,
	}
}

func parseDay(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s date format. Use YYYY-MM-DD", name)
	}
	return &t, nil
}

// describeFilters renders the filters of this request for the document header
func describeFilters(mode report.Mode, from, to *time.Time, query string) string {
	if mode != report.ByDate {
		return strings.TrimSpace(query)
	}
	var parts []string
	if from != nil {
		parts = append(parts, "from "+from.Format("2006-01-02"))
	}
	if to != nil {
		parts = append(parts, "to "+to.Format("2006-01-02"))
	}
	return strings.Join(parts, " ")
}

// GetReport handles GET /admin/reports?mode=date|client|product&from=&to=&q=&format=json|csv|html|pdf
// Example response (format=json):
// {
//   "mode": "date",
//   "count": 1,
//   "amount": "29.58",
//   "rows": [{"saleId": 1, "date": "2024-01-10", "clientName": "Juan Pérez", ...}]
// }
func (c *ReportController) GetReport(w http.ResponseWriter, r *http.Request) {
	logger.L().Infow("📥 GetReport: Received request", "method", r.Method, "query", r.URL.RawQuery)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GetReport", r)
		return
	}

	q := r.URL.Query()
	mode, err := report.ParseMode(q.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := export.Format(strings.ToLower(q.Get("format")))
	switch format {
	case "":
		format = export.FormatJSON
	case export.FormatJSON, export.FormatCSV, export.FormatHTML, export.FormatPDF:
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}

	from, err := parseDay(q.Get("from"), "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDay(q.Get("to"), "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := currentSession(c.sessions, w, r)
	agg := s.Aggregator
	agg.SetMode(mode)
	switch mode {
	case report.ByDate:
		agg.SetDateRange(report.DateRange{From: from, To: to})
	case report.ByClient:
		agg.SetClientQuery(q.Get("q"))
	case report.ByProduct:
		agg.SetProductQuery(q.Get("q"))
	}

	result, err := agg.Run(requestContext(r))
	if err != nil {
		if errors.Is(err, models.ErrStaleResult) {
			logger.L().Infow("📊 GetReport: superseded by a newer request", "session", s.ID)
		}
		writeError(w, "GetReport", err)
		return
	}

	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, result.Response(), "GetReport")
		return
	}

	now := c.now()
	var body []byte
	switch format {
	case export.FormatCSV:
		body, err = export.CSV(result.Rows, mode)
	case export.FormatHTML, export.FormatPDF:
		body, err = export.Document(result.Rows, mode, export.Metadata{
			GeneratedAt: now,
			Filters:     describeFilters(mode, from, to, q.Get("q")),
			PageSize:    c.pageSize,
		})
		if err == nil && format == export.FormatPDF {
			body, err = c.pdf.Render(r.Context(), body)
		}
	}
	if err != nil {
		logger.L().Errorw("❌ GetReport: export failed", "format", format, "error", err)
		http.Error(w, fmt.Sprintf("Failed to export report: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatHTML {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(mode, format, now)))
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.L().Errorw("❌ GetReport: Error writing response", "error", err)
		return
	}
	logger.L().Infow("✅ GetReport: export sent", "mode", mode, "format", format, "bytes", len(body))
}
