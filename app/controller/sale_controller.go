package controller

import (
	"net/http"
	"strconv"
	"strings"

	"salesdesk/checkout"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
)

// SaleController handles HTTP requests for persisted sales
type SaleController struct {
	repository repository.SaleRepositoryInterface
	submitter  *checkout.Submitter
}

// NewSaleController creates a new SaleController
func NewSaleController(repo repository.SaleRepositoryInterface, submitter *checkout.Submitter) *SaleController {
	return &SaleController{
		repository: repo,
		submitter:  submitter,
	}
}

// ListSales handles GET /admin/sales
// Example response:
// {
//   "sales": [
//     {
//       "id": 10,
//       "clientId": "1032456789",
//       "clientName": "Juan Pérez",
//       "date": "2024-01-10T15:04:05Z",
//       "subtotal": "20",
//       "tax": "3.2",
//       "total": "23.2",
//       "items": [{"productId": 7, "productName": "Teclado", "quantity": 2, "unitPrice": "10"}]
//     }
//   ]
// }
func (c *SaleController) ListSales(w http.ResponseWriter, r *http.Request) {
	logger.L().Infow("📥 ListSales: Received request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, "ListSales", r)
		return
	}

	sales, err := c.repository.ListSales(requestContext(r))
	if err != nil {
		writeError(w, "ListSales", err)
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}

	logger.L().Infow("✅ ListSales: Successfully fetched sales", "count", len(sales))
	writeJSON(w, http.StatusOK, models.SaleListResponse{Sales: sales}, "ListSales")
}

func saleIDFromPath(path string) (int64, bool) {
	idStr := strings.Trim(strings.TrimPrefix(path, "/admin/sales/"), "/")
	if idStr == "" || strings.Contains(idStr, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	return id, err == nil && id > 0
}

// GetSale handles GET /admin/sales/{id}
func (c *SaleController) GetSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GetSale", r)
		return
	}

	saleID, ok := saleIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "invalid sale id parameter", http.StatusBadRequest)
		return
	}

	sales, err := c.repository.ListSales(requestContext(r))
	if err != nil {
		writeError(w, "GetSale", err)
		return
	}
	for _, sale := range sales {
		if sale.ID == saleID {
			writeJSON(w, http.StatusOK, sale, "GetSale")
			return
		}
	}
	http.Error(w, "sale not found", http.StatusNotFound)
}

// DeleteSale handles DELETE /admin/sales/{id}
// The caller is expected to have confirmed the deletion with the user.
func (c *SaleController) DeleteSale(w http.ResponseWriter, r *http.Request) {
	logger.L().Infow("📥 DeleteSale: Received request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DeleteSale", r)
		return
	}

	saleID, ok := saleIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "invalid sale id parameter", http.StatusBadRequest)
		return
	}

	if err := c.submitter.DeleteSale(requestContext(r), saleID); err != nil {
		writeError(w, "DeleteSale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
