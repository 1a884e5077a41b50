package controller

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"salesdesk/catalog"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
)

// CatalogController handles HTTP requests for products, categories and clients
type CatalogController struct {
	catalog *catalog.StockCatalog
	clients repository.ClientRepositoryInterface
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(stock *catalog.StockCatalog, clients repository.ClientRepositoryInterface) *CatalogController {
	return &CatalogController{
		catalog: stock,
		clients: clients,
	}
}

// ProductListResponse represents the response for listing products
type ProductListResponse struct {
	Products []models.Product `json:"products"`
	LoadedAt time.Time        `json:"loadedAt"`
}

// ListProducts handles GET /admin/products?search=&category=&lowStock=true
// Example response:
// {
//   "products": [{"id": 7, "name": "Teclado", "price": "10", "stock": 2, "categoryName": "Electrónica"}],
//   "loadedAt": "2024-01-10T15:00:00Z"
// }
func (c *CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "ListProducts", r)
		return
	}

	q := r.URL.Query()
	lowStock, _ := strconv.ParseBool(q.Get("lowStock"))
	products := c.catalog.Products(catalog.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		LowStock: lowStock,
	})

	writeJSON(w, http.StatusOK, ProductListResponse{Products: products, LoadedAt: c.catalog.LoadedAt()}, "ListProducts")
}

// RefreshProducts handles POST /admin/products/refresh
func (c *CatalogController) RefreshProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "RefreshProducts", r)
		return
	}

	if err := c.catalog.Refresh(requestContext(r)); err != nil {
		writeError(w, "RefreshProducts", err)
		return
	}
	products := c.catalog.Products(catalog.Filter{})
	writeJSON(w, http.StatusOK, ProductListResponse{Products: products, LoadedAt: c.catalog.LoadedAt()}, "RefreshProducts")
}

// ListCategories handles GET /admin/categories
// Example response: {"categories": ["Todas", "Electrónica", "Ropa"]}
func (c *CatalogController) ListCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "ListCategories", r)
		return
	}
	categories := append([]string{"Todas"}, c.catalog.Categories()...)
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories}, "ListCategories")
}

// GetClient handles GET /admin/clients/{id}
func (c *CatalogController) GetClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GetClient", r)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/clients/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "client id parameter is required", http.StatusBadRequest)
		return
	}

	client, err := c.clients.GetClient(requestContext(r), id)
	if err != nil {
		writeError(w, "GetClient", err)
		return
	}
	logger.L().Debugw("✅ GetClient: found", "client", client.ID)
	writeJSON(w, http.StatusOK, client, "GetClient")
}
