package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/apiclient"
	"salesdesk/app/controller"
	"salesdesk/config"
	"salesdesk/events"
	"salesdesk/models"
)

// memoryBackend is an in-memory Backend with the same stock rules as the real ones
type memoryBackend struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	clients  map[string]models.Client
	sales    []models.Sale
	nextID   int64
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		products: map[int64]*models.Product{
			1: {ID: 1, Name: "Teclado", Price: decimal.NewFromInt(10), Stock: 2, CategoryName: "Electrónica"},
			2: {ID: 2, Name: "Mouse", Price: decimal.NewFromInt(5), Stock: 0, CategoryName: "Electrónica"},
			3: {ID: 3, Name: "Camiseta", Price: decimal.RequireFromString("12.50"), Stock: 40, CategoryName: "Ropa"},
		},
		clients: map[string]models.Client{
			"1032": {ID: "1032", Name: "Juan Pérez"},
		},
		sales: []models.Sale{
			{ID: 1, ClientID: "1032", ClientName: "Juan Pérez", Date: "2024-01-10",
				Items: []models.SaleItem{{ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}}},
		},
		nextID: 2,
	}
}

func (m *memoryBackend) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for id := int64(1); id <= 3; id++ {
		out = append(out, *m.products[id])
	}
	return out, nil
}

func (m *memoryBackend) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"Electrónica", "Ropa"}, nil
}

func (m *memoryBackend) GetClient(ctx context.Context, id string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, &models.BackendError{Kind: models.ErrNotFound, Status: 404, Message: "No encontrado."}
	}
	return &c, nil
}

func (m *memoryBackend) ListClients(ctx context.Context) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Client{}
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryBackend) CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range req.Items {
		if m.products[it.Product].Stock < it.Quantity {
			return nil, models.NewValidationError(models.QuantityOutOfRange, "insufficient stock")
		}
	}
	sale := models.Sale{ID: m.nextID, ClientID: req.Client, Date: "2024-01-20T10:00:00Z",
		Subtotal: req.Subtotal, Tax: req.Tax, Total: req.Total}
	for _, it := range req.Items {
		m.products[it.Product].Stock -= it.Quantity
		sale.Items = append(sale.Items, models.SaleItem{ProductID: it.Product, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	m.nextID++
	m.sales = append(m.sales, sale)
	return &sale, nil
}

func (m *memoryBackend) ListSales(ctx context.Context) ([]models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Sale(nil), m.sales...), nil
}

func (m *memoryBackend) DeleteSale(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sales {
		if s.ID == id {
			m.sales = append(m.sales[:i], m.sales[i+1:]...)
			return nil
		}
	}
	return &models.BackendError{Kind: models.ErrNotFound, Status: 404}
}

type fakePDF struct{}

func (fakePDF) Render(ctx context.Context, html []byte) ([]byte, error) {
	return append([]byte("%PDF-1.4\n"), html[:16]...), nil
}

var _ controller.PDFPrinter = fakePDF{}

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		TaxRate:            decimal.RequireFromString("0.16"),
		ReportPageSize:     25,
		LowStockThreshold:  50,
		SessionIdleTimeout: time.Hour,
	}
}

type client struct {
	t       *testing.T
	handler http.Handler
	session string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if c.session != "" {
		req.Header.Set(controller.SessionHeader, c.session)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if id := rec.Header().Get(controller.SessionHeader); id != "" {
		c.session = id
	}
	return rec
}

func newTestApp(t *testing.T) (*App, *memoryBackend, *events.Recorder, *client) {
	backend := newMemoryBackend()
	recorder := &events.Recorder{}
	a := New(testConfig(), backend, recorder, fakePDF{})
	require.NoError(t, a.Catalog.Refresh(context.Background()))
	return a, backend, recorder, &client{t: t, handler: a.Handler}
}

func TestPing(t *testing.T) {
	_, _, _, c := newTestApp(t)
	rec := c.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCheckoutFlow(t *testing.T) {
	a, backend, recorder, c := newTestApp(t)

	rec := c.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 1, "quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, c.session)

	var view controller.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("23.20")))

	rec = c.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 2, "quantity": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodPost, "/admin/cart/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, "/admin/cart/client", map[string]string{"clientId": "9999"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPut, "/admin/cart/client", map[string]string{"clientId": "1032"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/admin/cart/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted models.SubmitSaleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, int64(2), submitted.SaleID)

	// cart cleared, stock re-fetched
	rec = c.do(http.MethodGet, "/admin/cart", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
	assert.Equal(t, "", view.ClientID)

	stock, _ := a.Catalog.Stock(1)
	assert.Equal(t, 0, stock)
	assert.Len(t, backend.sales, 2)
	assert.Len(t, recorder.Published(), 1)
}

func TestCartLineUpdates(t *testing.T) {
	_, _, _, c := newTestApp(t)
	c.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 3, "quantity": 1})

	rec := c.do(http.MethodPut, "/admin/cart/items/3", map[string]int{"quantity": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	var view controller.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 40, view.Lines[0].Quantity)

	rec = c.do(http.MethodPut, "/admin/cart/items/1", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodDelete, "/admin/cart/items/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)

	rec = c.do(http.MethodPut, "/admin/cart/items/abc", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshClampsExistingCarts(t *testing.T) {
	_, backend, _, c := newTestApp(t)
	rec := c.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 3, "quantity": 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = c.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 1, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	backend.mu.Lock()
	backend.products[3].Stock = 4
	backend.products[1].Stock = 0
	backend.mu.Unlock()

	rec = c.do(http.MethodPost, "/admin/products/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, "/admin/cart", nil)
	var view controller.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(3), view.Lines[0].ProductID)
	assert.Equal(t, 4, view.Lines[0].Quantity)
	assert.Equal(t, 4, view.Lines[0].Stock)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(50)), view.Subtotal.String())
}

func TestSessionsDoNotShareCarts(t *testing.T) {
	a, _, _, first := newTestApp(t)
	second := &client{t: t, handler: a.Handler}

	first.do(http.MethodPost, "/admin/cart/items", map[string]int{"productId": 3, "quantity": 1})
	rec := second.do(http.MethodGet, "/admin/cart", nil)

	var view controller.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
	assert.NotEqual(t, first.session, second.session)
	assert.Equal(t, 2, a.Sessions.Len())
}

func TestProductsAndCategories(t *testing.T) {
	_, _, _, c := newTestApp(t)

	rec := c.do(http.MethodGet, "/admin/products?category=Ropa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products.Products, 1)
	assert.Equal(t, "Camiseta", products.Products[0].Name)

	rec = c.do(http.MethodGet, "/admin/categories", nil)
	assert.JSONEq(t, `{"categories":["Todas","Electrónica","Ropa"]}`, rec.Body.String())

	rec = c.do(http.MethodGet, "/admin/clients/1032", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/admin/products", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReportsAndExports(t *testing.T) {
	_, _, _, c := newTestApp(t)

	rec := c.do(http.MethodGet, "/admin/reports?mode=date&from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.Amount.Equal(decimal.RequireFromString("29")), resp.Amount.String())
	assert.Equal(t, "Camiseta", resp.Rows[0].ProductName)

	rec = c.do(http.MethodGet, "/admin/reports?mode=product&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report_product_")
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	rec = c.do(http.MethodGet, "/admin/reports?mode=client&q=juan&format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sales by client")
	assert.Contains(t, rec.Body.String(), "Filters: juan")

	rec = c.do(http.MethodGet, "/admin/reports?mode=date&format=pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = c.do(http.MethodGet, "/admin/reports?mode=region", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodGet, "/admin/reports?mode=date&from=10-01-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodGet, "/admin/reports?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalesEndpoints(t *testing.T) {
	_, backend, recorder, c := newTestApp(t)

	rec := c.do(http.MethodGet, "/admin/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.SaleListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Sales, 1)

	rec = c.do(http.MethodGet, "/admin/sales/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodDelete, "/admin/sales/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, backend.sales)
	assert.Len(t, recorder.Published(), 1)

	rec = c.do(http.MethodDelete, "/admin/sales/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodDelete, "/admin/sales/x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerTokenIsForwarded(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token inválido"}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	a := New(cfg, apiclient.New(srv.URL, "", time.Second), nil, fakePDF{})

	req := httptest.NewRequest(http.MethodGet, "/admin/sales", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "Bearer user-token", got)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token inválido")
}
