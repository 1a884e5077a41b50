// Package apiclient talks to the REST backend: products, categories, clients and sales.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
)

type tokenKey struct{}

// WithBearerToken attaches the caller's credential to ctx. It takes
// precedence over the client's static token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client is a Backend on top of the REST API. Calls are never retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ repository.Backend = (*Client)(nil)

// New creates a Client. baseURL is e.g. "http://localhost:8000/api".
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes a JSON response into out (if not nil).
// Non-2xx statuses are mapped to *models.BackendError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := tokenFrom(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.BackendError{Kind: models.ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.BackendError{Kind: models.ErrNetwork, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		backendErr := &models.BackendError{Kind: kindFor(resp.StatusCode), Status: resp.StatusCode, Message: errorMessage(data)}
		logger.L().Warnw("❌ API: request failed", "method", method, "path", path, "status", resp.StatusCode, "error", backendErr)
		return backendErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &models.BackendError{Kind: models.ErrNetwork, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func kindFor(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return models.ErrUnauthorized
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	}
	return models.ErrNetwork
}

// errorMessage extracts the backend's explanation from an error body:
// a detail/error/message JSON key, or the plain text itself.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := obj[key]; ok {
				if s := flatten(v); s != "" {
					return s
				}
			}
		}
		// field errors, e.g. {"cliente": ["This field is required."]}
		var parts []string
		for k, v := range obj {
			if s := flatten(v); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		if len(parts) > 0 {
			sort.Strings(parts)
			return strings.Join(parts, "; ")
		}
		return ""
	}

	if strings.HasPrefix(text, "<") {
		// HTML error pages carry nothing useful
		return ""
	}
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}

func flatten(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		var parts []string
		for _, e := range t {
			if s := flatten(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// ListProducts returns every product; products with a malformed price are skipped
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var dtos []productoDTO
	if err := c.do(ctx, http.MethodGet, "/productos/", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toProduct(dto)
		if err != nil {
			logger.L().Warnw("⚠️ API: skipping product", "product", dto.ID, "error", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// ListCategories returns category names
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var dtos []categoriaDTO
	if err := c.do(ctx, http.MethodGet, "/categorias/", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	names := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		names = append(names, dto.Nombre)
	}
	return names, nil
}

// GetClient looks a client up by cédula
func (c *Client) GetClient(ctx context.Context, id string) (*models.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &models.BackendError{Kind: models.ErrNotFound, Message: "empty client id"}
	}
	var dto clienteDTO
	if err := c.do(ctx, http.MethodGet, "/clientes/"+url.PathEscape(id)+"/", nil, &dto); err != nil {
		return nil, fmt.Errorf("failed to get client %s: %w", id, err)
	}
	client := toClient(dto)
	if client.ID == "" {
		client.ID = id
	}
	return &client, nil
}

// ListClients returns every client
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	var dtos []clienteDTO
	if err := c.do(ctx, http.MethodGet, "/clientes/", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	clients := make([]models.Client, 0, len(dtos))
	for _, dto := range dtos {
		clients = append(clients, toClient(dto))
	}
	return clients, nil
}

// ListSales returns the sales history with items
func (c *Client) ListSales(ctx context.Context) ([]models.Sale, error) {
	var dtos []ventaDTO
	if err := c.do(ctx, http.MethodGet, "/ventas/", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	sales := make([]models.Sale, 0, len(dtos))
	for _, dto := range dtos {
		sales = append(sales, toSale(dto))
	}
	return sales, nil
}

// CreateSale posts a sale. The backend decrements stock atomically.
func (c *Client) CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error) {
	var dto ventaDTO
	if err := c.do(ctx, http.MethodPost, "/ventas/", fromCreateSaleRequest(req), &dto); err != nil {
		return nil, err
	}
	if dto.ID == 0 {
		return nil, &models.BackendError{Kind: models.ErrNetwork, Message: "sale created without id"}
	}
	sale := toSale(dto)
	if sale.ClientID == "" {
		sale.ClientID = req.Client
	}
	if sale.Total.IsZero() {
		sale.Subtotal, sale.Tax, sale.Total = req.Subtotal, req.Tax, req.Total
	}
	return &sale, nil
}

// DeleteSale deletes a sale by id
func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/ventas/"+strconv.FormatInt(id, 10)+"/", nil, nil)
}
