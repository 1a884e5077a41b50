package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesdesk/cart"
	"salesdesk/checkout"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
	"salesdesk/session"
)

// ProductLookup resolves a product from the stock snapshot
type ProductLookup interface {
	Product(id int64) (models.Product, bool)
}

// CartController handles HTTP requests for the session cart and checkout
type CartController struct {
	sessions  *session.Store
	products  ProductLookup
	clients   repository.ClientRepositoryInterface
	submitter *checkout.Submitter
}

// NewCartController creates a new CartController
func NewCartController(
	sessions *session.Store,
	products ProductLookup,
	clients repository.ClientRepositoryInterface,
	submitter *checkout.Submitter,
) *CartController {
	return &CartController{
		sessions:  sessions,
		products:  products,
		clients:   clients,
		submitter: submitter,
	}
}

// CartResponse is the JSON view of a session cart
type CartResponse struct {
	SessionID string          `json:"sessionId"`
	ClientID  string          `json:"clientId"`
	Lines     []cart.Line     `json:"lines"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	cart.Totals
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setClientRequest struct {
	ClientID string `json:"clientId"`
}

func cartView(s *session.Session) CartResponse {
	return CartResponse{
		SessionID: s.ID,
		ClientID:  s.ClientID(),
		Lines:     s.Cart.Lines(),
		TaxRate:   s.Cart.TaxRate(),
		Totals:    s.Cart.Totals(),
	}
}

// GetCart handles GET /admin/cart
// Example response:
// {
//   "sessionId": "5f0c...",
//   "clientId": "1032456789",
//   "lines": [{"productId": 7, "productName": "Teclado", "unitPrice": "10", "quantity": 2, "stock": 2}],
//   "taxRate": "0.16",
//   "subtotal": "20",
//   "tax": "3.2",
//   "total": "23.2"
// }
func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GetCart", r)
		return
	}
	s := currentSession(c.sessions, w, r)
	writeJSON(w, http.StatusOK, cartView(s), "GetCart")
}

// ClearCart handles DELETE /admin/cart
func (c *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "ClearCart", r)
		return
	}
	s := currentSession(c.sessions, w, r)
	s.Cart.Clear()
	logger.L().Infow("🗑️ ClearCart: cart emptied", "session", s.ID)
	writeJSON(w, http.StatusOK, cartView(s), "ClearCart")
}

// AddItem handles POST /admin/cart/items
// Example request:
// POST /admin/cart/items
// {"productId": 7, "quantity": 5}
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	logger.L().Infow("📥 AddItem: Received request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "AddItem", r)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProductID <= 0 {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, ok := c.products.Product(req.ProductID)
	if !ok {
		http.Error(w, fmt.Sprintf("product %d not found", req.ProductID), http.StatusNotFound)
		return
	}

	s := currentSession(c.sessions, w, r)
	line, err := s.Cart.Add(product, req.Quantity)
	if err != nil {
		writeError(w, "AddItem", err)
		return
	}

	logger.L().Infow("✅ AddItem: product added", "session", s.ID, "product", line.ProductID, "quantity", line.Quantity)
	writeJSON(w, http.StatusOK, cartView(s), "AddItem")
}

// cartItemID extracts {productId} from /admin/cart/items/{productId}
func cartItemID(path string) (int64, error) {
	idStr := strings.Trim(strings.TrimPrefix(path, "/admin/cart/items/"), "/")
	if idStr == "" || strings.Contains(idStr, "/") {
		return 0, fmt.Errorf("invalid path format")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id parameter")
	}
	return id, nil
}

// UpdateItem handles PUT /admin/cart/items/{productId}
// Example request: {"quantity": 3}. A quantity of 0 removes the line.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w, "UpdateItem", r)
		return
	}

	productID, err := cartItemID(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	s := currentSession(c.sessions, w, r)
	if _, err := s.Cart.SetQuantity(productID, req.Quantity); err != nil {
		writeError(w, "UpdateItem", err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s), "UpdateItem")
}

// RemoveItem handles DELETE /admin/cart/items/{productId}
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "RemoveItem", r)
		return
	}

	productID, err := cartItemID(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := currentSession(c.sessions, w, r)
	s.Cart.Remove(productID)
	writeJSON(w, http.StatusOK, cartView(s), "RemoveItem")
}

// SetClient handles PUT /admin/cart/client
// Example request: {"clientId": "1032456789"}. An empty id clears the selection.
func (c *CartController) SetClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, "SetClient", r)
		return
	}

	var req setClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	s := currentSession(c.sessions, w, r)
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		s.SetClientID("")
		writeJSON(w, http.StatusOK, cartView(s), "SetClient")
		return
	}

	client, err := c.clients.GetClient(requestContext(r), clientID)
	if err != nil {
		writeError(w, "SetClient", err)
		return
	}
	s.SetClientID(client.ID)

	logger.L().Infow("✅ SetClient: client selected", "session", s.ID, "client", client.ID)
	writeJSON(w, http.StatusOK, struct {
		CartResponse
		Client *models.Client `json:"client"`
	}{cartView(s), client}, "SetClient")
}

// Submit handles POST /admin/cart/submit
// Example response:
// {"saleId": 10, "total": "23.2"}
func (c *CartController) Submit(w http.ResponseWriter, r *http.Request) {
	logger.L().Infow("📥 Submit: Received request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "Submit", r)
		return
	}

	s := currentSession(c.sessions, w, r)
	resp, err := c.submitter.Submit(requestContext(r), s.ClientID(), s.Cart)
	if err != nil {
		writeError(w, "Submit", err)
		return
	}
	s.SetClientID("")

	writeJSON(w, http.StatusCreated, resp, "Submit")
}
