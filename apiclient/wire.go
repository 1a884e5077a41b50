package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesdesk/logger"
	"salesdesk/models"
)

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// rawAmount keeps a money field undecoded so one bad value does not fail the whole list
type rawAmount json.RawMessage

func (r *rawAmount) UnmarshalJSON(b []byte) error {
	*r = append((*r)[0:0], b...)
	return nil
}

func (r rawAmount) parse() (decimal.Decimal, string, error) {
	raw := strings.TrimSpace(string(r))
	if raw == "" || raw == "null" {
		return decimal.Zero, raw, nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unq)
	}
	d, err := decimal.NewFromString(raw)
	return d, raw, err
}

type productoDTO struct {
	ID              int64      `json:"id"`
	Nombre          string     `json:"nombre"`
	Precio          rawAmount  `json:"precio"`
	Stock           int        `json:"stock"`
	CategoriaNombre string     `json:"categoria_nombre"`
	Categoria       flexString `json:"categoria"`
}

type categoriaDTO struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

type clienteDTO struct {
	Cedula   flexString `json:"cedula"`
	Nombre   string     `json:"nombre"`
	Email    string     `json:"email"`
	Telefono string     `json:"telefono"`
	Ciudad   string     `json:"ciudad"`
}

type ventaItemDTO struct {
	Producto       int64     `json:"producto"`
	ProductoNombre string    `json:"producto_nombre"`
	Cantidad       int       `json:"cantidad"`
	PrecioUnitario rawAmount `json:"precio_unitario"`
}

type ventaDTO struct {
	ID            int64          `json:"id"`
	Cliente       flexString     `json:"cliente"`
	ClienteNombre string         `json:"cliente_nombre"`
	Fecha         string         `json:"fecha"`
	Subtotal      rawAmount      `json:"subtotal"`
	Impuesto      rawAmount      `json:"impuesto"`
	Total         rawAmount      `json:"total"`
	Items         []ventaItemDTO `json:"items"`
}

type ventaItemRequest struct {
	Producto       int64           `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type ventaRequest struct {
	Cliente  string             `json:"cliente"`
	Subtotal string             `json:"subtotal"`
	Impuesto string             `json:"impuesto"`
	Total    string             `json:"total"`
	Items    []ventaItemRequest `json:"items"`
}

func toProduct(p productoDTO) (models.Product, error) {
	price, raw, err := p.Precio.parse()
	if err != nil {
		return models.Product{}, &models.MalformedDataError{Field: "precio", Value: raw, Err: err}
	}
	category := p.CategoriaNombre
	if category == "" {
		// some backends send the category name directly
		if _, numErr := strconv.ParseInt(string(p.Categoria), 10, 64); numErr != nil {
			category = string(p.Categoria)
		}
	}
	return models.Product{
		ID:           p.ID,
		Name:         p.Nombre,
		Price:        price,
		Stock:        p.Stock,
		CategoryName: category,
	}, nil
}

func toClient(c clienteDTO) models.Client {
	return models.Client{
		ID:    string(c.Cedula),
		Name:  c.Nombre,
		Email: c.Email,
		Phone: c.Telefono,
		City:  c.Ciudad,
	}
}

// toSale converts a venta. Items with an unparseable price are dropped and
// their errors logged; the sale itself is kept.
func toSale(v ventaDTO) models.Sale {
	sale := models.Sale{
		ID:         v.ID,
		ClientID:   string(v.Cliente),
		ClientName: v.ClienteNombre,
		Date:       v.Fecha,
		Items:      make([]models.SaleItem, 0, len(v.Items)),
	}

	amount := func(field string, r rawAmount) decimal.Decimal {
		d, raw, err := r.parse()
		if err != nil {
			logger.L().Warnw("⚠️ API: malformed sale field", "error",
				&models.MalformedDataError{SaleID: v.ID, Field: field, Value: raw, Err: err})
			return decimal.Zero
		}
		return d
	}
	sale.Subtotal = amount("subtotal", v.Subtotal)
	sale.Tax = amount("impuesto", v.Impuesto)
	sale.Total = amount("total", v.Total)

	for _, it := range v.Items {
		price, raw, err := it.PrecioUnitario.parse()
		if err != nil {
			logger.L().Warnw("⚠️ API: dropping sale item with malformed price", "error",
				&models.MalformedDataError{SaleID: v.ID, Field: "precio_unitario", Value: raw, Err: err})
			continue
		}
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID:   it.Producto,
			ProductName: it.ProductoNombre,
			Quantity:    it.Cantidad,
			UnitPrice:   price,
		})
	}
	return sale
}

func fromCreateSaleRequest(req *models.CreateSaleRequest) ventaRequest {
	items := make([]ventaItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ventaItemRequest{
			Producto:       it.Product,
			Cantidad:       it.Quantity,
			PrecioUnitario: it.UnitPrice,
		})
	}
	// the backend stores two decimals
	return ventaRequest{
		Cliente:  req.Client,
		Subtotal: req.Subtotal.StringFixed(2),
		Impuesto: req.Tax.StringFixed(2),
		Total:    req.Total.StringFixed(2),
		Items:    items,
	}
}
