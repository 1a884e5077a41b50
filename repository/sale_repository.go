package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salesdesk/db"
	"salesdesk/logger"
	"salesdesk/models"
)

// SaleRepository handles database operations for sales
type SaleRepository struct{}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository() *SaleRepository {
	return &SaleRepository{}
}

// Ensure SaleRepository implements SaleRepositoryInterface
var _ SaleRepositoryInterface = (*SaleRepository)(nil)

// CreateSale stores a sale, its lines and the matching income transaction,
// decrementing product stock. All operations are performed atomically in a single transaction.
func (r *SaleRepository) CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error) {
	log := logger.L()
	log.Infow("📦 CreateSale: creating sale", "client", req.Client, "items", len(req.Items), "total", req.Total.String())

	if len(req.Items) == 0 {
		return nil, models.NewValidationError(models.EmptyCart, "sale has no items")
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Errorw("❌ CreateSale: error starting transaction", "error", err)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var clientName string
	err = tx.QueryRowContext(ctx, `SELECT name FROM clients WHERE id = $1`, req.Client).Scan(&clientName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.BackendError{Kind: models.ErrNotFound, Message: fmt.Sprintf("client %s not found", req.Client)}
		}
		log.Errorw("❌ CreateSale: error fetching client", "error", err)
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}

	// Lock every product row and validate stock before touching anything
	names := make(map[int64]string, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, models.NewValidationError(models.QuantityOutOfRange, "quantity for product %d must be greater than 0", item.Product)
		}

		var stock int
		var name string
		err = tx.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`, item.Product).Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &models.BackendError{Kind: models.ErrNotFound, Message: fmt.Sprintf("product %d not found", item.Product)}
			}
			log.Errorw("❌ CreateSale: error fetching product stock", "product", item.Product, "error", err)
			return nil, fmt.Errorf("failed to fetch product stock: %w", err)
		}
		if stock < item.Quantity {
			log.Warnw("⚠️ CreateSale: insufficient stock", "product", item.Product, "stock", stock, "requested", item.Quantity)
			return nil, models.NewValidationError(models.QuantityOutOfRange,
				"insufficient stock for %s: available %d, requested %d", name, stock, item.Quantity)
		}
		names[item.Product] = name

		_, err = tx.ExecContext(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2`, item.Quantity, item.Product)
		if err != nil {
			log.Errorw("❌ CreateSale: error updating stock", "product", item.Product, "error", err)
			return nil, fmt.Errorf("failed to deduct stock: %w", err)
		}
	}

	soldAt := time.Now().UTC()
	var sale models.Sale
	var createdAt time.Time
	queryInsertSale := `
		INSERT INTO sales (client_id, sold_at, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, client_id, sold_at, subtotal, tax, total
	`
	err = tx.QueryRowContext(ctx, queryInsertSale, req.Client, soldAt, req.Subtotal, req.Tax, req.Total).Scan(
		&sale.ID,
		&sale.ClientID,
		&createdAt,
		&sale.Subtotal,
		&sale.Tax,
		&sale.Total,
	)
	if err != nil {
		log.Errorw("❌ CreateSale: error inserting sale", "error", err)
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}
	sale.ClientName = clientName
	sale.Date = createdAt.UTC().Format(time.RFC3339)

	queryInsertItem := `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range req.Items {
		lineSubtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		_, err = tx.ExecContext(ctx, queryInsertItem, sale.ID, item.Product, item.Quantity, item.UnitPrice, lineSubtotal)
		if err != nil {
			log.Errorw("❌ CreateSale: error inserting item", "product", item.Product, "error", err)
			return nil, fmt.Errorf("failed to insert sale item: %w", err)
		}
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID:   item.Product,
			ProductName: names[item.Product],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	queryInsertTransaction := `
		INSERT INTO finance_transactions (type, source, source_id, occurred_at, amount, category)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, queryInsertTransaction, "income", "sale", sale.ID, soldAt, req.Total, "venta")
	if err != nil {
		log.Errorw("❌ CreateSale: error inserting finance transaction", "error", err)
		return nil, fmt.Errorf("failed to insert finance transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		log.Errorw("❌ CreateSale: error committing transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infow("✅ CreateSale: sale created", "sale", sale.ID, "client", sale.ClientID)
	return &sale, nil
}

// ListSales retrieves every sale with its lines, newest first
func (r *SaleRepository) ListSales(ctx context.Context) ([]models.Sale, error) {
	log := logger.L()

	querySales := `
		SELECT s.id, s.client_id, COALESCE(c.name, ''), s.sold_at, s.subtotal, s.tax, s.total
		FROM sales s
		LEFT JOIN clients c ON s.client_id = c.id
		ORDER BY s.sold_at DESC, s.id DESC
	`
	rows, err := db.DB.QueryContext(ctx, querySales)
	if err != nil {
		log.Errorw("❌ ListSales: error fetching sales", "error", err)
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	index := map[int64]int{}
	for rows.Next() {
		var s models.Sale
		var soldAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.ClientID, &s.ClientName, &soldAt, &s.Subtotal, &s.Tax, &s.Total); err != nil {
			log.Warnw("⚠️ ListSales: error scanning sale", "error", err)
			continue
		}
		if soldAt.Valid {
			s.Date = soldAt.Time.UTC().Format(time.RFC3339)
		}
		s.Items = []models.SaleItem{}
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	queryItems := `
		SELECT si.sale_id, si.product_id, COALESCE(p.name, ''), si.quantity, si.unit_price
		FROM sale_items si
		LEFT JOIN products p ON si.product_id = p.id
		ORDER BY si.sale_id ASC, si.id ASC
	`
	itemRows, err := db.DB.QueryContext(ctx, queryItems)
	if err != nil {
		log.Errorw("❌ ListSales: error fetching sale items", "error", err)
		return nil, fmt.Errorf("failed to fetch sale items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var saleID int64
		var item models.SaleItem
		if err := itemRows.Scan(&saleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			log.Warnw("⚠️ ListSales: error scanning sale item", "error", err)
			continue
		}
		i, ok := index[saleID]
		if !ok {
			continue
		}
		sales[i].Items = append(sales[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sale items: %w", err)
	}

	log.Debugw("✅ ListSales: fetched sales", "count", len(sales))
	return sales, nil
}

// DeleteSale removes a sale, puts its units back in stock and drops its income transaction
func (r *SaleRepository) DeleteSale(ctx context.Context, id int64) error {
	log := logger.L()
	log.Infow("📦 DeleteSale: deleting sale", "sale", id)

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BackendError{Kind: models.ErrNotFound, Message: fmt.Sprintf("sale %d not found", id)}
		}
		return fmt.Errorf("failed to fetch sale: %w", err)
	}

	queryRestock := `
		UPDATE products p
		SET stock = p.stock + si.quantity
		FROM sale_items si
		WHERE si.sale_id = $1 AND si.product_id = p.id
	`
	if _, err := tx.ExecContext(ctx, queryRestock, id); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM finance_transactions WHERE source = 'sale' AND source_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete finance transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete sale items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infow("✅ DeleteSale: sale deleted", "sale", id)
	return nil
}
