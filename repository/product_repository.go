package repository

import (
	"context"
	"fmt"

	"salesdesk/db"
	"salesdesk/logger"
	"salesdesk/models"
)

// ProductRepository handles database operations for products and categories
type ProductRepository struct{}

// NewProductRepository creates a new ProductRepository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// Ensure ProductRepository implements ProductRepositoryInterface
var _ ProductRepositoryInterface = (*ProductRepository)(nil)

// ListProducts retrieves every active product with its category name
func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	log := logger.L()

	query := `
		SELECT p.id, p.name, p.price, p.stock, COALESCE(c.name, '') AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.is_active = true
		ORDER BY p.name ASC
	`

	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		log.Errorw("❌ ListProducts: error fetching products", "error", err)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryName); err != nil {
			log.Warnw("⚠️ ListProducts: error scanning product", "error", err)
			continue
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		log.Errorw("❌ ListProducts: error iterating products", "error", err)
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	log.Debugw("✅ ListProducts: fetched products", "count", len(products))
	return products, nil
}

// ListCategories retrieves category names in alphabetical order
func (r *ProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}
