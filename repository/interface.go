package repository

import (
	"context"

	"salesdesk/models"
)

// ProductRepositoryInterface defines the contract for product catalog reads
type ProductRepositoryInterface interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// ClientRepositoryInterface defines the contract for client lookups
type ClientRepositoryInterface interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

// SaleRepositoryInterface defines the contract for sale persistence.
// CreateSale is atomic: either every line and stock decrement is stored or nothing is.
type SaleRepositoryInterface interface {
	CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
	DeleteSale(ctx context.Context, id int64) error
}

// Backend groups every collaborator the engine consumes.
// Both the Postgres repositories and the REST api client satisfy it.
type Backend interface {
	ProductRepositoryInterface
	ClientRepositoryInterface
	SaleRepositoryInterface
}

// PostgresBackend bundles the Postgres repositories into a Backend
type PostgresBackend struct {
	*ProductRepository
	*ClientRepository
	*SaleRepository
}

// NewPostgresBackend creates a Backend backed by db.DB
func NewPostgresBackend() *PostgresBackend {
	return &PostgresBackend{
		ProductRepository: NewProductRepository(),
		ClientRepository:  NewClientRepository(),
		SaleRepository:    NewSaleRepository(),
	}
}

var _ Backend = (*PostgresBackend)(nil)
