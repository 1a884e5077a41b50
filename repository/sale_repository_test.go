package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/db"
	"salesdesk/models"
)

func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	prev := db.DB
	db.DB = mockDB
	t.Cleanup(func() {
		db.DB = prev
		mockDB.Close()
	})
	return mock
}

func saleRequest() *models.CreateSaleRequest {
	return &models.CreateSaleRequest{
		Client:   "1032",
		Subtotal: decimal.RequireFromString("20"),
		Tax:      decimal.RequireFromString("3.2"),
		Total:    decimal.RequireFromString("23.2"),
		Items: []models.CreateSaleRequestItem{
			{Product: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10")},
		},
	}
}

func TestCreateSaleCommitsEverything(t *testing.T) {
	mock := useMockDB(t)
	soldAt := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM clients WHERE id = $1`)).
		WithArgs("1032").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Juan Pérez"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Teclado", 5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET stock = stock - $1 WHERE id = $2`)).
		WithArgs(2, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO sales`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "sold_at", "subtotal", "tax", "total"}).
			AddRow(int64(10), "1032", soldAt, "20", "3.2", "23.2"))
	mock.ExpectExec(`INSERT INTO sale_items`).
		WithArgs(int64(10), int64(7), 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO finance_transactions`).
		WithArgs("income", "sale", int64(10), sqlmock.AnyArg(), sqlmock.AnyArg(), "venta").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sale, err := NewSaleRepository().CreateSale(context.Background(), saleRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(10), sale.ID)
	assert.Equal(t, "Juan Pérez", sale.ClientName)
	assert.Equal(t, "2024-01-10T15:00:00Z", sale.Date)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Teclado", sale.Items[0].ProductName)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("23.2")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSaleRollsBackOnInsufficientStock(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name FROM clients`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Juan Pérez"))
	mock.ExpectQuery(`SELECT name, stock FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Teclado", 1))
	mock.ExpectRollback()

	_, err := NewSaleRepository().CreateSale(context.Background(), saleRequest())
	require.Error(t, err)
	assert.True(t, models.IsValidation(err, models.QuantityOutOfRange))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSaleUnknownClient(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name FROM clients`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := NewSaleRepository().CreateSale(context.Background(), saleRequest())
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSalesAttachesItems(t *testing.T) {
	mock := useMockDB(t)
	soldAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM sales s`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "name", "sold_at", "subtotal", "tax", "total"}).
			AddRow(int64(2), "1032", "Juan Pérez", soldAt, "30", "4.8", "34.8").
			AddRow(int64(1), "2040", "", nil, "0", "0", "0"))
	mock.ExpectQuery(`FROM sale_items si`).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "product_id", "name", "quantity", "unit_price"}).
			AddRow(int64(2), int64(7), "Teclado", 1, "10").
			AddRow(int64(2), int64(8), "Mouse", 2, "10"))

	sales, err := NewSaleRepository().ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "2024-01-10T00:00:00Z", sales[0].Date)
	assert.Len(t, sales[0].Items, 2)
	assert.Equal(t, "", sales[1].Date)
	assert.Empty(t, sales[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSaleNotFound(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM sales`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewSaleRepository().DeleteSale(context.Background(), 99)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsSkipsNothing(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(`FROM products p`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "category_name"}).
			AddRow(int64(1), "A", "10.00", 2, "Hogar").
			AddRow(int64(2), "B", "5.00", 0, ""))

	products, err := NewProductRepository().ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(10)))
	assert.False(t, products[1].InStock())
}

func TestGetClientNotFound(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery(`FROM clients`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := NewClientRepository().GetClient(context.Background(), "nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
