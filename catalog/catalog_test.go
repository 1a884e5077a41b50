package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/models"
)

type fakeProducts struct {
	products      []models.Product
	categories    []string
	err           error
	categoriesErr error
}

func (f *fakeProducts) ListProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeProducts) ListCategories(ctx context.Context) ([]string, error) {
	return f.categories, f.categoriesErr
}

func sample() *fakeProducts {
	return &fakeProducts{
		products: []models.Product{
			{ID: 1, Name: "Teclado mecánico", Price: decimal.NewFromInt(120), Stock: 4, CategoryName: "Electrónica"},
			{ID: 2, Name: "Camiseta", Price: decimal.NewFromInt(30), Stock: 80, CategoryName: "Ropa"},
			{ID: 3, Name: "Mouse", Price: decimal.NewFromInt(25), Stock: 0, CategoryName: "Electrónica"},
		},
		categories: []string{"Electrónica", "Ropa"},
	}
}

func TestRefreshAndLookup(t *testing.T) {
	c := New(sample(), 50)
	require.NoError(t, c.Refresh(context.Background()))

	p, ok := c.Product(2)
	require.True(t, ok)
	assert.Equal(t, "Camiseta", p.Name)

	stock, ok := c.Stock(3)
	assert.True(t, ok)
	assert.Equal(t, 0, stock)

	_, ok = c.Stock(99)
	assert.False(t, ok)
	assert.False(t, c.LoadedAt().IsZero())
}

func TestProductsFilter(t *testing.T) {
	c := New(sample(), 50)
	require.NoError(t, c.Refresh(context.Background()))

	assert.Len(t, c.Products(Filter{}), 3)
	assert.Len(t, c.Products(Filter{Category: "Todas"}), 3)
	assert.Len(t, c.Products(Filter{Search: "TECLADO"}), 1)
	assert.Len(t, c.Products(Filter{Category: "Electrónica"}), 2)

	low := c.Products(Filter{LowStock: true})
	require.Len(t, low, 2)
	assert.Equal(t, int64(1), low[0].ID)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	src := sample()
	c := New(src, 50)
	require.NoError(t, c.Refresh(context.Background()))

	src.err = errors.New("boom")
	assert.Error(t, c.Refresh(context.Background()))
	assert.Len(t, c.Products(Filter{}), 3)
}

func TestCategoriesFallBackToProducts(t *testing.T) {
	src := sample()
	src.categoriesErr = errors.New("no categories endpoint")
	c := New(src, 50)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []string{"Electrónica", "Ropa"}, c.Categories())
}

func TestOnRefreshRunsAfterSuccessfulRefresh(t *testing.T) {
	src := sample()
	c := New(src, 50)

	var seen []int
	c.OnRefresh(func(c *StockCatalog) {
		stock, _ := c.Stock(1)
		seen = append(seen, stock)
	})

	require.NoError(t, c.Refresh(context.Background()))
	src.products[0].Stock = 1
	require.NoError(t, c.Refresh(context.Background()))

	src.err = errors.New("backend down")
	assert.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, []int{4, 1}, seen)
}
