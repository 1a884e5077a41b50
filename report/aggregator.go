package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesdesk/logger"
	"salesdesk/models"
)

// Source lists what a report run needs from the backend
type Source interface {
	ListSales(ctx context.Context) ([]models.Sale, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

// Aggregator holds one session's report mode, filters and last result.
// A run superseded by a newer run or filter change is discarded.
type Aggregator struct {
	source  Source
	taxRate decimal.Decimal
	seq     Sequencer

	mu      sync.Mutex
	mode    Mode
	filters Filters
	last    *Result
}

// NewAggregator creates an Aggregator in date mode with no filters
func NewAggregator(source Source, taxRate decimal.Decimal) *Aggregator {
	return &Aggregator{source: source, taxRate: taxRate, mode: ByDate}
}

// SetMode switches the active report view
func (a *Aggregator) SetMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq.Next()
	a.mode = mode
}

// SetDateRange sets the date mode filter
func (a *Aggregator) SetDateRange(r DateRange) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq.Next()
	a.filters.Dates = r
}

// SetClientQuery sets the client mode filter
func (a *Aggregator) SetClientQuery(q string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq.Next()
	a.filters.ClientQuery = q
}

// SetProductQuery sets the product mode filter
func (a *Aggregator) SetProductQuery(q string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq.Next()
	a.filters.ProductQuery = q
}

// Last returns the last accepted result, if any
func (a *Aggregator) Last() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return Result{}, false
	}
	return *a.last, true
}

// Run loads sales, products and clients and aggregates them with the current
// mode and filters. If another run or a filter change happened while loading,
// it returns models.ErrStaleResult and the stored result is kept.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	a.mu.Lock()
	ticket := a.seq.Next()
	mode, filters := a.mode, a.filters
	a.mu.Unlock()

	var in Input
	in.TaxRate = a.taxRate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := a.source.ListSales(gctx)
		if err != nil {
			return fmt.Errorf("failed to list sales: %w", err)
		}
		in.Sales = sales
		return nil
	})
	g.Go(func() error {
		products, err := a.source.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		in.Products = products
		return nil
	})
	g.Go(func() error {
		clients, err := a.source.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}
		in.Clients = clients
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result, malformed := Aggregate(in, mode, filters)
	for _, err := range malformed {
		logger.L().Warnw("⚠️ Report: malformed sale record", "error", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seq.Current() != ticket {
		logger.L().Debugw("📊 Report: discarding stale result", "ticket", ticket, "latest", a.seq.Current())
		return Result{}, models.ErrStaleResult
	}
	a.last = &result

	logger.L().Infow("📊 Report: run complete", "mode", mode, "rows", len(result.Rows), "count", result.Count, "amount", result.Amount.String())
	return result, nil
}
