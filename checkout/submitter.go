// Package checkout turns a validated cart into a persisted sale.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"salesdesk/cart"
	"salesdesk/events"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/repository"
)

// SaleStore persists and removes sales
type SaleStore interface {
	CreateSale(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error)
	DeleteSale(ctx context.Context, id int64) error
}

// Refresher reloads the stock snapshot after the backend changed it
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Submitter submits carts as sales. One submission per cart may be in flight.
type Submitter struct {
	store     SaleStore
	clients   repository.ClientRepositoryInterface
	catalog   Refresher
	publisher events.Publisher

	inFlight sync.Map // *cart.Cart -> struct{}
}

// NewSubmitter creates a new Submitter. clients, catalog and publisher may be nil.
func NewSubmitter(
	store SaleStore,
	clients repository.ClientRepositoryInterface,
	catalog Refresher,
	publisher events.Publisher,
) *Submitter {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Submitter{
		store:     store,
		clients:   clients,
		catalog:   catalog,
		publisher: publisher,
	}
}

// BuildRequest builds the backend payload from one cart snapshot
func BuildRequest(clientID string, lines []cart.Line, totals cart.Totals) *models.CreateSaleRequest {
	items := make([]models.CreateSaleRequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CreateSaleRequestItem{
			Product:   line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return &models.CreateSaleRequest{
		Client:   clientID,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		Items:    items,
	}
}

// Submit validates the cart, creates the sale and takes the sold lines out of
// the cart on success. Lines added while the sale was being created stay.
// On failure the cart is left untouched and the backend error is returned as is.
func (s *Submitter) Submit(ctx context.Context, clientID string, c *cart.Cart) (*models.SubmitSaleResponse, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, models.NewValidationError(models.NoClient, "select a client before submitting the sale")
	}
	if c.Len() == 0 {
		return nil, models.NewValidationError(models.EmptyCart, "add at least one product before submitting the sale")
	}

	if _, busy := s.inFlight.LoadOrStore(c, struct{}{}); busy {
		return nil, models.ErrAlreadySubmitting
	}
	defer s.inFlight.Delete(c)

	if s.clients != nil {
		if _, err := s.clients.GetClient(ctx, clientID); err != nil {
			return nil, err
		}
	}

	sold, totals := c.Snapshot()
	if len(sold) == 0 {
		return nil, models.NewValidationError(models.EmptyCart, "add at least one product before submitting the sale")
	}
	req := BuildRequest(clientID, sold, totals)
	logger.L().Infow("📦 Submit: creating sale", "client", clientID, "items", len(req.Items), "total", req.Total.String())

	sale, err := s.store.CreateSale(ctx, req)
	if err != nil {
		logger.L().Warnw("❌ Submit: backend rejected sale", "client", clientID, "error", err)
		return nil, err
	}

	c.RemoveSold(sold)
	logger.L().Infow("✅ Submit: sale created", "saleId", sale.ID, "client", clientID, "remainingLines", c.Len())

	s.refreshCatalog(ctx)

	event := events.SaleCreated{
		Type:       events.TypeSaleCreated,
		SaleID:     sale.ID,
		ClientID:   clientID,
		Total:      req.Total,
		Items:      len(req.Items),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.L().Warnw("⚠️ Submit: failed to publish sale event", "saleId", sale.ID, "error", err)
	}

	return &models.SubmitSaleResponse{SaleID: sale.ID, Total: req.Total}, nil
}

// DeleteSale removes a sale in the backend. Callers confirm with the user first.
func (s *Submitter) DeleteSale(ctx context.Context, id int64) error {
	if err := s.store.DeleteSale(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sale %d: %w", id, err)
	}
	logger.L().Infow("✅ DeleteSale: sale deleted", "saleId", id)

	s.refreshCatalog(ctx)

	event := events.SaleDeleted{Type: events.TypeSaleDeleted, SaleID: id, OccurredAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.L().Warnw("⚠️ DeleteSale: failed to publish sale event", "saleId", id, "error", err)
	}
	return nil
}

func (s *Submitter) refreshCatalog(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Refresh(ctx); err != nil {
		logger.L().Warnw("⚠️ Submit: catalog refresh failed", "error", err)
	}
}
