package app

import (
	"context"
	"fmt"
	"net/http"

	"salesdesk/apiclient"
	"salesdesk/app/controller"
	"salesdesk/app/router"
	"salesdesk/cart"
	"salesdesk/catalog"
	"salesdesk/checkout"
	"salesdesk/config"
	"salesdesk/db"
	"salesdesk/events"
	"salesdesk/export"
	"salesdesk/logger"
	"salesdesk/report"
	"salesdesk/repository"
	"salesdesk/session"
)

// App holds the wired service
type App struct {
	Handler   http.Handler
	Catalog   *catalog.StockCatalog
	Sessions  *session.Store
	publisher events.Publisher
	usesDB    bool
}

// New wires every component on top of backend. publisher and pdf may be nil.
func New(cfg config.Config, backend repository.Backend, publisher events.Publisher, pdf controller.PDFPrinter) *App {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if pdf == nil {
		pdf = export.NewPDFRenderer(cfg.ChromePath, cfg.PDFTimeout)
	}

	stock := catalog.New(backend, cfg.LowStockThreshold)
	submitter := checkout.NewSubmitter(backend, backend, stock, publisher)
	sessions := session.NewStore(session.Factory{
		NewCart:       func() *cart.Cart { return cart.New(cfg.TaxRate, stock) },
		NewAggregator: func() *report.Aggregator { return report.NewAggregator(backend, cfg.TaxRate) },
	}, cfg.SessionIdleTimeout)
	stock.OnRefresh(func(c *catalog.StockCatalog) { sessions.RevalidateAll(c) })

	// Create controllers
	controllers := &router.Controllers{
		Catalog: controller.NewCatalogController(stock, backend),
		Cart:    controller.NewCartController(sessions, stock, backend, submitter),
		Sale:    controller.NewSaleController(backend, submitter),
		Report:  controller.NewReportController(sessions, pdf, cfg.ReportPageSize),
	}

	mux := http.NewServeMux()
	router.SetupRoutes(mux, controllers)

	return &App{
		Handler:   mux,
		Catalog:   stock,
		Sessions:  sessions,
		publisher: publisher,
	}
}

// Initialize initializes the application: selects the backend, connects
// to RabbitMQ when configured and starts the background refresh loops.
func Initialize(ctx context.Context, cfg config.Config) (*App, error) {
	var backend repository.Backend
	usesDB := false
	if cfg.UseREST() {
		logger.L().Infow("🔌 Backend: using REST API", "url", cfg.BackendURL)
		backend = apiclient.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)
	} else {
		// Initialize database connection
		if err := db.InitDB(); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.L().Infow("🔌 Backend: using Postgres")
		backend = repository.NewPostgresBackend()
		usesDB = true
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.SalesQueue)
		if err != nil {
			// sale events are best effort; the service runs without them
			logger.L().Warnw("⚠️ Events: RabbitMQ unavailable, sale events disabled", "error", err)
		} else {
			publisher = p
		}
	}

	a := New(cfg, backend, publisher, nil)
	a.usesDB = usesDB

	if err := a.Catalog.Refresh(ctx); err != nil {
		logger.L().Warnw("⚠️ Catalog: initial load failed, will retry on the next refresh", "error", err)
	}
	go a.Catalog.RefreshEvery(ctx, cfg.CatalogRefreshEvery)
	go a.Sessions.SweepEvery(ctx, cfg.SessionSweepEvery)

	return a, nil
}

// Close releases the database pool and the RabbitMQ connection
func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		logger.L().Warnw("⚠️ Events: close failed", "error", err)
	}
	if a.usesDB {
		db.CloseDB()
	}
}
