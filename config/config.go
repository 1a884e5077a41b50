// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the rate the checkout screen always charged.
// The old reporting screen recomputed tax at 0.19; that mismatch was never
// reconciled and only one rate is applied here.
const DefaultTaxRate = "0.16"

// Config holds configuration knobs for the HTTP server, the backend and the exporters.
type Config struct {
	Env                 string
	Port                string
	TaxRate             decimal.Decimal
	BackendURL          string
	BackendToken        string
	BackendTimeout      time.Duration
	ChromePath          string
	PDFTimeout          time.Duration
	ReportPageSize      int
	LowStockThreshold   int
	AMQPURL             string
	SalesQueue          string
	SessionIdleTimeout  time.Duration
	SessionSweepEvery   time.Duration
	CatalogRefreshEvery time.Duration
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
// It only fails when TAX_RATE is set to something that is not a rate.
func Load() (Config, error) {
	rate, err := decimal.NewFromString(getenv("TAX_RATE", DefaultTaxRate))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("invalid TAX_RATE %s: must be in [0, 1)", rate)
	}

	port := getenv("PORT", "8080")
	// PORT from some hosts comes with a leading colon
	port = strings.TrimPrefix(port, ":")

	return Config{
		Env:                 getenv("ENV", "development"),
		Port:                port,
		TaxRate:             rate,
		BackendURL:          strings.TrimRight(getenv("BACKEND_URL", ""), "/"),
		BackendToken:        getenv("BACKEND_TOKEN", ""),
		BackendTimeout:      durenvs("BACKEND_TIMEOUT", 15),
		ChromePath:          getenv("CHROME_PATH", ""),
		PDFTimeout:          durenvs("PDF_TIMEOUT", 30),
		ReportPageSize:      atoienv("REPORT_PAGE_SIZE", 25),
		LowStockThreshold:   atoienv("LOW_STOCK_THRESHOLD", 50),
		AMQPURL:             getenv("AMQP_URL", ""),
		SalesQueue:          getenv("SALES_QUEUE", "sales"),
		SessionIdleTimeout:  durenvs("SESSION_IDLE_TIMEOUT", 1800),
		SessionSweepEvery:   durenvs("SESSION_SWEEP_INTERVAL", 60),
		CatalogRefreshEvery: durenvs("CATALOG_REFRESH_INTERVAL", 300),
	}, nil
}

// UseREST reports whether the REST backend should be used instead of Postgres.
func (c Config) UseREST() bool {
	return c.BackendURL != ""
}
