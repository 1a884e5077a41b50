package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ENV", "PORT", "TAX_RATE", "BACKEND_URL", "BACKEND_TOKEN", "BACKEND_TIMEOUT",
		"CHROME_PATH", "PDF_TIMEOUT", "REPORT_PAGE_SIZE", "LOW_STOCK_THRESHOLD",
		"AMQP_URL", "SALES_QUEUE", "SESSION_IDLE_TIMEOUT", "SESSION_SWEEP_INTERVAL",
		"CATALOG_REFRESH_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "0.16", c.TaxRate.String())
	assert.False(t, c.UseREST())
	assert.Equal(t, 15*time.Second, c.BackendTimeout)
	assert.Equal(t, 30*time.Second, c.PDFTimeout)
	assert.Equal(t, 25, c.ReportPageSize)
	assert.Equal(t, 50, c.LowStockThreshold)
	assert.Equal(t, "sales", c.SalesQueue)
	assert.Equal(t, 30*time.Minute, c.SessionIdleTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("TAX_RATE", "0.19")
	t.Setenv("BACKEND_URL", "http://localhost:8000/api/")
	t.Setenv("REPORT_PAGE_SIZE", "10")
	t.Setenv("PDF_TIMEOUT", "5")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "0.19", c.TaxRate.String())
	assert.True(t, c.UseREST())
	assert.Equal(t, "http://localhost:8000/api", c.BackendURL)
	assert.Equal(t, 10, c.ReportPageSize)
	assert.Equal(t, 5*time.Second, c.PDFTimeout)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	for _, v := range []string{"abc", "-0.1", "1.5"} {
		clearEnv(t)
		t.Setenv("TAX_RATE", v)
		_, err := Load()
		assert.Error(t, err, v)
	}
}

func TestLoadIgnoresBadIntegers(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_PAGE_SIZE", "many")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, c.ReportPageSize)
}
