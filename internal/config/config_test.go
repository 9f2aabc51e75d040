package config_test

import (
	"testing"
	"time"

	"github.com/fruteira-pos/terminal/internal/config"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LEDGER_MODE", "BACKEND_TIMEOUT", "TERMINAL_ID", "CURRENCY", "CORS_ORIGINS", "RECEIPT_LINES_PER_PAGE", "SCALE_MODE", "TZ_NAME"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, enum.LedgerModeREST, cfg.LedgerMode)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, currency.BRL, cfg.Currency)
	assert.Equal(t, 40, cfg.ReceiptLinesPerPage)
	assert.Equal(t, enum.ScaleModeSimulated, cfg.ScaleMode)
	assert.NotEqual(t, uuid.Nil, cfg.TerminalID)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	tid := uuid.New()
	t.Setenv("LEDGER_MODE", "postgres")
	t.Setenv("TERMINAL_ID", tid.String())
	t.Setenv("CURRENCY", "USD")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TZ_NAME", "UTC")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, enum.LedgerModePostgres, cfg.LedgerMode)
	assert.Equal(t, tid, cfg.TerminalID)
	assert.Equal(t, currency.USD, cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LEDGER_MODE", "mongo"},
		{"BACKEND_TIMEOUT", "soon"},
		{"RECEIPT_LINES_PER_PAGE", "many"},
		{"CURRENCY", "XX"},
		{"TERMINAL_ID", "till-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
