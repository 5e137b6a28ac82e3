package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 25.0, cfg.Pricing.HourlyRate)
	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, 70, cfg.Predictive.HealthThreshold)
	assert.Equal(t, 40, cfg.Predictive.CriticalThreshold)
	assert.Equal(t, time.Minute, cfg.Predictive.ScanInterval)
	assert.Equal(t, 30*time.Second, cfg.Redis.ViewTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DB_DSN", "postgres://fleet@localhost/fleet")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PRICING_HOURLY_RATE", "12.5")
	t.Setenv("PRICING_CURRENCY", "eur")
	t.Setenv("PREDICTIVE_SCAN_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 12.5, cfg.Pricing.HourlyRate)
	assert.Equal(t, "EUR", cfg.Pricing.Currency)
	assert.Zero(t, cfg.Predictive.ScanInterval)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres needs dsn", map[string]string{"JWT_ACCESS_SECRET": "s"}, "DB_DSN is required"},
		{"secret required", map[string]string{"STORE_DRIVER": "memory"}, "JWT_ACCESS_SECRET is required"},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite", "JWT_ACCESS_SECRET": "s"}, "STORE_DRIVER"},
		{"currency", map[string]string{
			"STORE_DRIVER":      "memory",
			"JWT_ACCESS_SECRET": "s",
			"PRICING_CURRENCY":  "dollars",
		}, "PRICING_CURRENCY"},
		{"thresholds", map[string]string{
			"STORE_DRIVER":                  "memory",
			"JWT_ACCESS_SECRET":             "s",
			"PREDICTIVE_CRITICAL_THRESHOLD": "80",
		}, "PREDICTIVE_CRITICAL_THRESHOLD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
