package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RAKUTEN_APP_ID", "rk")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4*time.Second, cfg.Search.CallTimeout)
	assert.Equal(t, 8*time.Second, cfg.Search.RoundTimeout)
	assert.Equal(t, 20*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 3, cfg.Search.MaxAttempts)
	assert.Equal(t, 1.0, cfg.Rakuten.RPS)
	assert.Equal(t, 5, cfg.Rakuten.Burst)
	assert.Equal(t, 1000, cfg.Search.CacheSize)
	assert.Equal(t, 0.2, cfg.Diagnosis.MarginThreshold)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Server.AllowOrigins)

	assert.True(t, cfg.Rakuten.Enabled())
	assert.False(t, cfg.Yahoo.Enabled())
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("YAHOO_APP_ID", "yh")
	t.Setenv("MARKETPLACE_RPS", "2.5")
	t.Setenv("YAHOO_RPS", "4")
	t.Setenv("MARKETPLACE_BURST", "3")
	t.Setenv("YAHOO_BURST", "6")
	t.Setenv("SEARCH_CACHE_TTL", "0s")
	t.Setenv("DIAGNOSIS_MARGIN_THRESHOLD", "0.35")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Rakuten.RPS)
	assert.Equal(t, 4.0, cfg.Yahoo.RPS)
	assert.Equal(t, 3, cfg.Rakuten.Burst)
	assert.Equal(t, 6, cfg.Yahoo.Burst)
	assert.Zero(t, cfg.Search.CacheTTL)
	assert.Equal(t, 0.35, cfg.Diagnosis.MarginThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "no marketplace",
			env:  map[string]string{},
			want: ErrNoMarketplace.Error(),
		},
		{
			name: "bad duration",
			env:  map[string]string{"RAKUTEN_APP_ID": "rk", "SEARCH_CALL_TIMEOUT": "soon"},
			want: "invalid SEARCH_CALL_TIMEOUT",
		},
		{
			name: "round shorter than call",
			env:  map[string]string{"RAKUTEN_APP_ID": "rk", "SEARCH_CALL_TIMEOUT": "5s", "SEARCH_ROUND_TIMEOUT": "1s"},
			want: "RoundTimeout",
		},
		{
			name: "threshold out of range",
			env:  map[string]string{"RAKUTEN_APP_ID": "rk", "DIAGNOSIS_MARGIN_THRESHOLD": "1.5"},
			want: "MarginThreshold",
		},
		{
			name: "database without password",
			env:  map[string]string{"RAKUTEN_APP_ID": "rk", "DB_HOST": "db"},
			want: "missing database password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"RAKUTEN_APP_ID", "YAHOO_APP_ID"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
