package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/config"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("PAYSTELL_DATADIR", datadir)
	t.Setenv("PAYSTELL_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PAYSTELL_DEPOSIT_TTL", "45m")

	require.NoError(t, config.InitConfig())

	require.Equal(t, datadir, config.GetDatadir())
	require.Equal(t, 8080, config.GetInt(config.ListeningPortKey))
	require.Equal(t, 45*time.Minute, config.GetDuration(config.DepositTTLKey))
	require.Equal(t, 30*time.Second, config.GetDuration(config.PingIntervalKey))
	require.Equal(
		t, []string{"https://a.example", "https://b.example"},
		config.GetStringSlice(config.CorsAllowedOriginsKey),
	)

	info, err := os.Stat(filepath.Join(datadir, config.DbLocation))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInitConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown db type", "PAYSTELL_DB_TYPE", "postgres"},
		{"unknown replay store", "PAYSTELL_REPLAY_STORE_TYPE", "memcached"},
		{"zero replay cache", "PAYSTELL_REPLAY_CACHE_SIZE", "0"},
		{"negative ttl", "PAYSTELL_DEPOSIT_TTL", "-1m"},
		{"relative horizon url", "PAYSTELL_HORIZON_URL", "/horizon"},
		{"http realtime url", "PAYSTELL_REALTIME_URL", "http://localhost:8080/ws"},
		{"zero rate limit", "PAYSTELL_HORIZON_RATE_LIMIT", "0"},
		{"zero reconnect attempts", "PAYSTELL_MAX_RECONNECT_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYSTELL_DATADIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			require.Error(t, config.InitConfig())
		})
	}
}
